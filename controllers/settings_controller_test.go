package controller

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/models"
)

func settingsApp(stc *SettingsController, user *models.User) *fiber.App {
	app := newTestApp(user)
	app.Get("/settings", stc.GetSettings)
	app.Put("/settings", stc.UpdateSettings)
	return app
}

func TestUpdateSettings_CreatesTeamFromCompanyName(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "settings@example.com", 0)

	stc := NewSettingsController(db, testLogger())
	app := settingsApp(stc, user)

	status, _ := putJSON(t, app, "/settings", map[string]interface{}{
		"full_name":    "Ada Lovelace",
		"company_name": "Analytical Engines Ltd",
	})
	require.Equal(t, 200, status)

	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, "Ada Lovelace", profile.FullName)

	var team models.Team
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&team).Error)
	assert.Equal(t, "Analytical Engines Ltd", team.Name)
}

func TestUpdateSettings_RenamesExistingTeam(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "rename@example.com", 0)

	team := models.Team{OwnerID: user.ID, Name: "Old Name"}
	require.NoError(t, db.Create(&team).Error)

	stc := NewSettingsController(db, testLogger())
	app := settingsApp(stc, user)

	status, _ := putJSON(t, app, "/settings", map[string]interface{}{
		"full_name":    "Grace Hopper",
		"company_name": "New Name",
	})
	require.Equal(t, 200, status)

	var count int64
	db.Model(&models.Team{}).Where("owner_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var updated models.Team
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&updated).Error)
	assert.Equal(t, "New Name", updated.Name)
}

func TestUpdateSettings_RequiresBothFields(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "invalid@example.com", 0)

	stc := NewSettingsController(db, testLogger())
	app := settingsApp(stc, user)

	status, body := putJSON(t, app, "/settings", map[string]interface{}{
		"full_name": "No Company",
	})
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestGetSettings_ReturnsProfileAndNilTeam(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader@example.com", 42)

	stc := NewSettingsController(db, testLogger())
	app := settingsApp(stc, user)

	status, body := getJSON(t, app, "/settings")
	require.Equal(t, 200, status)

	data := body["data"].(map[string]interface{})
	profile := data["profile"].(map[string]interface{})
	assert.EqualValues(t, 42, profile["credits"])
	assert.Nil(t, data["team"])
}
