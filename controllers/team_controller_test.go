package controller

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/models"
)

func teamApp(tc *TeamController, user *models.User) *fiber.App {
	app := newTestApp(user)
	app.Post("/team/invite", tc.InviteTeamMember)
	app.Get("/team/members", tc.GetTeamMembers)
	app.Delete("/team/members/:id", tc.RemoveTeamMember)
	return app
}

func TestInvite_CreatesTeamLazily(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com", 0)

	tc := NewTeamController(db, testLogger())
	app := teamApp(tc, user)

	status, _ := postJSON(t, app, "/team/invite", map[string]interface{}{"email": "colleague@example.com"})
	require.Equal(t, 201, status)

	var team models.Team
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&team).Error)
	assert.Equal(t, "My Workspace", team.Name)

	var members []models.TeamMember
	require.NoError(t, db.Where("team_id = ?", team.ID).Find(&members).Error)
	require.Len(t, members, 1)
	assert.Equal(t, "colleague@example.com", members[0].Email)
}

func TestInvite_ReusesExistingTeam(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "existing@example.com", 0)

	team := models.Team{OwnerID: user.ID, Name: "Acme Inc"}
	require.NoError(t, db.Create(&team).Error)

	tc := NewTeamController(db, testLogger())
	app := teamApp(tc, user)

	status, _ := postJSON(t, app, "/team/invite", map[string]interface{}{"email": "new@example.com"})
	require.Equal(t, 201, status)

	var count int64
	db.Model(&models.Team{}).Where("owner_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count, "invite must not create a second team")

	var kept models.Team
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&kept).Error)
	assert.Equal(t, "Acme Inc", kept.Name)
}

func TestInvite_DuplicateEmailFails(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner2@example.com", 0)

	tc := NewTeamController(db, testLogger())
	app := teamApp(tc, user)

	status, _ := postJSON(t, app, "/team/invite", map[string]interface{}{"email": "dup@example.com"})
	require.Equal(t, 201, status)

	status, body := postJSON(t, app, "/team/invite", map[string]interface{}{"email": "dup@example.com"})
	assert.Equal(t, 409, status)
	assert.Equal(t, "INVITE_FAILED", body["code"])
}

func TestInvite_RejectsBadEmail(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner3@example.com", 0)

	tc := NewTeamController(db, testLogger())
	app := teamApp(tc, user)

	status, body := postJSON(t, app, "/team/invite", map[string]interface{}{"email": "not-an-email"})
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestGetTeamMembers_NoTeamIsEmptyList(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "solo@example.com", 0)

	tc := NewTeamController(db, testLogger())
	app := teamApp(tc, user)

	status, body := getJSON(t, app, "/team/members")
	require.Equal(t, 200, status)
	assert.Len(t, body["data"], 0)
}

func TestRemoveTeamMember_OwnTeam(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "remover@example.com", 0)

	team := models.Team{OwnerID: user.ID, Name: "My Workspace"}
	require.NoError(t, db.Create(&team).Error)
	member := models.TeamMember{TeamID: team.ID, Email: "leaving@example.com"}
	require.NoError(t, db.Create(&member).Error)

	tc := NewTeamController(db, testLogger())
	app := teamApp(tc, user)

	status, _ := deleteJSON(t, app, fmt.Sprintf("/team/members/%d", member.ID))
	require.Equal(t, 200, status)

	var count int64
	db.Model(&models.TeamMember{}).Where("id = ?", member.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestRemoveTeamMember_GarbageIDIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "typo@example.com", 0)

	team := models.Team{OwnerID: user.ID, Name: "My Workspace"}
	require.NoError(t, db.Create(&team).Error)
	member := models.TeamMember{TeamID: team.ID, Email: "member@example.com"}
	require.NoError(t, db.Create(&member).Error)

	tc := NewTeamController(db, testLogger())
	app := teamApp(tc, user)

	status, _ := deleteJSON(t, app, "/team/members/not-a-number")
	assert.Equal(t, 404, status)

	var count int64
	db.Model(&models.TeamMember{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRemoveTeamMember_OtherTeamIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "victim@example.com", 0)
	attacker := createTestUser(t, db, "attacker@example.com", 0)

	team := models.Team{OwnerID: owner.ID, Name: "Victim Workspace"}
	require.NoError(t, db.Create(&team).Error)
	member := models.TeamMember{TeamID: team.ID, Email: "member@example.com"}
	require.NoError(t, db.Create(&member).Error)

	// Attacker owns their own team, but the member row is not in it
	attackerTeam := models.Team{OwnerID: attacker.ID, Name: "Attacker Workspace"}
	require.NoError(t, db.Create(&attackerTeam).Error)

	tc := NewTeamController(db, testLogger())
	app := teamApp(tc, attacker)

	status, _ := deleteJSON(t, app, fmt.Sprintf("/team/members/%d", member.ID))
	assert.Equal(t, 404, status)

	var count int64
	db.Model(&models.TeamMember{}).Where("id = ?", member.ID).Count(&count)
	assert.EqualValues(t, 1, count, "foreign member row must survive")
}
