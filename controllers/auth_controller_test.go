package controller

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/config"
	"leadpilot/models"
)

func authApp() *fiber.App {
	app := fiber.New()
	app.Post("/register", Register)
	app.Post("/login", Login)
	return app
}

func setupAuthTest(t *testing.T) {
	t.Helper()
	config.DB = setupTestDB(t)
	config.AppConfig.EncryptionKey = "test-encryption-key"
	config.AppConfig.FreeCredits = 25
	config.AppConfig.ReferralBonusCents = 500
}

func TestRegister_CreatesProfileWithFreeCredits(t *testing.T) {
	setupAuthTest(t)
	app := authApp()

	status, body := postJSON(t, app, "/register", map[string]interface{}{
		"email":     "new@example.com",
		"password":  "supersecret",
		"full_name": "New User",
	})
	require.Equal(t, 201, status)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	var user models.User
	require.NoError(t, config.DB.Where("email = ?", "new@example.com").First(&user).Error)

	var profile models.Profile
	require.NoError(t, config.DB.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, 25, profile.Credits)
	assert.Equal(t, "New User", profile.FullName)
}

func TestRegister_AttributesReferral(t *testing.T) {
	setupAuthTest(t)
	app := authApp()

	referrer := createTestUser(t, config.DB, "referrer@example.com", 0)
	affiliate := models.Affiliate{UserID: referrer.ID, ReferralCode: "XY99ZZ"}
	require.NoError(t, config.DB.Create(&affiliate).Error)

	status, _ := postJSON(t, app, "/register", map[string]interface{}{
		"email":         "referred@example.com",
		"password":      "supersecret",
		"referral_code": "XY99ZZ",
	})
	require.Equal(t, 201, status)

	var updated models.Affiliate
	require.NoError(t, config.DB.Where("referral_code = ?", "XY99ZZ").First(&updated).Error)
	assert.Equal(t, 1, updated.SignupsCount)
	assert.Equal(t, 500, updated.Earnings)
}

func TestRegister_UnknownReferralCodeStillRegisters(t *testing.T) {
	setupAuthTest(t)
	app := authApp()

	status, _ := postJSON(t, app, "/register", map[string]interface{}{
		"email":         "lonely@example.com",
		"password":      "supersecret",
		"referral_code": "NOPE00",
	})
	assert.Equal(t, 201, status)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	setupAuthTest(t)
	app := authApp()

	body := map[string]interface{}{
		"email":    "dup@example.com",
		"password": "supersecret",
	}
	status, _ := postJSON(t, app, "/register", body)
	require.Equal(t, 201, status)

	status, resp := postJSON(t, app, "/register", body)
	assert.Equal(t, 409, status)
	assert.Equal(t, false, resp["success"])
}

func TestLogin_RoundTrip(t *testing.T) {
	setupAuthTest(t)
	app := authApp()

	status, _ := postJSON(t, app, "/register", map[string]interface{}{
		"email":    "login@example.com",
		"password": "supersecret",
	})
	require.Equal(t, 201, status)

	status, body := postJSON(t, app, "/login", map[string]interface{}{
		"email":    "login@example.com",
		"password": "supersecret",
	})
	require.Equal(t, 200, status)
	assert.NotEmpty(t, body["access_token"])

	status, _ = postJSON(t, app, "/login", map[string]interface{}{
		"email":    "login@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, 401, status)
}
