package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadpilot/models"
	"leadpilot/utils"
)

type SettingsController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewSettingsController(db *gorm.DB, logger *logrus.Entry) *SettingsController {
	return &SettingsController{
		DB:     db,
		Logger: logger,
	}
}

type UpdateSettingsRequest struct {
	FullName    string `json:"full_name" validate:"required,max=100"`
	CompanyName string `json:"company_name" validate:"required,max=100"`
}

// GetSettings returns the caller's profile and team, if any.
func (stc *SettingsController) GetSettings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var profile models.Profile
	if err := stc.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, utils.CodeProfileUnavailable,
			"Unable to retrieve user profile", nil)
	}

	var team *models.Team
	var owned models.Team
	if err := stc.DB.Where("owner_id = ?", user.ID).First(&owned).Error; err == nil {
		team = &owned
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"profile": profile,
		"team":    team,
	}))
}

// UpdateSettings updates the profile's display name and syncs the team name
// to the company name, creating the team when missing.
func (stc *SettingsController) UpdateSettings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Validation failed", err)
	}

	if err := stc.DB.Model(&models.Profile{}).
		Where("user_id = ?", user.ID).
		Update("full_name", req.FullName).Error; err != nil {
		stc.Logger.WithError(err).WithField("user_id", user.ID).Error("Profile update failed")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeProfileUnavailable,
			"Failed to update profile name", nil)
	}

	var team models.Team
	err := stc.DB.Where("owner_id = ?", user.ID).First(&team).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		team = models.Team{OwnerID: user.ID, Name: req.CompanyName}
		if err := stc.DB.Create(&team).Error; err != nil {
			// Concurrent creation; update the winner's row instead
			if ferr := stc.DB.Model(&models.Team{}).
				Where("owner_id = ?", user.ID).
				Update("name", req.CompanyName).Error; ferr != nil {
				stc.Logger.WithError(err).WithField("user_id", user.ID).Error("Team create failed")
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeTeamOperationFailed,
					"Failed to create team", nil)
			}
		}
	case err != nil:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeTeamOperationFailed,
			"Failed to fetch team", err)
	default:
		if err := stc.DB.Model(&team).Update("name", req.CompanyName).Error; err != nil {
			stc.Logger.WithError(err).WithField("user_id", user.ID).Error("Team update failed")
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeTeamOperationFailed,
				"Failed to update team name", nil)
		}
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"updated": true}))
}
