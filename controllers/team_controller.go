package controller

import (
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadpilot/models"
	"leadpilot/utils"
)

const defaultTeamName = "My Workspace"

type TeamController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewTeamController(db *gorm.DB, logger *logrus.Entry) *TeamController {
	return &TeamController{
		DB:     db,
		Logger: logger,
	}
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// InviteTeamMember adds an email to the caller's team, creating the team on
// first use.
func (tc *TeamController) InviteTeamMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Validation failed", err)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Invalid email address", err)
	}

	team, err := tc.getOrCreateTeam(user.ID, defaultTeamName)
	if err != nil {
		tc.Logger.WithError(err).WithField("user_id", user.ID).Error("Failed to create team workspace")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeTeamOperationFailed,
			"Failed to create your team workspace", nil)
	}

	member := models.TeamMember{
		TeamID: team.ID,
		Email:  email,
	}
	if err := tc.DB.Create(&member).Error; err != nil {
		tc.Logger.WithError(err).WithFields(logrus.Fields{
			"team_id": team.ID,
			"email":   email,
		}).Error("Failed to invite team member")
		return utils.ErrorResponse(c, fiber.StatusConflict, utils.CodeInviteFailed,
			"Failed to invite team member. They might already be invited.", nil)
	}

	// Best effort; the invite row is what matters.
	if err := utils.SendTeamInviteEmail(email, team.Name, user.Email); err != nil {
		tc.Logger.WithError(err).WithField("email", email).Warn("Failed to send invite email")
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(member))
}

// GetTeamMembers lists the caller's team. No team yet is an empty list, not
// an error.
func (tc *TeamController) GetTeamMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var team models.Team
	if err := tc.DB.Where("owner_id = ?", user.ID).First(&team).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(utils.SuccessResponse([]models.TeamMember{}))
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeTeamOperationFailed, "Failed to fetch team", err)
	}

	var members []models.TeamMember
	if err := tc.DB.Where("team_id = ?", team.ID).Find(&members).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeTeamOperationFailed, "Failed to fetch team members", err)
	}

	return c.JSON(utils.SuccessResponse(members))
}

// RemoveTeamMember deletes a member row, but only from the caller's own
// team. Rows in other teams are reported as not found.
func (tc *TeamController) RemoveTeamMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	memberID := utils.ParseUint(c.Params("id"))

	var team models.Team
	if err := tc.DB.Where("owner_id = ?", user.ID).First(&team).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, utils.CodeNotFound, "Team member not found", nil)
	}

	res := tc.DB.Where("id = ? AND team_id = ?", memberID, team.ID).Delete(&models.TeamMember{})
	if res.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeTeamOperationFailed, "Failed to remove team member", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, utils.CodeNotFound, "Team member not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"removed": true}))
}

// getOrCreateTeam lazily creates the caller's workspace. The unique index
// on owner_id settles concurrent first calls; the loser of the race
// re-fetches the winner's row.
func (tc *TeamController) getOrCreateTeam(ownerID uint, name string) (*models.Team, error) {
	var team models.Team
	err := tc.DB.Where("owner_id = ?", ownerID).First(&team).Error
	if err == nil {
		return &team, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	team = models.Team{
		OwnerID: ownerID,
		Name:    name,
	}
	if err := tc.DB.Create(&team).Error; err != nil {
		var winner models.Team
		if ferr := tc.DB.Where("owner_id = ?", ownerID).First(&winner).Error; ferr == nil {
			return &winner, nil
		}
		return nil, err
	}
	return &team, nil
}
