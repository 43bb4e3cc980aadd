package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadpilot/config"
	"leadpilot/models"
	"leadpilot/utils"
)

const maxReferralCodeAttempts = 5

type AffiliateController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewAffiliateController(db *gorm.DB, logger *logrus.Entry) *AffiliateController {
	return &AffiliateController{
		DB:     db,
		Logger: logger,
	}
}

type AffiliateLinkResponse struct {
	ReferralCode string `json:"referral_code"`
	ReferralURL  string `json:"referral_url"`
}

// CreateAffiliateLink issues the caller's referral code. Idempotent:
// repeated calls return the same code and never create a second row.
func (ac *AffiliateController) CreateAffiliateLink(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	// Already enrolled
	var existing models.Affiliate
	if err := ac.DB.Where("user_id = ?", user.ID).First(&existing).Error; err == nil {
		return c.JSON(utils.SuccessResponse(affiliateLinkResponse(existing.ReferralCode)))
	}

	// Probe for a free code. A collision within 36^6 is practically
	// impossible, but the unique index below is what actually guarantees
	// uniqueness; after the attempts run out the last candidate is still
	// tried and the index has the final word.
	code := utils.GenerateReferralCode()
	for attempt := 0; attempt < maxReferralCodeAttempts; attempt++ {
		var clash models.Affiliate
		if err := ac.DB.Where("referral_code = ?", code).First(&clash).Error; err == gorm.ErrRecordNotFound {
			break
		}
		code = utils.GenerateReferralCode()
	}

	affiliate := models.Affiliate{
		UserID:       user.ID,
		ReferralCode: code,
		ClicksCount:  0,
		SignupsCount: 0,
		Earnings:     0,
	}
	if err := ac.DB.Create(&affiliate).Error; err != nil {
		// A concurrent first call may have won the insert on user_id;
		// return the winner's code instead of failing.
		var winner models.Affiliate
		if ferr := ac.DB.Where("user_id = ?", user.ID).First(&winner).Error; ferr == nil {
			return c.JSON(utils.SuccessResponse(affiliateLinkResponse(winner.ReferralCode)))
		}

		ac.Logger.WithError(err).WithField("user_id", user.ID).Error("Affiliate link generation failed")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeAffiliateCreationFailed,
			"Failed to generate affiliate link", nil)
	}

	return c.JSON(utils.SuccessResponse(affiliateLinkResponse(code)))
}

// GetAffiliateStats returns the caller's affiliate record.
func (ac *AffiliateController) GetAffiliateStats(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var affiliate models.Affiliate
	if err := ac.DB.Where("user_id = ?", user.ID).First(&affiliate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, utils.CodeNotFound, "No affiliate link yet", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to fetch affiliate stats", err)
	}

	return c.JSON(utils.SuccessResponse(affiliate))
}

// TrackReferralClick is the public /r/:code redirect. It counts the click
// and forwards to the signup page carrying the code. Unknown codes still
// redirect so dead links never strand a visitor.
func (ac *AffiliateController) TrackReferralClick(c *fiber.Ctx) error {
	code := c.Params("code")

	res := ac.DB.Model(&models.Affiliate{}).
		Where("referral_code = ?", code).
		UpdateColumn("clicks_count", gorm.Expr("clicks_count + 1"))
	if res.Error != nil {
		ac.Logger.WithError(res.Error).WithField("code", code).Error("Failed to count referral click")
	}

	return c.Redirect(fmt.Sprintf("%s/login?ref=%s", config.AppConfig.FrontendURL, code), fiber.StatusFound)
}

func affiliateLinkResponse(code string) AffiliateLinkResponse {
	return AffiliateLinkResponse{
		ReferralCode: code,
		ReferralURL:  fmt.Sprintf("%s/r/%s", config.AppConfig.FrontendURL, code),
	}
}
