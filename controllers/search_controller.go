package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadpilot/models"
	"leadpilot/scraper"
	"leadpilot/utils"
)

// LeadScraper is the slice of the provider client the search flow needs.
type LeadScraper interface {
	SearchPlaces(ctx context.Context, req scraper.SearchRequest) ([]scraper.Place, error)
}

type SearchController struct {
	DB      *gorm.DB
	Scraper LeadScraper
	Logger  *logrus.Entry
}

// NewSearchController wires the search flow. Scraper may be nil when no
// provider token is configured; searches then fail with a configuration
// error while the rest of the app keeps working.
func NewSearchController(db *gorm.DB, sc LeadScraper, logger *logrus.Entry) *SearchController {
	return &SearchController{
		DB:      db,
		Scraper: sc,
		Logger:  logger,
	}
}

type SearchRequest struct {
	Keyword     string `json:"keyword" validate:"required,max=200"`
	City        string `json:"city" validate:"required,max=100"`
	CountryCode string `json:"country_code"`
	Limit       int    `json:"limit"`
}

type SearchResponse struct {
	Leads            []models.Lead `json:"leads"`
	CreditsRemaining int           `json:"credits_remaining"`
}

// SearchLeads runs one credit-metered provider search.
//
// Ordering matters: everything that can reject the request happens before
// the provider call, because every accepted run costs money. Once the
// provider has returned results the caller always gets them; bookkeeping
// failures after that point are queued for the ledger worker instead of
// failing the response.
func (sc *SearchController) SearchLeads(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Invalid request body", err)
	}
	if req.CountryCode == "" {
		req.CountryCode = "us"
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Validation failed", err)
	}

	// Fetch the caller's profile and credit balance
	var profile models.Profile
	if err := sc.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, utils.CodeProfileUnavailable,
			"Unable to retrieve user profile or credits", nil)
	}

	if req.Limit <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest,
			"Requested limit must be greater than 0", nil)
	}

	// Pre-check only; the debit below is conditional so concurrent
	// searches cannot push the balance negative.
	if profile.Credits < req.Limit {
		return utils.ErrorResponse(c, fiber.StatusPaymentRequired, utils.CodeInsufficientCredits,
			"Insufficient credits for this request. Please upgrade.", nil)
	}

	if sc.Scraper == nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeConfigurationError,
			"Scraping provider is not configured", nil)
	}

	items, err := sc.Scraper.SearchPlaces(c.Context(), scraper.SearchRequest{
		Query:       fmt.Sprintf("%s in %s", req.Keyword, req.City),
		MaxResults:  req.Limit,
		Language:    "en",
		CountryCode: req.CountryCode,
	})
	if err != nil {
		sc.Logger.WithError(err).WithField("user_id", user.ID).Error("Provider search failed")
		sentry.CaptureException(err)
		return utils.ErrorResponse(c, fiber.StatusBadGateway, utils.CodeProviderError,
			"Lead search failed: "+err.Error(), nil)
	}

	// Map raw items as-is; missing fields stay empty, nothing is deduplicated.
	leads := make([]models.Lead, 0, len(items))
	for _, item := range items {
		phone := item.PhoneUnformatted
		if phone == "" {
			phone = item.Phone
		}
		leads = append(leads, models.Lead{
			Name:    item.Title,
			Address: item.Address,
			Phone:   phone,
			Website: item.Website,
			Rating:  item.TotalScore,
		})
	}

	// Billed by leads actually returned, not by the requested limit.
	actual := len(leads)
	creditsRemaining := profile.Credits - actual

	if actual > 0 {
		res := sc.DB.Model(&models.Profile{}).
			Where("user_id = ? AND credits >= ?", user.ID, actual).
			UpdateColumn("credits", gorm.Expr("credits - ?", actual))
		if res.Error != nil || res.RowsAffected == 0 {
			sc.Logger.WithError(res.Error).WithFields(logrus.Fields{
				"user_id": user.ID,
				"amount":  actual,
			}).Error("Failed to debit credits, queueing for reconciliation")
			sc.enqueueOutbox(models.LedgerOutbox{
				UserID: user.ID,
				Kind:   models.OutboxKindDebit,
				Amount: actual,
			})
		} else {
			var updated models.Profile
			if err := sc.DB.Where("user_id = ?", user.ID).First(&updated).Error; err == nil {
				creditsRemaining = updated.Credits
			}
		}
	}

	history := models.SearchHistory{
		UserID:       user.ID,
		Keyword:      req.Keyword,
		Location:     req.City,
		ResultsCount: actual,
		ResultsData:  leads,
	}
	if err := sc.DB.Create(&history).Error; err != nil {
		sc.Logger.WithError(err).WithField("user_id", user.ID).Error("Failed to record search history, queueing for reconciliation")
		payload, merr := json.Marshal(history)
		if merr == nil {
			sc.enqueueOutbox(models.LedgerOutbox{
				UserID:  user.ID,
				Kind:    models.OutboxKindHistory,
				Payload: payload,
			})
		}
	}

	return c.JSON(utils.SuccessResponse(SearchResponse{
		Leads:            leads,
		CreditsRemaining: creditsRemaining,
	}))
}

func (sc *SearchController) enqueueOutbox(entry models.LedgerOutbox) {
	if err := sc.DB.Create(&entry).Error; err != nil {
		sc.Logger.WithError(err).Error("Failed to enqueue ledger outbox entry")
		sentry.CaptureException(err)
	}
}
