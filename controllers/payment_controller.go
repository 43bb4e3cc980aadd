package controller

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"gorm.io/gorm"

	"leadpilot/config"
	"leadpilot/models"
	"leadpilot/utils"
)

func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

type PaymentRequest struct {
	PlanID uint `json:"plan_id" validate:"required"`
}

// GetPlans lists the purchasable credit packs.
func GetPlans(c *fiber.Ctx) error {
	var plans []models.Plan
	if err := config.DB.Where("price > 0").Order("price ASC").Find(&plans).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to fetch plans", err)
	}
	return c.JSON(utils.SuccessResponse(plans))
}

// CreatePaymentIntent creates a Stripe Payment Intent for a credit pack
func CreatePaymentIntent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Invalid request body", err)
	}
	if req.PlanID == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Plan ID is required", nil)
	}
	if config.AppConfig.StripeSecretKey == "" {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeConfigurationError,
			"Payments are not configured", nil)
	}

	var plan models.Plan
	if err := config.DB.First(&plan, req.PlanID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, utils.CodeNotFound, "Plan not found", nil)
	}
	if plan.Price <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Plan is not purchasable", nil)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(plan.Price)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Metadata: map[string]string{
			"user_id": strconv.Itoa(int(user.ID)),
			"plan_id": strconv.Itoa(int(plan.ID)),
		},
		Description: stripe.String("Purchase of " + plan.Name + " credit pack"),
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to create payment intent")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to process payment", nil)
	}

	transaction := models.CreditTransaction{
		UserID:                user.ID,
		PlanID:                &plan.ID,
		Credits:               plan.Credits,
		Amount:                plan.Price,
		Currency:              "usd",
		PaymentStatus:         "pending",
		StripePaymentIntentID: pi.ID,
		Description:           "Purchase of " + plan.Name + " credit pack",
	}
	if err := config.DB.Create(&transaction).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to create transaction")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to process transaction", nil)
	}

	return c.JSON(fiber.Map{
		"clientSecret":   pi.ClientSecret,
		"transaction_id": transaction.ID,
		"amount":         plan.Price,
		"currency":       "usd",
	})
}

// HandlePaymentWebhook settles completed payments: the transaction flips to
// completed exactly once and the pack's credits land on the profile.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Invalid webhook payload", err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, "Malformed payment intent", err)
		}
		if err := settlePayment(pi.ID); err != nil {
			logrus.WithError(err).WithField("payment_intent", pi.ID).Error("Failed to settle payment")
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to settle payment", nil)
		}
	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
			markPaymentFailed(pi.ID)
		}
	}

	return c.JSON(fiber.Map{"received": true})
}

// markPaymentFailed records a failed intent. Only pending transactions
// transition; a settled one stays completed.
func markPaymentFailed(paymentIntentID string) {
	config.DB.Model(&models.CreditTransaction{}).
		Where("stripe_payment_intent_id = ? AND payment_status = ?", paymentIntentID, "pending").
		Update("payment_status", "failed")
}

func settlePayment(paymentIntentID string) error {
	return config.DB.Transaction(func(tx *gorm.DB) error {
		var transaction models.CreditTransaction
		if err := tx.Where("stripe_payment_intent_id = ?", paymentIntentID).First(&transaction).Error; err != nil {
			return err
		}
		// Webhooks can be delivered more than once
		if transaction.PaymentStatus == "completed" {
			return nil
		}

		if err := tx.Model(&transaction).Update("payment_status", "completed").Error; err != nil {
			return err
		}

		return tx.Model(&models.Profile{}).
			Where("user_id = ?", transaction.UserID).
			UpdateColumn("credits", gorm.Expr("credits + ?", transaction.Credits)).Error
	})
}
