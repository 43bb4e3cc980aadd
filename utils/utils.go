package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Stable error codes returned to clients. The frontend switches on these
// instead of matching human-readable message text.
const (
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeInsufficientCredits     = "INSUFFICIENT_CREDITS"
	CodeProfileUnavailable      = "PROFILE_UNAVAILABLE"
	CodeProviderError           = "PROVIDER_ERROR"
	CodeAffiliateCreationFailed = "AFFILIATE_CREATION_FAILED"
	CodeInviteFailed            = "INVITE_FAILED"
	CodeTeamOperationFailed     = "TEAM_OPERATION_FAILED"
	CodeConfigurationError      = "CONFIGURATION_ERROR"
	CodeNotFound                = "NOT_FOUND"
	CodeInternalError           = "INTERNAL_ERROR"
)

// ErrorResponse creates a standardized error response
func ErrorResponse(c *fiber.Ctx, status int, code, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"code":    code,
		"error":   message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	return c.Status(status).JSON(response)
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// ParseUint safely parses a string to uint
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}

// PaginatedResponse structure for paginated results
type PaginatedResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
