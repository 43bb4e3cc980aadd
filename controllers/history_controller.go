package controller

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"leadpilot/models"
	"leadpilot/utils"
)

// GetSearchHistory returns the caller's past searches, newest first.
func (sc *SearchController) GetSearchHistory(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	// Pagination
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	var entries []models.SearchHistory
	if err := sc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to fetch search history", err)
	}

	var total int64
	sc.DB.Model(&models.SearchHistory{}).Where("user_id = ?", user.ID).Count(&total)

	return c.JSON(utils.PaginatedResponse{
		Data:  entries,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// ExportSearchHistory streams the stored leads of one search as CSV.
func (sc *SearchController) ExportSearchHistory(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	entryID := utils.ParseUint(c.Params("id"))

	var entry models.SearchHistory
	if err := sc.DB.Where("id = ? AND user_id = ?", entryID, user.ID).First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, utils.CodeNotFound, "Search history entry not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to fetch search history entry", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"name", "address", "phone", "website", "rating"}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to generate CSV", err)
	}
	for _, lead := range entry.ResultsData {
		record := []string{
			lead.Name,
			lead.Address,
			lead.Phone,
			lead.Website,
			strconv.FormatFloat(lead.Rating, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to generate CSV", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, utils.CodeInternalError, "Failed to generate CSV", err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=leads-%d.csv", entry.ID))
	return c.Send(buf.Bytes())
}
