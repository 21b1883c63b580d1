package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tender-scout-go/internal/models"
)

var validStates = map[string]struct{}{
	models.StateWaitingForFiltering: {},
	models.StateQualified:           {},
	models.StateUnqualified:         {},
	models.StateNotified:            {},
}

// GetTenders lists tenders, optionally filtered by state and capped by
// limit.
func (h *Handlers) GetTenders(c *gin.Context) {
	state := c.Query("state")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a non-negative integer",
				Code:    http.StatusBadRequest,
			})
			return
		}
		limit = parsed
	}

	if state != "" {
		if _, ok := validStates[state]; !ok {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_state",
				Message: "unknown tender state: " + state,
				Code:    http.StatusBadRequest,
			})
			return
		}
		tenders, err := h.store.GetByState(state, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "query_failed",
				Message: err.Error(),
				Code:    http.StatusInternalServerError,
			})
			return
		}
		c.JSON(http.StatusOK, tenders)
		return
	}

	var tenders []models.Tender
	query := h.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&tenders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "query_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, tenders)
}

// GetTender returns a single tender by id.
func (h *Handlers) GetTender(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "tender id must be a positive integer",
			Code:    http.StatusBadRequest,
		})
		return
	}

	tender, err := h.store.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "tender not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "query_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, tender)
}

// GetTenderStats reports how many tenders sit in each lifecycle state.
func (h *Handlers) GetTenderStats(c *gin.Context) {
	var stats models.TenderStatsResponse
	counts := []struct {
		state string
		dst   *int64
	}{
		{models.StateWaitingForFiltering, &stats.Waiting},
		{models.StateQualified, &stats.Qualified},
		{models.StateUnqualified, &stats.Unqualified},
		{models.StateNotified, &stats.Notified},
	}

	for _, entry := range counts {
		count, err := h.store.CountByState(entry.state)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "query_failed",
				Message: err.Error(),
				Code:    http.StatusInternalServerError,
			})
			return
		}
		*entry.dst = count
		stats.Total += count
	}

	c.JSON(http.StatusOK, stats)
}
