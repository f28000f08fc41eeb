package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetDailyStats handles GET /api/stats/daily?date=YYYY-MM-DD.
func (h *Handler) GetDailyStats(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	date, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}

	stats, err := h.store.GetDailyStats(c.Request.Context(), date)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
