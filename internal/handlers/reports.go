package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Report handlers (admin)

// DailyReport - GET /api/reports/daily?date=YYYY-MM-DD&refresh=true
func (h *Handlers) DailyReport(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}

	rep, err := h.services.Reports.Daily(c.Request.Context(), date, c.Query("refresh") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rep)
}

// MonthlyReport - GET /api/reports/monthly?year=2026&month=8
func (h *Handlers) MonthlyReport(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
		return
	}

	rep, err := h.services.Reports.Monthly(c.Request.Context(), year, month, c.Query("refresh") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rep)
}

// LotReport - GET /api/reports/lots/:id?date=YYYY-MM-DD
func (h *Handlers) LotReport(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}

	rep, err := h.services.Reports.Lot(c.Request.Context(), id, date, c.Query("refresh") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rep)
}

// queryDate parses a YYYY-MM-DD query parameter, defaulting to today.
func queryDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Now().UTC(), true
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ", expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}
