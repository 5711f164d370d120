package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"launchpad/internal/models"
)

const maxHistoryRows = 500

func limitQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > maxHistoryRows {
		return 100
	}
	return limit
}

// historyDB reports 503 when the service runs without a database
func (h *Handler) historyDB(c *gin.Context) bool {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade history requires a database"})
		return false
	}
	return true
}

// ListTrades returns the latest trade records of an auction, newest first
func (h *Handler) ListTrades(c *gin.Context) {
	key, ok := addressParam(c, "address")
	if !ok || !h.historyDB(c) {
		return
	}
	var records []models.TradeRecord
	err := h.db.Where("auction = ?", key.String()).
		Order("trade_time DESC").Order("id DESC").
		Limit(limitQuery(c)).
		Find(&records).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// ListSnapshots returns the periodic stat snapshots of an auction, newest first
func (h *Handler) ListSnapshots(c *gin.Context) {
	key, ok := addressParam(c, "address")
	if !ok || !h.historyDB(c) {
		return
	}
	var snapshots []models.AuctionStatSnapshot
	err := h.db.Where("auction = ?", key.String()).
		Order("snapshot_time DESC").
		Limit(limitQuery(c)).
		Find(&snapshots).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshots)
}
