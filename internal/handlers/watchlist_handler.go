package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketwatch/internal/services"
)

// WatchlistHandler handles watchlist membership requests
type WatchlistHandler struct {
	watchlistService services.WatchlistServicer
	auditService     services.AuditServicer
}

// NewWatchlistHandler creates a new WatchlistHandler
func NewWatchlistHandler(watchlistService services.WatchlistServicer, auditService services.AuditServicer) *WatchlistHandler {
	return &WatchlistHandler{watchlistService: watchlistService, auditService: auditService}
}

// AssetRefRequest represents the request payload identifying one asset by
// kind and id. asset_type is matched case-insensitively.
type AssetRefRequest struct {
	AssetType string `json:"asset_type" binding:"required,asset_kind"`
	AssetID   uint   `json:"asset_id" binding:"required"`
}

// AddAsset handles adding an asset to the caller's watchlist
// @Summary     Add asset to watchlist
// @Description Add a stock, mutual fund, or index to the authenticated user's watchlist. Adding an asset that is already present is a success, not an error.
// @Tags        watchlist
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AssetRefRequest true "Asset reference"
// @Success     200 {object} MessageResponse "Asset already in watchlist"
// @Success     201 {object} MessageResponse "Asset added to watchlist"
// @Failure     400 {object} ErrorResponse "Missing fields or invalid asset_type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Watchlist or asset not found"
// @Router      /watchlist/add-asset [post]
func (h *WatchlistHandler) AddAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssetRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	created, err := h.watchlistService.AddAsset(c.Request.Context(), userID, req.AssetType, req.AssetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "Asset already in watchlist."})
		return
	}

	h.auditService.Log(userID, "watchlist.add_asset", req.AssetType, req.AssetID, c.ClientIP(), nil)
	c.JSON(http.StatusCreated, gin.H{"message": "Asset added to watchlist."})
}

// RemoveAsset handles removing an asset from the caller's watchlist
// @Summary     Remove asset from watchlist
// @Description Remove a stock, mutual fund, or index from the authenticated user's watchlist.
// @Tags        watchlist
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AssetRefRequest true "Asset reference"
// @Success     200 {object} MessageResponse "Asset removed from watchlist"
// @Failure     400 {object} ErrorResponse "Missing fields or invalid asset_type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Watchlist, asset, or item not found"
// @Router      /watchlist/remove-asset [delete]
func (h *WatchlistHandler) RemoveAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssetRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	if err := h.watchlistService.RemoveAsset(c.Request.Context(), userID, req.AssetType, req.AssetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "watchlist.remove_asset", req.AssetType, req.AssetID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Asset removed from watchlist."})
}

// GetWatchlist handles the grouped watchlist view
// @Summary     Get watchlist
// @Description Get the authenticated user's watchlist grouped by asset kind, each item fully expanded.
// @Tags        watchlist
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.WatchlistDetail "Grouped watchlist"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No watchlist provisioned"
// @Router      /watchlist [get]
func (h *WatchlistHandler) GetWatchlist(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	detail, err := h.watchlistService.ListWatchlist(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
