package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketwatch/internal/services"
)

// MarketDataHandler handles grouped market-data requests
type MarketDataHandler struct {
	marketDataService services.MarketDataServicer
}

// NewMarketDataHandler creates a new MarketDataHandler
func NewMarketDataHandler(marketDataService services.MarketDataServicer) *MarketDataHandler {
	return &MarketDataHandler{marketDataService: marketDataService}
}

// GetMarketData handles the grouped market-data read
// @Summary     Get grouped market data
// @Description Get one or more market-data categories in a single response. Categories: indian_stocks, us_stocks, indian_indexes, global_indexes, mutual_funds, watchlists. Unrecognized names are ignored. Authentication is optional; it only affects watchlist flags and the watchlists category.
// @Tags        market-data
// @Produce     json
// @Param       data_type query string false "Comma-separated category names (default indian_stocks)"
// @Success     200 {object} map[string]interface{} "Response keyed by recognized category"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /market-data [get]
func (h *MarketDataHandler) GetMarketData(c *gin.Context) {
	userID := optionalUserID(c)
	dataTypes := c.Query("data_type")

	response, err := h.marketDataService.GetMarketData(c.Request.Context(), userID, dataTypes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
