package http

import (
	"net/http"

	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/internal/watcher/repository"
	"golang-twse-watcher/internal/watcher/service"
	"golang-twse-watcher/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WatchHandler handles HTTP requests for the dashboard and system status.
type WatchHandler struct {
	watcher service.WatcherService
	stocks  repository.TrackedStockRepository
	logger  *logger.Logger
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(watcher service.WatcherService, stocks repository.TrackedStockRepository, logger *logger.Logger) *WatchHandler {
	return &WatchHandler{watcher: watcher, stocks: stocks, logger: logger}
}

// RegisterRoutes registers the dashboard routes to the Echo group.
func (h *WatchHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.GetDashboard)
	g.GET("/status", h.GetStatus)
}

// GetDashboard godoc
// @Summary Get the watchlist dashboard
// @Description List every tracked stock merged with its latest market snapshot
// @Tags dashboard
// @Produce  json
// @Success 200 {array} dto.DashboardEntry
// @Failure 500 {object} dto.ErrorResponse
// @Router /dashboard [get]
func (h *WatchHandler) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	stocks, err := h.stocks.Find(ctx, repository.TrackedStockFilter{})
	if err != nil {
		h.logger.Error("Failed to load watchlist", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load watchlist"})
	}

	entries := make([]dto.DashboardEntry, 0, len(stocks))
	if len(stocks) == 0 {
		return c.JSON(http.StatusOK, entries)
	}

	symbols := make([]string, 0, len(stocks))
	seen := make(map[string]bool, len(stocks))
	for _, stock := range stocks {
		if seen[stock.Code] {
			continue
		}
		seen[stock.Code] = true
		symbols = append(symbols, stock.Code)
	}

	// A quote failure degrades the dashboard to watchlist-only rather than
	// failing the whole request.
	bySymbol := make(map[string]dto.Quote)
	quotes, err := h.watcher.FetchStockData(ctx, symbols)
	if err != nil {
		h.logger.Warn("Dashboard serving without market data", logger.ErrorField(err))
	} else {
		for _, q := range quotes {
			bySymbol[q.Symbol] = q
		}
	}

	for _, stock := range stocks {
		entry := dto.DashboardEntry{Stock: stock}
		if q, ok := bySymbol[stock.Code]; ok {
			quote := q
			entry.Market = &quote
		}
		entries = append(entries, entry)
	}
	return c.JSON(http.StatusOK, entries)
}

// GetStatus godoc
// @Summary Get cache and trading-session status
// @Tags dashboard
// @Produce  json
// @Success 200 {object} dto.SystemStatus
// @Router /status [get]
func (h *WatchHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.watcher.GetSystemStatus())
}
