package http

import (
	"net/http"
	"strconv"

	"golang-twse-watcher/internal/entity"
	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/internal/watcher/repository"
	"golang-twse-watcher/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StockHandler handles HTTP requests for the watchlist.
type StockHandler struct {
	stocks repository.TrackedStockRepository
	logger *logger.Logger
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stocks repository.TrackedStockRepository, logger *logger.Logger) *StockHandler {
	return &StockHandler{stocks: stocks, logger: logger}
}

// RegisterRoutes registers the watchlist routes to the Echo group.
func (h *StockHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateStock)
	g.GET("", h.GetStocks)
	g.GET("/:id", h.GetStockByID)
	g.PATCH("/:id", h.UpdateStock)
	g.DELETE("/:id", h.DeleteStock)
}

// CreateStock godoc
// @Summary Add a stock to the watchlist
// @Description Add a stock with optional target prices to the watchlist
// @Tags stocks
// @Accept  json
// @Produce  json
// @Param   stock  body    dto.CreateTrackedStockRequest   true    "Stock to track"
// @Success 201 {object} entity.TrackedStock
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks [post]
func (h *StockHandler) CreateStock(c echo.Context) error {
	var req dto.CreateTrackedStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Stock code is required"})
	}

	source := entity.SourceUser
	if req.Source != "" {
		source = entity.StockSource(req.Source)
	}

	stock := entity.TrackedStock{
		Code:            req.Code,
		Support:         req.Support,
		ShortTermProfit: req.ShortTermProfit,
		WaveProfit:      req.WaveProfit,
		SwapRef:         req.SwapRef,
		CurrentPrice:    req.CurrentPrice,
		Source:          source,
		IsFavorite:      req.IsFavorite,
		Extraction:      req.Extraction,
	}
	if err := h.stocks.Create(c.Request().Context(), &stock); err != nil {
		h.logger.Error("Failed to create tracked stock", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create stock"})
	}

	return c.JSON(http.StatusCreated, stock)
}

// GetStocks godoc
// @Summary List tracked stocks
// @Description List tracked stocks, optionally filtered by code, source or favorite flag
// @Tags stocks
// @Produce  json
// @Param   code        query   string  false   "Stock code"
// @Param   source      query   string  false   "Source (user or system)"
// @Param   is_favorite query   bool    false   "Favorite flag"
// @Success 200 {array} entity.TrackedStock
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks [get]
func (h *StockHandler) GetStocks(c echo.Context) error {
	var filter repository.TrackedStockFilter
	if code := c.QueryParam("code"); code != "" {
		filter.Code = &code
	}
	if source := c.QueryParam("source"); source != "" {
		s := entity.StockSource(source)
		filter.Source = &s
	}
	if fav := c.QueryParam("is_favorite"); fav != "" {
		parsed, err := strconv.ParseBool(fav)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid is_favorite value"})
		}
		filter.IsFavorite = &parsed
	}

	stocks, err := h.stocks.Find(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list tracked stocks", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list stocks"})
	}
	return c.JSON(http.StatusOK, stocks)
}

// GetStockByID godoc
// @Summary Get a tracked stock by its ID
// @Tags stocks
// @Produce  json
// @Param   id  path    int true    "Stock ID"
// @Success 200 {object} entity.TrackedStock
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /stocks/{id} [get]
func (h *StockHandler) GetStockByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid stock ID"})
	}

	stock, err := h.stocks.FindByID(c.Request().Context(), uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Stock not found"})
	}
	return c.JSON(http.StatusOK, stock)
}

// UpdateStock godoc
// @Summary Update a tracked stock
// @Description Apply a partial update to a tracked stock's targets
// @Tags stocks
// @Accept  json
// @Produce  json
// @Param   id     path    int true    "Stock ID"
// @Param   stock  body    dto.UpdateTrackedStockRequest   true    "Fields to update"
// @Success 200 {object} entity.TrackedStock
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks/{id} [patch]
func (h *StockHandler) UpdateStock(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid stock ID"})
	}

	var req dto.UpdateTrackedStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	fields := map[string]interface{}{}
	if req.Support != nil {
		fields["support"] = *req.Support
	}
	if req.ShortTermProfit != nil {
		fields["short_term_profit"] = *req.ShortTermProfit
	}
	if req.WaveProfit != nil {
		fields["wave_profit"] = *req.WaveProfit
	}
	if req.SwapRef != nil {
		fields["swap_ref"] = *req.SwapRef
	}
	if req.CurrentPrice != nil {
		fields["current_price"] = *req.CurrentPrice
	}
	if req.IsFavorite != nil {
		fields["is_favorite"] = *req.IsFavorite
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No fields to update"})
	}

	if err := h.stocks.UpdateFields(c.Request().Context(), uint(id), fields); err != nil {
		h.logger.Error("Failed to update tracked stock", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update stock"})
	}

	stock, err := h.stocks.FindByID(c.Request().Context(), uint(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load updated stock"})
	}
	return c.JSON(http.StatusOK, stock)
}

// DeleteStock godoc
// @Summary Remove a stock from the watchlist
// @Tags stocks
// @Produce  json
// @Param   id  path    int true    "Stock ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks/{id} [delete]
func (h *StockHandler) DeleteStock(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid stock ID"})
	}

	if err := h.stocks.Delete(c.Request().Context(), uint(id)); err != nil {
		h.logger.Error("Failed to delete tracked stock", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete stock"})
	}
	return c.NoContent(http.StatusNoContent)
}
