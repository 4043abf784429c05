package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/usecase"
	xhttp "MandiPulse/pkg/http"
	applogger "MandiPulse/pkg/logger"
)

// PriceHandler exposes the price engine over HTTP.
type PriceHandler struct {
	engine *usecase.PriceEngine
	live   *LiveHub // optional
	l      *applogger.Logger
}

func NewPriceHandler(engine *usecase.PriceEngine, live *LiveHub, l *applogger.Logger) *PriceHandler {
	return &PriceHandler{engine: engine, live: live, l: l}
}

func (h *PriceHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/api")
	g.GET("/prices", h.GetPrices)
	g.GET("/prices/latest", h.GetLatestPrice)
	g.GET("/prices/trend", h.GetPriceTrend)
	g.GET("/prices/stats", h.GetPriceStatistics)
	g.GET("/markets", h.GetMarkets)
	g.GET("/forecast", h.GetForecast)
	if h.live != nil {
		g.GET("/prices/live", h.live.Serve)
	}
}

type pricesRequest struct {
	Commodity string `query:"commodity" validate:"required,min=1,max=100"`
	State     string `query:"state" validate:"omitempty,max=100"`
	Market    string `query:"market" validate:"omitempty,max=100"`
	Limit     int    `query:"limit" default:"100" validate:"min=1,max=1000"`
}

type trendRequest struct {
	Commodity string `query:"commodity" validate:"required,min=1,max=100"`
	State     string `query:"state" validate:"omitempty,max=100"`
	Days      int    `query:"days" default:"30" validate:"min=1,max=90"`
}

type forecastRequest struct {
	Commodity string `query:"commodity" validate:"required,min=1,max=100"`
	State     string `query:"state" validate:"omitempty,max=100"`
	Market    string `query:"market" validate:"omitempty,max=100"`
	Days      int    `query:"days" default:"7" validate:"min=2,max=90"`
	// Base is used to build a synthetic forecast when no price data exists.
	Base float64 `query:"base" validate:"omitempty,gt=0"`
}

func (h *PriceHandler) GetPrices(c echo.Context) error {
	var req pricesRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, err := h.engine.GetPrices(c.Request().Context(), req.Commodity, req.State, req.Market, req.Limit)
	if err != nil {
		return h.engineError(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *PriceHandler) GetLatestPrice(c echo.Context) error {
	var req pricesRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	latest, err := h.engine.GetLatestPrice(c.Request().Context(), req.Commodity, req.State, req.Market)
	if err != nil {
		return h.engineError(c, err)
	}
	return xhttp.SuccessResponse(c, latest)
}

func (h *PriceHandler) GetPriceTrend(c echo.Context) error {
	var req trendRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	points, err := h.engine.GetPriceTrend(c.Request().Context(), req.Commodity, req.State, req.Days)
	if err != nil {
		return h.engineError(c, err)
	}
	return xhttp.SuccessResponse(c, points)
}

func (h *PriceHandler) GetPriceStatistics(c echo.Context) error {
	var req pricesRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	stats, err := h.engine.GetPriceStatistics(c.Request().Context(), req.Commodity, req.State, req.Market)
	if err != nil {
		return h.engineError(c, err)
	}
	return xhttp.SuccessResponse(c, stats)
}

func (h *PriceHandler) GetMarkets(c echo.Context) error {
	var req pricesRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	markets, err := h.engine.GetMarketsForCommodity(c.Request().Context(), req.Commodity, req.State)
	if err != nil {
		return h.engineError(c, err)
	}
	return xhttp.SuccessResponse(c, markets)
}

func (h *PriceHandler) GetForecast(c echo.Context) error {
	var req forecastRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	result, err := h.engine.Forecast(c.Request().Context(), req.Commodity, req.State, req.Market, req.Days, req.Base)
	if err != nil {
		return h.engineError(c, err)
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *PriceHandler) Healthz(c echo.Context) error {
	if err := h.engine.Health(c.Request().Context()); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("store unavailable"))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// engineError maps domain errors onto HTTP statuses: no data anywhere is a
// 404, an upstream failure with nothing cached is a 502, anything else 500.
func (h *PriceHandler) engineError(c echo.Context, err error) error {
	var nde *models.NoDataError
	if errors.As(err, &nde) {
		var ue *models.UpstreamError
		if errors.As(err, &ue) {
			return xhttp.AppErrorResponse(c, xhttp.BadGatewayError(nde.Error()))
		}
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no price data for %q", nde.Commodity))
	}

	h.l.Error("price request failed", applogger.Error(err))
	return xhttp.InternalServerErrorResponse(c)
}
