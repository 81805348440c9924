package api

import (
	"time"

	models "StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"
	xutil "StockPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// PredictEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type PredictEchoHandler struct {
	logger *xlogger.Logger
	engine domsvc.Engine
	store  domrepo.Storage
	plain  *PredictHandler
}

func NewPredictEchoHandler(logger *xlogger.Logger, engine domsvc.Engine) *PredictEchoHandler {
	return &PredictEchoHandler{logger: logger, engine: engine}
}

// SetPlainHandler mounts the cached, rate-limited detector endpoints at the
// root alongside the validated /api surface.
func (h *PredictEchoHandler) SetPlainHandler(p *PredictHandler) { h.plain = p }

// SetStorage enables the stored-prediction query endpoint.
func (h *PredictEchoHandler) SetStorage(s domrepo.Storage) { h.store = s }

func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predict", h.Predict)
	g.GET("/rebound", h.Rebound)
	g.GET("/correction", h.Correction)
	g.GET("/predictions", h.Predictions)

	if h.plain != nil {
		e.GET("/rebound", echo.WrapHandler(h.plain.Rebound()))
		e.GET("/correction", echo.WrapHandler(h.plain.Correction()))
	}
}

func (h *PredictEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.Predict(c.Request().Context(), domsvc.PredictionInput{
		Symbol:   req.Symbol,
		Features: req.ToFeatureSet(),
		Bars:     req.ToBars(),
		Articles: req.ToArticles(),
	})
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictEchoHandler) Rebound(c echo.Context) error {
	req := &models.ReboundRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.Rebound(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("rebound usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictEchoHandler) Correction(c echo.Context) error {
	req := &models.CorrectionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.Correction(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("correction usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		// no pattern fired; an empty body would read as an error
		return xhttp.SuccessResponse(c, map[string]any{"triggered": false})
	}
	return xhttp.SuccessResponse(c, res)
}

// Predictions returns stored results for a symbol within a time window.
// Defaults to the last 7 days, newest first, 50 rows.
func (h *PredictEchoHandler) Predictions(c echo.Context) error {
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("prediction storage is not enabled"))
	}
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required",
		}})
	}

	now := time.Now().UTC()
	from := xutil.ParseTimeDefault(c.QueryParam("from"), now.AddDate(0, 0, -7))
	to := xutil.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xutil.ParseIntDefault(c.QueryParam("limit"), 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := h.store.Query(c.Request().Context(), symbol, from, to, limit)
	if err != nil {
		h.logger.Error("predictions query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
