package api

import (
	"encoding/json"
	"net/http"
	"time"

	domsvc "StockPulse/internal/domain/service"
	icache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/metrics"
	"StockPulse/internal/service/ratelimit"
	applogger "StockPulse/pkg/logger"
)

// PredictHandler serves the detector endpoints over plain net/http with
// response caching and per-client rate limiting. The echo handler owns
// POST /api/predict; these are the cheap read paths.
type PredictHandler struct {
	engine domsvc.Engine
	cache  icache.BytesCache
	rl     *ratelimit.Limiter
	l      *applogger.Logger
}

func NewPredictHandler(engine domsvc.Engine) *PredictHandler {
	metrics.Register()
	return &PredictHandler{engine: engine, rl: ratelimit.New()}
}

func (h *PredictHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *PredictHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *PredictHandler) Rebound() http.HandlerFunc {
	return h.detectorEndpoint("rebound", func(r *http.Request, symbol string) (interface{}, error) {
		return h.engine.Rebound(r.Context(), symbol)
	})
}

func (h *PredictHandler) Correction() http.HandlerFunc {
	return h.detectorEndpoint("correction", func(r *http.Request, symbol string) (interface{}, error) {
		res, err := h.engine.Correction(r.Context(), symbol)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return map[string]bool{"triggered": false}, nil
		}
		return res, nil
	})
}

func (h *PredictHandler) detectorEndpoint(endpoint string, fetch func(*http.Request, string) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn(endpoint + " missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		if !h.rl.Allow(r.RemoteAddr+":"+endpoint, 5, 2) {
			if h.l != nil {
				h.l.Warn(endpoint+" rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		cacheKey := endpoint + ":" + symbol
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn(endpoint+" cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn(endpoint+" write_error", applogger.Error(err))
				}
				return
			}
		}

		res, err := fetch(r, symbol)
		if err != nil {
			metrics.EngineErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error(endpoint+" error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error(endpoint+" marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil && h.l != nil {
				h.l.Warn(endpoint+" cache_set_error", applogger.Error(err))
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn(endpoint+" write_error", applogger.Error(err))
		}
	}
}
