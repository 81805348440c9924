package quotes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"StockPulse/internal/domain/models"
	xhttp "StockPulse/pkg/http"
)

// candleResponse is the provider's column-oriented daily candle payload.
type candleResponse struct {
	Open       []float64 `json:"o"`
	High       []float64 `json:"h"`
	Low        []float64 `json:"l"`
	Close      []float64 `json:"c"`
	Volume     []float64 `json:"v"`
	Timestamps []int64   `json:"t"`
	Status     string    `json:"s"`
}

// RESTHistory fetches daily OHLCV candles over the provider's REST API.
// The streaming feed only carries ticks, so fresh deployments backfill
// their bar history from here.
type RESTHistory struct {
	client  *xhttp.Client
	baseURL string
	apiKey  string
}

func NewRESTHistory(baseURL, apiKey string) *RESTHistory {
	return &RESTHistory{
		client:  xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// DailyBars returns up to days of daily candles for symbol, oldest first.
func (h *RESTHistory) DailyBars(ctx context.Context, symbol string, days int) ([]models.PriceBar, error) {
	to := time.Now().Unix()
	from := to - int64(days)*86400

	var cr candleResponse
	err := h.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    h.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from, 10)},
			"to":         {strconv.FormatInt(to, 10)},
			"token":      {h.apiKey},
		},
	}, &cr)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	if cr.Status != "ok" {
		return nil, fmt.Errorf("fetch candles %s: status %q", symbol, cr.Status)
	}

	n := len(cr.Timestamps)
	if len(cr.Close) < n {
		n = len(cr.Close)
	}
	bars := make([]models.PriceBar, 0, n)
	for i := 0; i < n; i++ {
		bar := models.PriceBar{
			Date:  time.Unix(cr.Timestamps[i], 0).UTC().Truncate(24 * time.Hour),
			Close: cr.Close[i],
		}
		if i < len(cr.Open) {
			bar.Open = cr.Open[i]
		}
		if i < len(cr.High) {
			bar.High = cr.High[i]
		}
		if i < len(cr.Low) {
			bar.Low = cr.Low[i]
		}
		if i < len(cr.Volume) {
			bar.Volume = cr.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
