package models

import "time"

// Requests for engine HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Symbol   string             `json:"symbol" validate:"required"`
	Features map[string]float64 `json:"features" validate:"required,min=1"`
	Metadata map[string]string  `json:"metadata"`
	News     []NewsItem         `json:"news" validate:"dive"`
	Bars     []BarItem          `json:"bars" validate:"dive"`
}

type NewsItem struct {
	Title          string    `json:"title" validate:"required"`
	Description    string    `json:"description"`
	PublishedAt    time.Time `json:"published_at"`
	SentimentScore float64   `json:"sentiment_score" validate:"gte=-1,lte=1"`
}

type BarItem struct {
	Date   time.Time `json:"date" validate:"required"`
	Open   float64   `json:"open" validate:"gt=0"`
	High   float64   `json:"high" validate:"gt=0"`
	Low    float64   `json:"low" validate:"gt=0"`
	Close  float64   `json:"close" validate:"gt=0"`
	Volume float64   `json:"volume" validate:"gte=0"`
}

type ReboundRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type CorrectionRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

// ToFeatureSet assembles a FeatureSet from the transport shape.
func (r PredictRequest) ToFeatureSet() FeatureSet {
	f := NewFeatureSet()
	for k, v := range r.Features {
		f.Values[k] = v
	}
	for k, v := range r.Metadata {
		f.Tags[k] = v
	}
	if r.Symbol != "" {
		f.Tags["symbol"] = r.Symbol
	}
	return f
}

// ToArticles converts the news payload to domain articles.
func (r PredictRequest) ToArticles() []NewsArticle {
	out := make([]NewsArticle, len(r.News))
	for i, n := range r.News {
		out[i] = NewsArticle{
			Title:          n.Title,
			Description:    n.Description,
			PublishedAt:    n.PublishedAt,
			SentimentScore: n.SentimentScore,
		}
	}
	return out
}

// ToBars converts the bar payload to domain bars.
func (r PredictRequest) ToBars() []PriceBar {
	out := make([]PriceBar, len(r.Bars))
	for i, b := range r.Bars {
		out[i] = PriceBar{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return out
}
