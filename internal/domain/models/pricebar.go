package models

import "time"

// PriceBar is one daily OHLCV record, ordered by date ascending when passed
// to the pattern detector.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is a live price tick from the streaming feed.
type Quote struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}
