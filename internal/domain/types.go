// Package domain defines the market-data rows shared by the client
// decoders, the stores, and the gather pipeline.
package domain

import "time"

// Candle is one OHLCV bucket for a perpetual market.
type Candle struct {
	MarketID  string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Trades    int64
}

// FundingRate is one historical funding bucket for a market.
type FundingRate struct {
	MarketID  string
	Timestamp time.Time
	Rate      float64
	Direction string // "long" pays "short" or vice versa
}

// FundingSnapshot is the funding rate of one market on one exchange at a
// single point in time, as reported by the current-funding-rates endpoint.
type FundingSnapshot struct {
	MarketID string
	Exchange string
	Rate     float64
	TakenAt  time.Time
}
