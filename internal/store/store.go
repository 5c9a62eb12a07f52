// Package store defines storage interfaces for persisting and retrieving
// gathered market data, with Parquet and SQLite implementations.
package store

import (
	"context"
	"time"

	"lighterdata/internal/domain"
)

// CandleStore persists and retrieves OHLCV candle history.
type CandleStore interface {
	// WriteCandles persists a batch of candles fetched at one resolution.
	WriteCandles(ctx context.Context, resolution string, candles []domain.Candle) error

	// ReadCandles returns candles for a market within [start, end].
	ReadCandles(ctx context.Context, marketID, resolution string, start, end time.Time) ([]domain.Candle, error)

	// ListMarkets returns all distinct markets with stored data.
	ListMarkets(ctx context.Context) ([]string, error)
}

// FundingStore persists and retrieves historical funding rates.
type FundingStore interface {
	// WriteFundingRates persists a batch of funding rate buckets.
	WriteFundingRates(ctx context.Context, rates []domain.FundingRate) error

	// ReadFundingRates returns funding rates for a market within [start, end].
	ReadFundingRates(ctx context.Context, marketID string, start, end time.Time) ([]domain.FundingRate, error)
}

// SnapshotStore persists point-in-time current funding rates.
type SnapshotStore interface {
	// SaveSnapshots inserts a batch of funding snapshots.
	SaveSnapshots(ctx context.Context, snaps []domain.FundingSnapshot) error

	// LatestSnapshots returns the most recent snapshot per market and
	// exchange.
	LatestSnapshots(ctx context.Context) ([]domain.FundingSnapshot, error)
}
