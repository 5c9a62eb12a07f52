package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"lighterdata/internal/domain"
)

// Compile-time interface checks.
var _ CandleStore = (*ParquetStore)(nil)
var _ FundingStore = (*ParquetStore)(nil)

// ParquetStore implements CandleStore and FundingStore using Parquet files
// on disk, one file per market and year.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// CandleRecord is the Parquet schema for candle history.
type CandleRecord struct {
	MarketID  string  `parquet:"market_id"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
	Trades    int64   `parquet:"trades"`
}

// FundingRecord is the Parquet schema for funding rate history.
type FundingRecord struct {
	MarketID  string  `parquet:"market_id"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Rate      float64 `parquet:"rate"`
	Direction string  `parquet:"direction"`
}

// ---------------------------------------------------------------------------
// CandleStore implementation
// ---------------------------------------------------------------------------

// WriteCandles writes candles to Parquet files grouped by market and year.
// Each market+year combination produces a separate file at:
//
//	<DataDir>/<marketID>/candles/<resolution>/<YYYY>.parquet
//
// Existing records in a file are merged with the incoming batch and
// deduplicated by timestamp, preferring the incoming records.
func (s *ParquetStore) WriteCandles(_ context.Context, resolution string, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	type key struct {
		market string
		year   int
	}
	groups := make(map[key][]CandleRecord)
	for _, c := range candles {
		k := key{market: c.MarketID, year: c.Timestamp.Year()}
		groups[k] = append(groups[k], CandleRecord{
			MarketID:  c.MarketID,
			Timestamp: c.Timestamp.UnixMilli(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
			Trades:    c.Trades,
		})
	}

	for k, records := range groups {
		path := s.candlePath(k.market, resolution, k.year)

		existing, _ := readParquetFile[CandleRecord](path)
		merged := mergeByTimestamp(existing, records, func(r CandleRecord) int64 { return r.Timestamp })

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing candles for %s/%d: %w", k.market, k.year, err)
		}
	}
	return nil
}

// ReadCandles reads candle history for a market within [start, end].
func (s *ParquetStore) ReadCandles(_ context.Context, marketID, resolution string, start, end time.Time) ([]domain.Candle, error) {
	var candles []domain.Candle
	for year := start.Year(); year <= end.Year(); year++ {
		path := s.candlePath(marketID, resolution, year)

		records, err := readParquetFile[CandleRecord](path)
		if err != nil {
			// No file for this year.
			continue
		}

		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp)
			if inRange(ts, start, end) {
				candles = append(candles, domain.Candle{
					MarketID:  r.MarketID,
					Timestamp: ts,
					Open:      r.Open,
					High:      r.High,
					Low:       r.Low,
					Close:     r.Close,
					Volume:    r.Volume,
					Trades:    r.Trades,
				})
			}
		}
	}
	return candles, nil
}

// ListMarkets lists all markets that have data under the store root.
func (s *ParquetStore) ListMarkets(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var markets []string
	for _, e := range entries {
		if e.IsDir() {
			markets = append(markets, e.Name())
		}
	}
	sort.Strings(markets)
	return markets, nil
}

// ---------------------------------------------------------------------------
// FundingStore implementation
// ---------------------------------------------------------------------------

// WriteFundingRates writes funding history to Parquet files grouped by
// market and year at:
//
//	<DataDir>/<marketID>/fundings/<YYYY>.parquet
func (s *ParquetStore) WriteFundingRates(_ context.Context, rates []domain.FundingRate) error {
	if len(rates) == 0 {
		return nil
	}

	type key struct {
		market string
		year   int
	}
	groups := make(map[key][]FundingRecord)
	for _, r := range rates {
		k := key{market: r.MarketID, year: r.Timestamp.Year()}
		groups[k] = append(groups[k], FundingRecord{
			MarketID:  r.MarketID,
			Timestamp: r.Timestamp.UnixMilli(),
			Rate:      r.Rate,
			Direction: r.Direction,
		})
	}

	for k, records := range groups {
		path := s.fundingPath(k.market, k.year)

		existing, _ := readParquetFile[FundingRecord](path)
		merged := mergeByTimestamp(existing, records, func(r FundingRecord) int64 { return r.Timestamp })

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing fundings for %s/%d: %w", k.market, k.year, err)
		}
	}
	return nil
}

// ReadFundingRates reads funding history for a market within [start, end].
func (s *ParquetStore) ReadFundingRates(_ context.Context, marketID string, start, end time.Time) ([]domain.FundingRate, error) {
	var rates []domain.FundingRate
	for year := start.Year(); year <= end.Year(); year++ {
		path := s.fundingPath(marketID, year)

		records, err := readParquetFile[FundingRecord](path)
		if err != nil {
			continue
		}

		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp)
			if inRange(ts, start, end) {
				rates = append(rates, domain.FundingRate{
					MarketID:  r.MarketID,
					Timestamp: ts,
					Rate:      r.Rate,
					Direction: r.Direction,
				})
			}
		}
	}
	return rates, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// candlePath returns the filesystem path for a candle Parquet file.
// Layout: <dataDir>/<marketID>/candles/<resolution>/<YYYY>.parquet
func (s *ParquetStore) candlePath(marketID, resolution string, year int) string {
	return filepath.Join(s.DataDir, marketID, "candles", resolution, fmt.Sprintf("%d.parquet", year))
}

// fundingPath returns the filesystem path for a funding Parquet file.
// Layout: <dataDir>/<marketID>/fundings/<YYYY>.parquet
func (s *ParquetStore) fundingPath(marketID string, year int) string {
	return filepath.Join(s.DataDir, marketID, "fundings", fmt.Sprintf("%d.parquet", year))
}

func inRange(ts, start, end time.Time) bool {
	return (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end))
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeByTimestamp deduplicates records by timestamp, preferring incoming
// records over existing ones. Results are sorted by timestamp.
func mergeByTimestamp[T any](existing, incoming []T, ts func(T) int64) []T {
	seen := make(map[int64]T, len(existing)+len(incoming))
	for _, r := range existing {
		seen[ts(r)] = r
	}
	for _, r := range incoming {
		seen[ts(r)] = r
	}

	merged := make([]T, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return ts(merged[i]) < ts(merged[j])
	})
	return merged
}
