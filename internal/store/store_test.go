package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lighterdata/internal/domain"
)

func TestParquetStorePaths(t *testing.T) {
	ps := NewParquetStore("/data")

	cp := ps.candlePath("1", "1d", 2024)
	wantCandlePath := filepath.Join("/data", "1", "candles", "1d", "2024.parquet")
	if cp != wantCandlePath {
		t.Errorf("candlePath mismatch:\n  got  %s\n  want %s", cp, wantCandlePath)
	}

	fp := ps.fundingPath("2", 2023)
	wantFundingPath := filepath.Join("/data", "2", "fundings", "2023.parquet")
	if fp != wantFundingPath {
		t.Errorf("fundingPath mismatch:\n  got  %s\n  want %s", fp, wantFundingPath)
	}
}

func TestParquetStoreWriteReadCandles(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	candles := []domain.Candle{
		{
			MarketID:  "1",
			Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open:      42000,
			High:      42500,
			Low:       41800,
			Close:     42200,
			Volume:    1250.5,
			Trades:    9300,
		},
		{
			MarketID:  "1",
			Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Open:      42200,
			High:      43000,
			Low:       42000,
			Close:     42900,
			Volume:    1420.0,
			Trades:    11200,
		},
	}

	if err := ps.WriteCandles(ctx, "1d", candles); err != nil {
		t.Fatalf("WriteCandles: %v", err)
	}

	got, err := ps.ReadCandles(ctx, "1", "1d",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadCandles returned %d candles, want 2", len(got))
	}
	if got[0].Close != 42200 || got[1].Close != 42900 {
		t.Errorf("unexpected closes: %v, %v", got[0].Close, got[1].Close)
	}

	// Range filter excludes the second candle.
	got, err = ps.ReadCandles(ctx, "1", "1d",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("range-filtered read returned %d candles, want 1", len(got))
	}

	markets, err := ps.ListMarkets(ctx)
	if err != nil {
		t.Fatalf("ListMarkets: %v", err)
	}
	if len(markets) != 1 || markets[0] != "1" {
		t.Errorf("ListMarkets = %v, want [1]", markets)
	}
}

func TestParquetStoreMergeDeduplicates(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	first := []domain.Candle{{MarketID: "1", Timestamp: ts, Close: 100}}
	if err := ps.WriteCandles(ctx, "1h", first); err != nil {
		t.Fatalf("first WriteCandles: %v", err)
	}

	// Rewrite the same bucket with a corrected close; no duplicate row.
	second := []domain.Candle{{MarketID: "1", Timestamp: ts, Close: 101}}
	if err := ps.WriteCandles(ctx, "1h", second); err != nil {
		t.Fatalf("second WriteCandles: %v", err)
	}

	got, err := ps.ReadCandles(ctx, "1", "1h", ts.Add(-time.Hour), ts.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 merged candle, got %d", len(got))
	}
	if got[0].Close != 101 {
		t.Errorf("merge should prefer incoming record: close = %v, want 101", got[0].Close)
	}
}

func TestParquetStoreFundingRates(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	rates := []domain.FundingRate{
		{MarketID: "2", Timestamp: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), Rate: 0.0001, Direction: "long"},
		{MarketID: "2", Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Rate: -0.0002, Direction: "short"},
	}
	if err := ps.WriteFundingRates(ctx, rates); err != nil {
		t.Fatalf("WriteFundingRates: %v", err)
	}

	got, err := ps.ReadFundingRates(ctx, "2",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadFundingRates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadFundingRates returned %d rates, want 2", len(got))
	}
	if got[0].Rate != 0.0001 || got[1].Rate != -0.0002 {
		t.Errorf("unexpected rates: %v", got)
	}
	if got[0].Direction != "long" {
		t.Errorf("Direction = %q, want long", got[0].Direction)
	}
}

func TestSQLiteStoreSnapshots(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lighter.db")
	ss, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer ss.Close()
	ctx := context.Background()

	early := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	snaps := []domain.FundingSnapshot{
		{MarketID: "1", Exchange: "lighter", Rate: 0.0001, TakenAt: early},
		{MarketID: "1", Exchange: "lighter", Rate: 0.0003, TakenAt: late},
		{MarketID: "2", Exchange: "lighter", Rate: -0.0001, TakenAt: early},
	}
	if err := ss.SaveSnapshots(ctx, snaps); err != nil {
		t.Fatalf("SaveSnapshots: %v", err)
	}

	latest, err := ss.LatestSnapshots(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshots: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("LatestSnapshots returned %d rows, want 2", len(latest))
	}
	if latest[0].MarketID != "1" || latest[0].Rate != 0.0003 {
		t.Errorf("market 1 latest = %+v, want rate 0.0003", latest[0])
	}
	if !latest[0].TakenAt.Equal(late) {
		t.Errorf("market 1 TakenAt = %v, want %v", latest[0].TakenAt, late)
	}
	if latest[1].MarketID != "2" || latest[1].Rate != -0.0001 {
		t.Errorf("market 2 latest = %+v, want rate -0.0001", latest[1])
	}

	// Saving an empty batch is a no-op.
	if err := ss.SaveSnapshots(ctx, nil); err != nil {
		t.Errorf("SaveSnapshots(nil): %v", err)
	}
}
