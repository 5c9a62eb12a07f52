// Package gather drives the zkLighter client and persists what it
// fetches: candle and funding history into Parquet, current funding
// rates into SQLite.
package gather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"lighterdata/internal/domain"
	"lighterdata/internal/frame"
	"lighterdata/internal/store"
	"lighterdata/internal/util"
	"lighterdata/pkg/lighter"
)

// Config controls one gathering run.
type Config struct {
	Markets           []string
	CandleResolution  string
	FundingResolution string
	CountBack         int64
	RateLimitPerMin   int
}

// Gatherer fetches market data for a fixed set of markets and writes it
// to the stores. Failures for one market are logged and do not abort the
// remaining markets.
type Gatherer struct {
	client    *lighter.Client
	candles   store.CandleStore
	fundings  store.FundingStore
	snapshots store.SnapshotStore
	limiter   *util.RateLimiter
	log       *slog.Logger
	cfg       Config
}

// New creates a Gatherer. snapshots may be nil to skip the
// current-funding-rate snapshot step.
func New(client *lighter.Client, candles store.CandleStore, fundings store.FundingStore,
	snapshots store.SnapshotStore, cfg Config, log *slog.Logger) *Gatherer {
	return &Gatherer{
		client:    client,
		candles:   candles,
		fundings:  fundings,
		snapshots: snapshots,
		limiter:   util.NewRateLimiter(cfg.RateLimitPerMin),
		log:       log,
		cfg:       cfg,
	}
}

// Run gathers candle and funding history for every configured market,
// then snapshots the current funding rates. It returns an error only when
// the context is cancelled; per-market failures are logged and skipped.
func (g *Gatherer) Run(ctx context.Context) error {
	endTs := time.Now().UnixMilli()

	for _, market := range g.cfg.Markets {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := g.gatherCandles(ctx, market, endTs); err != nil {
			g.log.Error("candle gather failed", "market", market, "err", err)
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := g.gatherFundings(ctx, market, endTs); err != nil {
			g.log.Error("funding gather failed", "market", market, "err", err)
		}
	}

	if g.snapshots != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := g.snapshotFundingRates(ctx); err != nil {
			g.log.Error("funding snapshot failed", "err", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Wire payloads
// ---------------------------------------------------------------------------

type candlePayload struct {
	Candlesticks []struct {
		Timestamp int64   `json:"timestamp"`
		Open      float64 `json:"open"`
		High      float64 `json:"high"`
		Low       float64 `json:"low"`
		Close     float64 `json:"close"`
		Volume    float64 `json:"volume"`
		Trades    int64   `json:"trades"`
	} `json:"candlesticks"`
}

type fundingPayload struct {
	Fundings []struct {
		Timestamp int64   `json:"timestamp"`
		Rate      float64 `json:"rate"`
		Direction string  `json:"direction"`
	} `json:"fundings"`
}

type fundingRatesPayload struct {
	FundingRates []struct {
		MarketID int64   `json:"market_id"`
		Exchange string  `json:"exchange"`
		Rate     float64 `json:"rate"`
	} `json:"funding_rates"`
}

// ---------------------------------------------------------------------------
// Steps
// ---------------------------------------------------------------------------

func (g *Gatherer) gatherCandles(ctx context.Context, market string, endTs int64) error {
	raw, err := g.client.Candlesticks(ctx, lighter.CandleQuery{
		MarketID:     market,
		Resolution:   g.cfg.CandleResolution,
		EndTimestamp: endTs,
		CountBack:    g.cfg.CountBack,
	})
	if err != nil {
		return err
	}

	var payload candlePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decoding candlesticks: %w", err)
	}
	if len(payload.Candlesticks) == 0 {
		g.log.Info("no candles returned", "market", market)
		return nil
	}

	// Shape the rows through a frame so the timestamp column comes out
	// timezone-aware in UTC+8, matching the stored history.
	f := frame.New("timestamp", "open", "high", "low", "close", "volume", "trades")
	for _, c := range payload.Candlesticks {
		if err := f.AppendRow(c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume, c.Trades); err != nil {
			return err
		}
	}
	f, err = frame.NormalizeTimestamps(f, "timestamp", frame.Milliseconds)
	if err != nil {
		return fmt.Errorf("normalizing candle timestamps: %w", err)
	}

	candles, err := candlesFromFrame(f, market)
	if err != nil {
		return err
	}

	if err := g.candles.WriteCandles(ctx, g.cfg.CandleResolution, candles); err != nil {
		return err
	}
	g.log.Info("candles stored", "market", market, "count", len(candles))
	return nil
}

func (g *Gatherer) gatherFundings(ctx context.Context, market string, endTs int64) error {
	raw, err := g.client.FundingRates(ctx, lighter.CandleQuery{
		MarketID:     market,
		Resolution:   g.cfg.FundingResolution,
		EndTimestamp: endTs,
		CountBack:    g.cfg.CountBack,
	})
	if err != nil {
		return err
	}

	var payload fundingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decoding fundings: %w", err)
	}
	if len(payload.Fundings) == 0 {
		g.log.Info("no fundings returned", "market", market)
		return nil
	}

	f := frame.New("timestamp", "rate", "direction")
	for _, fr := range payload.Fundings {
		if err := f.AppendRow(fr.Timestamp, fr.Rate, fr.Direction); err != nil {
			return err
		}
	}
	f, err = frame.NormalizeTimestamps(f, "timestamp", frame.Milliseconds)
	if err != nil {
		return fmt.Errorf("normalizing funding timestamps: %w", err)
	}

	rates, err := fundingsFromFrame(f, market)
	if err != nil {
		return err
	}

	if err := g.fundings.WriteFundingRates(ctx, rates); err != nil {
		return err
	}
	g.log.Info("fundings stored", "market", market, "count", len(rates))
	return nil
}

func (g *Gatherer) snapshotFundingRates(ctx context.Context) error {
	raw, err := g.client.CurrentFundingRates(ctx)
	if err != nil {
		return err
	}

	var payload fundingRatesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decoding funding rates: %w", err)
	}

	takenAt := time.Now().In(frame.UTC8)
	snaps := make([]domain.FundingSnapshot, 0, len(payload.FundingRates))
	for _, fr := range payload.FundingRates {
		snaps = append(snaps, domain.FundingSnapshot{
			MarketID: strconv.FormatInt(fr.MarketID, 10),
			Exchange: fr.Exchange,
			Rate:     fr.Rate,
			TakenAt:  takenAt,
		})
	}

	if err := g.snapshots.SaveSnapshots(ctx, snaps); err != nil {
		return err
	}
	g.log.Info("funding rates snapshotted", "count", len(snaps))
	return nil
}

// ---------------------------------------------------------------------------
// Frame → domain conversion
// ---------------------------------------------------------------------------

func candlesFromFrame(f *frame.Frame, market string) ([]domain.Candle, error) {
	ts, _ := f.Column("timestamp")
	opens, _ := f.Column("open")
	highs, _ := f.Column("high")
	lows, _ := f.Column("low")
	closes, _ := f.Column("close")
	volumes, _ := f.Column("volume")
	trades, _ := f.Column("trades")

	candles := make([]domain.Candle, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		t, ok := ts[i].(time.Time)
		if !ok {
			return nil, fmt.Errorf("candle row %d: timestamp not normalized", i)
		}
		candles = append(candles, domain.Candle{
			MarketID:  market,
			Timestamp: t,
			Open:      opens[i].(float64),
			High:      highs[i].(float64),
			Low:       lows[i].(float64),
			Close:     closes[i].(float64),
			Volume:    volumes[i].(float64),
			Trades:    trades[i].(int64),
		})
	}
	return candles, nil
}

func fundingsFromFrame(f *frame.Frame, market string) ([]domain.FundingRate, error) {
	ts, _ := f.Column("timestamp")
	rates, _ := f.Column("rate")
	directions, _ := f.Column("direction")

	out := make([]domain.FundingRate, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		t, ok := ts[i].(time.Time)
		if !ok {
			return nil, fmt.Errorf("funding row %d: timestamp not normalized", i)
		}
		out = append(out, domain.FundingRate{
			MarketID:  market,
			Timestamp: t,
			Rate:      rates[i].(float64),
			Direction: directions[i].(string),
		})
	}
	return out, nil
}
