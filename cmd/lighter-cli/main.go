package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"lighterdata/internal/util"
	"lighterdata/pkg/lighter"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: lighter-cli <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version                      Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  health                       Check API reachability\n")
	fmt.Fprintf(os.Stderr, "  account-index <l1-address>   Look up account index by L1 address\n")
	fmt.Fprintf(os.Stderr, "  account <by> <value>         Fetch account by \"index\" or \"l1_address\"\n")
	fmt.Fprintf(os.Stderr, "  orderbook [market-id]        Orderbook metadata, all markets when omitted\n")
	fmt.Fprintf(os.Stderr, "  candles [options]            Fetch candlesticks\n")
	fmt.Fprintf(os.Stderr, "  fundings [options]           Fetch funding rate history\n")
	fmt.Fprintf(os.Stderr, "  funding-rates                Current funding rates for all markets\n")
	fmt.Fprintf(os.Stderr, "\nZKLIGHTER_BASE_URL and REQUEST_TIMEOUT override the defaults.\n")
}

func newClient() *lighter.Client {
	logger := util.NewLogger(os.Getenv("LOG_LEVEL"), "text")
	return lighter.New(lighter.ConfigFromEnv(), logger)
}

func printJSON(payload []byte, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(payload))
}

// queryFlags parses the shared candles/fundings flag set.
func queryFlags(name string, args []string, defaultResolution string) lighter.CandleQuery {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	market := fs.String("market", "1", "market id")
	resolution := fs.String("resolution", defaultResolution, "bucket resolution")
	start := fs.Int64("start", 0, "start timestamp (ms)")
	end := fs.Int64("end", 0, "end timestamp (ms), 0 = open-ended default")
	countBack := fs.Int64("count-back", 10, "number of buckets to fetch")
	fs.Parse(args)

	return lighter.CandleQuery{
		MarketID:       *market,
		Resolution:     *resolution,
		StartTimestamp: *start,
		EndTimestamp:   *end,
		CountBack:      *countBack,
	}
}

func main() {
	flag.Usage = usage

	// .env is optional; real environment always wins.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "version":
		fmt.Printf("lighter-cli %s\n", version)

	case "health":
		c := newClient()
		if c.HealthCheck(ctx) {
			fmt.Println("ok")
		} else {
			fmt.Println("unreachable")
			os.Exit(1)
		}

	case "account-index":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: lighter-cli account-index <l1-address>")
			os.Exit(1)
		}
		printJSON(newClient().AccountIndex(ctx, os.Args[2]))

	case "account":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "usage: lighter-cli account <by> <value>")
			os.Exit(1)
		}
		printJSON(newClient().Account(ctx, os.Args[2], os.Args[3]))

	case "orderbook":
		marketID := ""
		if len(os.Args) > 2 {
			marketID = os.Args[2]
		}
		printJSON(newClient().OrderbookDetails(ctx, marketID))

	case "candles":
		q := queryFlags("candles", os.Args[2:], "1d")
		printJSON(newClient().Candlesticks(ctx, q))

	case "fundings":
		q := queryFlags("fundings", os.Args[2:], "1h")
		printJSON(newClient().FundingRates(ctx, q))

	case "funding-rates":
		printJSON(newClient().CurrentFundingRates(ctx))

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}
