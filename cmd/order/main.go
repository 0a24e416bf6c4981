// Command order validates a limit order against a live book and prints the
// request that would be handed to the exchange client. It never signs or
// posts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/johan/polymarket-desk/internal/book"
	"github.com/johan/polymarket-desk/internal/clob"
	"github.com/johan/polymarket-desk/internal/config"
	"github.com/johan/polymarket-desk/internal/gamma"
	"github.com/johan/polymarket-desk/internal/logging"
	"github.com/johan/polymarket-desk/internal/order"
	"github.com/johan/polymarket-desk/internal/pricing"
	"github.com/johan/polymarket-desk/internal/resolver"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	token := flag.String("token", "", "Token ID to trade")
	ref := flag.String("ref", "", "Market URL, slug or keyword; the first match is used")
	no := flag.Bool("no", false, "With --ref, trade the negative outcome")
	sideFlag := flag.String("side", "buy", "buy or sell")
	priceFlag := flag.String("price", "", "Limit price, strictly between 0 and 1")
	sizeFlag := flag.String("size", "", "Order size in shares")

	flag.Parse()

	if (*token == "" && *ref == "") || *priceFlag == "" || *sizeFlag == "" {
		fmt.Println("Usage: order (--token <id> | --ref <url|slug|keyword>) --side buy|sell --price <p> --size <n>")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.DefaultConfig()
		cfg.ApplyEnv(os.LookupEnv)
	}
	logger := logging.Setup(os.Stderr, cfg.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	side, err := order.ParseSide(*sideFlag)
	if err != nil {
		fail(err)
	}
	price, err := decimal.NewFromString(*priceFlag)
	if err != nil {
		fail(fmt.Errorf("%w: price: %w", order.ErrInvalidOrderParameters, err))
	}
	size, err := decimal.NewFromString(*sizeFlag)
	if err != nil {
		fail(fmt.Errorf("%w: size: %w", order.ErrInvalidOrderParameters, err))
	}

	// Reject obviously bad parameters before touching the network.
	constraints := order.Constraints{
		MinPrice: cfg.Order.MinPrice,
		MaxPrice: cfg.Order.MaxPrice,
		TickSize: cfg.Order.TickSize,
		MinSize:  cfg.Order.MinSize,
	}
	instrumentID := *token
	if instrumentID == "" {
		instrumentID = *ref
	}
	if _, err := order.NewBuilder(constraints).Build(instrumentID, side, price, size); err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inst := resolver.Instrument{ID: *token, Label: *token}
	if *token == "" {
		g := gamma.NewClient(&http.Client{Timeout: cfg.Gamma.Timeout}).WithBaseURL(cfg.Gamma.BaseURL)
		res, err := resolver.New(g, logger).Resolve(ctx, resolver.ParseReference(*ref), resolver.Options{})
		if err != nil {
			fail(err)
		}
		first, ok := res.First()
		if !ok {
			fail(fmt.Errorf("no active market matched %q", *ref))
		}
		if *no {
			first = first.Complement()
		}
		inst = first
	}

	clobClient := clob.NewClient(&http.Client{}).WithBaseURL(cfg.Clob.BaseURL)
	reference := pricing.Unavailable()
	result, err := book.NewFetcher(clobClient, cfg.Clob.BookTimeout).Fetch(ctx, inst.ID)
	if err != nil {
		logger.Warn("book unavailable, validating with configured limits only", "error", err)
	} else {
		constraints = constraints.ForBook(result.Snapshot)
		reference = pricing.Derive(result.Snapshot)
	}

	req, err := order.NewBuilder(constraints).Build(inst.ID, side, price, size)
	if err != nil {
		fail(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	err = enc.Encode(struct {
		Instrument resolver.Instrument `json:"instrument"`
		Request    order.Request       `json:"request"`
		Reference  pricing.Reference   `json:"reference"`
		TickSize   decimal.Decimal     `json:"tick_size"`
		MinSize    decimal.Decimal     `json:"min_size"`
	}{inst, req, reference, constraints.TickSize, constraints.MinSize})
	if err != nil {
		fail(fmt.Errorf("writing request: %w", err))
	}

	fmt.Fprintln(os.Stderr, "dry run: no exchange client configured, order not submitted")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
