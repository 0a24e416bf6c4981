// Command probe-ws streams normalized books and reference prices from the
// Polymarket CLOB WebSocket feed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/johan/polymarket-desk/internal/config"
	"github.com/johan/polymarket-desk/internal/logging"
	"github.com/johan/polymarket-desk/internal/pricing"
	"github.com/johan/polymarket-desk/internal/ws"
)

func main() {
	tokens := flag.String("tokens", "", "Comma-separated list of token IDs to subscribe")
	duration := flag.Duration("duration", 0, "How long to run (0 = until Ctrl+C)")
	outputFile := flag.String("output", "", "Raw message output file path (empty = none)")
	verbose := flag.Bool("v", false, "Log price_change events too")

	flag.Parse()

	if *tokens == "" {
		fmt.Println("Usage: probe-ws --tokens <id1,id2,...> [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  probe-ws --tokens 83955612...,46434110...")
		fmt.Println("  probe-ws --tokens 83955612... --duration 30s")
		fmt.Println("  probe-ws --tokens 83955612... --output data.jsonl")
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := config.DefaultConfig()
	cfg.ApplyEnv(os.LookupEnv)
	logger := logging.Setup(os.Stderr, cfg.Logging)

	var tokenList []string
	for _, t := range strings.Split(*tokens, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokenList = append(tokenList, t)
		}
	}

	var out *os.File
	if *outputFile != "" {
		var err error
		out, err = os.Create(*outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	var messageCount, bookCount, priceChangeCount atomic.Int64

	handler := func(messages []ws.Message) {
		for i := range messages {
			msg := &messages[i]
			messageCount.Add(1)

			switch msg.EventType {
			case ws.EventTypeBook:
				bookCount.Add(1)
				snap, err := msg.Snapshot(time.Now())
				if err != nil {
					logger.Warn("bad book event", "asset", truncateID(msg.AssetID), "error", err)
					break
				}
				bid, _ := snap.BestBid()
				ask, _ := snap.BestAsk()
				fmt.Printf("[%s] %s bid=%s ask=%s ref=%s (%s)\n",
					time.Now().Format(time.TimeOnly), truncateID(msg.AssetID),
					bid.Price, ask.Price, pricing.Derive(snap), pricing.Derive(snap).Source())
			case ws.EventTypePriceChange:
				priceChangeCount.Add(1)
				if *verbose {
					fmt.Printf("[%s] price_change: market=%s changes=%d\n",
						time.Now().Format(time.TimeOnly), truncateID(msg.Market), len(msg.PriceChanges))
				}
			}

			if out != nil {
				data, _ := json.Marshal(msg.Raw)
				fmt.Fprintln(out, string(data))
			}
		}
	}

	client := ws.NewClient(handler).WithLogger(logger)
	if cfg.WebSocket.URL != "" {
		client.WithURL(cfg.WebSocket.URL)
	}

	fmt.Fprintf(os.Stderr, "Connecting to WebSocket...\n")
	if err := client.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Fprintf(os.Stderr, "Subscribing to %d tokens...\n", len(tokenList))
	if err := client.Subscribe(tokenList); err != nil {
		fmt.Fprintf(os.Stderr, "Error subscribing: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Listening... (Ctrl+C to stop)\n\n")

	<-ctx.Done()

	fmt.Fprintf(os.Stderr, "\n--- Summary ---\n")
	fmt.Fprintf(os.Stderr, "Total messages:  %d\n", messageCount.Load())
	fmt.Fprintf(os.Stderr, "Book snapshots:  %d\n", bookCount.Load())
	fmt.Fprintf(os.Stderr, "Price changes:   %d\n", priceChangeCount.Load())

	if *outputFile != "" {
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", *outputFile)
	}
}

func truncateID(id string) string {
	if len(id) > 20 {
		return id[:20] + "..."
	}
	return id
}
