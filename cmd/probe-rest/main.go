// Command probe-rest fetches and normalizes an order book from the
// Polymarket CLOB REST API and prints the derived reference price.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/johan/polymarket-desk/internal/book"
	"github.com/johan/polymarket-desk/internal/clob"
	"github.com/johan/polymarket-desk/internal/config"
	"github.com/johan/polymarket-desk/internal/dashboard"
	"github.com/johan/polymarket-desk/internal/gamma"
	"github.com/johan/polymarket-desk/internal/logging"
	"github.com/johan/polymarket-desk/internal/pricing"
	"github.com/johan/polymarket-desk/internal/resolver"
)

func main() {
	token := flag.String("token", "", "Token ID to fetch order book")
	ref := flag.String("ref", "", "Market URL, slug or keyword; the first match is used")
	no := flag.Bool("no", false, "With --ref, use the negative outcome")
	watch := flag.Bool("watch", false, "Continuously poll for updates")
	interval := flag.Duration("interval", 2*time.Second, "Poll interval (with --watch)")
	compare := flag.Bool("compare", false, "Also fetch the exchange midpoint for comparison")
	depth := flag.Int("depth", 10, "Levels per side to show")
	output := flag.String("output", "table", "Output format: table or json")
	timeout := flag.Duration("timeout", book.MaxTimeout, "Book fetch timeout (at most 5s)")

	flag.Parse()

	if *token == "" && *ref == "" {
		fmt.Println("Usage: probe-rest (--token <token_id> | --ref <url|slug|keyword>) [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  probe-rest --token 83955612... ")
		fmt.Println("  probe-rest --ref fed-decision-in-march --watch --interval 2s")
		fmt.Println("  probe-rest --token 83955612... --compare")
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := config.DefaultConfig()
	cfg.ApplyEnv(os.LookupEnv)
	logger := logging.Setup(os.Stderr, cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inst := resolver.Instrument{ID: *token, Label: *token}
	if *token == "" {
		g := gamma.NewClient(&http.Client{Timeout: 30 * time.Second}).WithBaseURL(cfg.Gamma.BaseURL)
		res, err := resolver.New(g, logger).Resolve(ctx, resolver.ParseReference(*ref), resolver.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		first, ok := res.First()
		if !ok {
			fmt.Fprintf(os.Stderr, "No active market matched %q\n", *ref)
			os.Exit(1)
		}
		if *no {
			first = first.Complement()
		}
		inst = first
	}

	client := clob.NewClient(&http.Client{}).WithBaseURL(cfg.Clob.BaseURL)
	fetcher := book.NewFetcher(client, *timeout)

	if !*watch {
		if err := show(ctx, fetcher, client, inst, *depth, *output, *compare); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Watching %s... (Ctrl+C to stop)\n\n", inst.Label)
	for {
		if err := show(ctx, fetcher, client, inst, *depth, *output, *compare); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] Error: %v\n", time.Now().Format(time.TimeOnly), err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func show(ctx context.Context, fetcher *book.Fetcher, client *clob.Client, inst resolver.Instrument, depth int, format string, compare bool) error {
	res, err := fetcher.Fetch(ctx, inst.ID)
	if err != nil {
		return err
	}

	var exchangeMid string
	if compare {
		mctx, cancel := context.WithTimeout(ctx, book.MaxTimeout)
		exchangeMid, err = client.FetchMidpoint(mctx, inst.ID)
		cancel()
		if err != nil {
			exchangeMid = "error: " + err.Error()
		}
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Status      string            `json:"status"`
			Book        book.Snapshot     `json:"book"`
			Reference   pricing.Reference `json:"reference"`
			Source      string            `json:"source"`
			ExchangeMid string            `json:"exchange_mid,omitempty"`
		}{
			Status:      res.Status.String(),
			Book:        res.Snapshot,
			Reference:   pricing.Derive(res.Snapshot),
			Source:      pricing.Derive(res.Snapshot).Source().String(),
			ExchangeMid: exchangeMid,
		})
	}

	if res.Status == book.StatusEmpty {
		dashboard.RenderStatus(os.Stdout, inst.Label, "empty book, no reference price")
	} else if err := dashboard.Render(os.Stdout, inst, res.Snapshot, depth); err != nil {
		return err
	}
	if compare {
		fmt.Printf("exchange midpoint: %s\n", exchangeMid)
	}
	fmt.Println()
	return nil
}
