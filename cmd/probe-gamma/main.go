// Command probe-gamma resolves a market reference against the Polymarket
// Gamma API and lists the instruments it maps to.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/johan/polymarket-desk/internal/config"
	"github.com/johan/polymarket-desk/internal/gamma"
	"github.com/johan/polymarket-desk/internal/logging"
	"github.com/johan/polymarket-desk/internal/resolver"
)

func main() {
	ref := flag.String("ref", "", "Market URL, slug or search keyword")
	hourly := flag.Bool("hourly", false, "Resolve the current generated hourly slug")
	at := flag.String("at", "", "With --hourly, resolve the hour containing this RFC 3339 time")
	prefix := flag.String("prefix", "", "Hourly slug prefix (default from config)")
	inactive := flag.Bool("inactive", false, "Include inactive and closed markets")
	tag := flag.String("tag", "", "List active events for a tag slug instead of resolving")
	limit := flag.Int("limit", 10, "Maximum events with --tag")
	output := flag.String("output", "table", "Output format: table or json")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")

	flag.Parse()

	if *ref == "" && !*hourly && *tag == "" {
		fmt.Println("Usage: probe-gamma [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  probe-gamma --ref https://polymarket.com/event/fed-decision-in-march")
		fmt.Println("  probe-gamma --ref \"bitcoin up or down\"")
		fmt.Println("  probe-gamma --hourly --at 2026-01-18T04:00:00-05:00")
		fmt.Println("  probe-gamma --tag crypto --output json")
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := config.DefaultConfig()
	cfg.ApplyEnv(os.LookupEnv)
	logger := logging.Setup(os.Stderr, cfg.Logging)

	client := gamma.NewClient(&http.Client{Timeout: *timeout}).WithBaseURL(cfg.Gamma.BaseURL)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *tag != "" {
		active := true
		events, err := client.FetchEvents(ctx, &gamma.Filter{Active: &active, TagSlug: *tag, Limit: *limit})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		outputEvents(events, *output)
		return
	}

	reference := resolver.ParseReference(*ref)
	if *hourly {
		h := cfg.Resolver.Hourly
		if *prefix != "" {
			h.Prefix = *prefix
		}
		tpl, err := resolver.NewSlugTemplate(h.Prefix, h.Timezone, h.Suffix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		when := time.Now()
		if *at != "" {
			if when, err = time.Parse(time.RFC3339, *at); err != nil {
				fmt.Fprintf(os.Stderr, "Error: bad --at: %v\n", err)
				os.Exit(1)
			}
		}
		reference = resolver.SlugReference(tpl.Slug(when))
	}

	res, err := resolver.New(client, logger).Resolve(ctx, reference, resolver.Options{IncludeInactive: *inactive})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	outputResolution(reference, res, *output)
}

func outputResolution(ref resolver.Reference, res resolver.Resolution, format string) {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
		return
	}

	fmt.Printf("Reference: %s (%s)\n\n", ref.Raw, ref.Kind)
	if res.Empty() {
		fmt.Println("No active markets matched.")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MARKET\tQUESTION\tOUTCOME\tTOKEN\tCOMPLEMENT\tACTIVE")
		for _, inst := range res.Instruments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n",
				inst.ParentMarketID, truncate(inst.Question, 50), inst.Outcome,
				truncate(inst.ID, 20), truncate(inst.ComplementID, 20), inst.Active)
		}
		w.Flush()
		fmt.Printf("\nTotal: %d instruments\n", len(res.Instruments))
	}

	for _, s := range res.Skipped {
		fmt.Printf("skipped market %s: %s\n", s.MarketID, s.Reason)
	}
}

func outputEvents(events []gamma.Event, format string) {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(events)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tTITLE\tMARKETS\tACTIVE\tVOLUME24H")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%.2f\n",
			e.ID, e.Slug, truncate(e.Title, 40), len(e.Markets), e.Active, e.Volume24hr)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d events\n", len(events))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
