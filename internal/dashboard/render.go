package dashboard

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/johan/polymarket-desk/internal/book"
	"github.com/johan/polymarket-desk/internal/pricing"
	"github.com/johan/polymarket-desk/internal/resolver"
)

// Render writes a depth table for one instrument: asks best-last above the
// reference line, bids best-first below it.
func Render(w io.Writer, inst resolver.Instrument, snap book.Snapshot, depth int) error {
	ref := pricing.Derive(snap)

	fmt.Fprintf(w, "%s\n", inst.Label)
	fmt.Fprintf(w, "token %s  @ %s\n", short(inst.ID), snap.FetchedAt().Format(time.TimeOnly))

	bids, asks := snap.Depth(depth)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SIDE\tPRICE\tSIZE\tTOTAL\t")
	for i := len(asks) - 1; i >= 0; i-- {
		l := asks[i]
		fmt.Fprintf(tw, "ask\t%s\t%s\t%s\t\n", l.Price.String(), l.Size.StringFixed(2), l.Total.StringFixed(2))
	}
	fmt.Fprintf(tw, "---\t%s\t%s\t\t\n", referenceText(ref), spreadText(snap))
	for _, l := range bids {
		fmt.Fprintf(tw, "bid\t%s\t%s\t%s\t\n", l.Price.String(), l.Size.StringFixed(2), l.Total.StringFixed(2))
	}
	return tw.Flush()
}

// RenderStatus writes a one-line notice instead of a table.
func RenderStatus(w io.Writer, label, status string) {
	fmt.Fprintf(w, "%s: %s\n", label, status)
}

func referenceText(ref pricing.Reference) string {
	v, ok := ref.Value()
	if !ok {
		return "no reference price"
	}
	return fmt.Sprintf("%s (%s)", v.StringFixed(4), ref.Source())
}

func spreadText(snap book.Snapshot) string {
	spread, ok := pricing.Spread(snap)
	if !ok {
		return ""
	}
	return "spread " + spread.String()
}

func short(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:6] + "…" + id[len(id)-6:]
}
