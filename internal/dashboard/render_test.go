package dashboard

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/johan/polymarket-desk/internal/book"
	"github.com/johan/polymarket-desk/internal/resolver"
)

// rows returns the side and price columns of each table row, top to bottom.
func rows(out string) [][2]string {
	var got [][2]string
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) >= 2 && (f[0] == "ask" || f[0] == "bid") {
			got = append(got, [2]string{f[0], f[1]})
		}
	}
	return got
}

func TestRender_KeepsFinePrices(t *testing.T) {
	snap := book.NewSnapshot("yes",
		[]book.Level{lvl("0.0015", "10")},
		[]book.Level{lvl("0.0016", "5")},
		time.Date(2026, 1, 18, 4, 10, 0, 0, time.UTC))

	var out bytes.Buffer
	if err := Render(&out, resolver.Instrument{ID: "yes", Label: "Q [Yes]"}, snap, 10); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := rows(out.String())
	want := [][2]string{{"ask", "0.0016"}, {"bid", "0.0015"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("rows = %v, want %v\n%s", got, want, out.String())
	}
	if !strings.Contains(out.String(), "spread 0.0001") {
		t.Errorf("render missing spread:\n%s", out.String())
	}
}

func TestRender_AsksAboveBids(t *testing.T) {
	snap := book.NewSnapshot("yes",
		[]book.Level{lvl("0.39", "2"), lvl("0.40", "10")},
		[]book.Level{lvl("0.61", "1"), lvl("0.60", "5")},
		time.Now())

	var out bytes.Buffer
	if err := Render(&out, resolver.Instrument{ID: "yes", Label: "Q [Yes]"}, snap, 10); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := rows(out.String())
	want := [][2]string{{"ask", "0.61"}, {"ask", "0.6"}, {"bid", "0.4"}, {"bid", "0.39"}}
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}
