package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johan/polymarket-desk/internal/book"
	"github.com/johan/polymarket-desk/internal/pricing"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestFileStorage_Write(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	snap := book.NewSnapshot("tok",
		[]book.Level{{Price: decimal.RequireFromString("0.40"), Size: decimal.NewFromInt(10)}},
		[]book.Level{{Price: decimal.RequireFromString("0.60"), Size: decimal.NewFromInt(5)}},
		time.Now())
	ref := pricing.Derive(snap)
	bids, asks := snap.Depth(5)

	recs := []*Record{
		{Time: time.Now(), InstrumentID: "tok", Status: "ready", Reference: ref, Source: ref.Source().String(), Bids: bids, Asks: asks},
		{Time: time.Now(), InstrumentID: "tok", Status: "empty", Reference: pricing.Unavailable(), Source: "unavailable"},
	}
	for _, r := range recs {
		if err := s.Write(r); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if s.RecordCount() != 2 {
		t.Errorf("RecordCount = %d", s.RecordCount())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := readLines(t, s.CurrentPath())
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0]["reference"] != "0.5" {
		t.Errorf("reference = %v", lines[0]["reference"])
	}
	if lines[1]["reference"] != nil {
		t.Errorf("empty book reference should be null, got %v", lines[1]["reference"])
	}
	if filepath.Dir(s.CurrentPath()) != dir {
		t.Errorf("file written outside %s: %s", dir, s.CurrentPath())
	}

	if err := s.Write(recs[0]); err == nil {
		t.Error("Write after Close should fail")
	}
}

func TestFileStorage_Rotation(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	defer s.Close()

	clock := time.Now().Add(time.Minute)
	s.now = func() time.Time { return clock }

	s.Write(&Record{InstrumentID: "a"})
	first := s.CurrentPath()

	clock = clock.Add(2 * time.Hour)
	s.Write(&Record{InstrumentID: "b"})
	second := s.CurrentPath()

	if first == second {
		t.Fatal("expected rotation to a new file")
	}
	if s.RecordCount() != 1 {
		t.Errorf("RecordCount after rotation = %d, want 1", s.RecordCount())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) < 2 {
		t.Errorf("expected at least 2 files, got %d", len(entries))
	}
}

func TestNew(t *testing.T) {
	if s, err := New("none", "", 0); err != nil || s == nil {
		t.Errorf("New(none) = %v, %v", s, err)
	}

	s, err := New("file", t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("New(file) failed: %v", err)
	}
	s.Close()

	_, err = New("s3", "", 0)
	var unknown *UnknownTypeError
	if !errors.As(err, &unknown) || unknown.Type != "s3" {
		t.Errorf("expected UnknownTypeError, got %v", err)
	}
}
