package layout

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pmdunggh/pdftotext-sub000/contentstream"
	"github.com/pmdunggh/pdftotext-sub000/fonts"
	"github.com/pmdunggh/pdftotext-sub000/parser"
)

func frag(page int, x, y, w, h float64, text string) contentstream.TextFragment {
	return contentstream.TextFragment{Page: page, X: x, Y: y, W: w, H: h, Text: text}
}

func TestSameLineOrderedByX(t *testing.T) {
	frags := []contentstream.TextFragment{
		frag(1, 200, 700, 0, 12, "world"),
		frag(1, 0, 700, 0, 12, "hello"),
		frag(1, 100, 700, 0, 12, "big"),
	}
	if got := Assemble(frags, DefaultConfig()); got != "hellobigworld" {
		t.Fatalf("Assemble = %q, want x-sorted joins", got)
	}
}

func TestUnevenBaselineStillOrderedByX(t *testing.T) {
	// the later fragment sits half a unit higher, so the global y sort
	// visits it first; the line render must restore x order
	frags := []contentstream.TextFragment{
		frag(1, 50, 700.5, 0, 12, "world"),
		frag(1, 10, 700, 0, 12, "hello"),
	}
	if got := Assemble(frags, DefaultConfig()); got != "helloworld" {
		t.Fatalf("Assemble = %q, want %q", got, "helloworld")
	}
}

func TestLineGrouping(t *testing.T) {
	frags := []contentstream.TextFragment{
		frag(1, 0, 680, 0, 12, "second"),
		frag(1, 0, 700, 0, 12, "first"),
		// 698+12 reaches above the 700 baseline, same line
		frag(1, 50, 698, 0, 12, "still-first"),
	}
	want := "firststill-first\nsecond"
	if diff := cmp.Diff(want, Assemble(frags, DefaultConfig())); diff != "" {
		t.Fatalf("line grouping mismatch (-want +got):\n%s", diff)
	}
}

func TestGapInsertsSpace(t *testing.T) {
	frags := []contentstream.TextFragment{
		frag(1, 0, 700, 60, 12, "left"),
		frag(1, 100, 700, 60, 12, "right"),
	}
	if got := Assemble(frags, DefaultConfig()); got != "left right" {
		t.Fatalf("Assemble = %q, want a gap space", got)
	}
}

func TestTightFragmentsNotSeparated(t *testing.T) {
	frags := []contentstream.TextFragment{
		frag(1, 0, 700, 60, 12, "Hel"),
		frag(1, 60.4, 700, 30, 12, "lo"),
	}
	if got := Assemble(frags, DefaultConfig()); got != "Hello" {
		t.Fatalf("Assemble = %q, rounding slack should not split words", got)
	}
}

func TestUnknownWidthSkipsGapDetection(t *testing.T) {
	frags := []contentstream.TextFragment{
		frag(1, 0, 700, 0, 12, "Hel"),
		frag(1, 80, 700, 0, 12, "lo"),
	}
	if got := Assemble(frags, DefaultConfig()); got != "Hello" {
		t.Fatalf("Assemble = %q, zero-width fragments cannot prove a gap", got)
	}
}

func TestPagesJoinedWithFormFeed(t *testing.T) {
	frags := []contentstream.TextFragment{
		frag(2, 0, 700, 0, 12, "two"),
		frag(1, 0, 700, 0, 12, "one"),
	}
	if got := Assemble(frags, DefaultConfig()); got != "one\ftwo" {
		t.Fatalf("Assemble = %q", got)
	}
}

func TestRTLDoubleRunReversal(t *testing.T) {
	// visual order: second word, space, first word; logical order
	// restores first-then-second
	frags := []contentstream.TextFragment{
		frag(1, 0, 700, 0, 12, "עולם"),
		frag(1, 40, 700, 0, 12, " "),
		frag(1, 50, 700, 0, 12, "שלום"),
	}
	if got := Assemble(frags, DefaultConfig()); got != "שלום עולם" {
		t.Fatalf("Assemble = %q, want the stacked runs reversed", got)
	}
}

func TestRTLAroundLTRUntouched(t *testing.T) {
	frags := []contentstream.TextFragment{
		frag(1, 0, 700, 0, 12, "ABC"),
		frag(1, 30, 700, 0, 12, "עולם"),
		frag(1, 70, 700, 0, 12, " "),
		frag(1, 80, 700, 0, 12, "שלום"),
		frag(1, 120, 700, 0, 12, "DEF"),
	}
	if got := Assemble(frags, DefaultConfig()); got != "ABCשלום עולםDEF" {
		t.Fatalf("Assemble = %q", got)
	}
}

func TestClassifyRun(t *testing.T) {
	tests := []struct {
		text string
		want runClass
	}{
		{"hello", runLTR},
		{"שלום", runRTL},
		{"  ,.", runSeparator},
		{"123", runSeparator},
		{"abcשלום", runRTL},
	}
	for _, tt := range tests {
		if got := classifyRun(tt.text); got != tt.want {
			t.Errorf("classifyRun(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestWidthBackfillFromFontMetrics(t *testing.T) {
	src := `1 0 obj << /Type /Font /Subtype /TrueType /BaseFont /Helvetica
 /Encoding /WinAnsiEncoding /FirstChar 65 /Widths [500 500] >> endobj`
	doc, err := parser.New(parser.Config{}).Load(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f, err := fonts.NewResolver(doc, fonts.Options{}).ResolveFont(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	f.Decode([]byte("AB"))

	frags := []contentstream.TextFragment{
		{Page: 1, X: 0, Y: 700, H: 10, Font: f, Text: "AB"},
		// 0.5*2 chars * size 10 = width 10, so x=25 leaves a gap
		{Page: 1, X: 25, Y: 700, H: 10, Font: f, Text: "AB"},
	}
	if got := Assemble(frags, DefaultConfig()); got != "AB AB" {
		t.Fatalf("Assemble = %q, want backfilled widths to expose the gap", got)
	}
}

func TestNormalization(t *testing.T) {
	// combining acute over 'e' normalizes to the precomposed form
	frags := []contentstream.TextFragment{
		frag(1, 0, 700, 0, 12, "café"),
	}
	got := Assemble(frags, DefaultConfig())
	if !strings.HasSuffix(got, "é") || len(got) != len("café") {
		t.Fatalf("Assemble = %q, want NFC form", got)
	}
}
