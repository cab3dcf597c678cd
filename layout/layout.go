// Package layout turns positioned text fragments into reading-order
// plain text: sort, group into lines, separate by gaps, reorder
// right-to-left runs, join.
package layout

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pmdunggh/pdftotext-sub000/contentstream"
)

type Config struct {
	// GapThreshold is the horizontal slack, in text-space units,
	// tolerated between adjacent fragments before a space is inserted.
	GapThreshold float64
}

func DefaultConfig() Config {
	return Config{GapThreshold: 1.0}
}

// Assemble produces the document text for a fragment set: pages joined
// with form feeds, lines with newlines, NFC-normalized.
func Assemble(frags []contentstream.TextFragment, cfg Config) string {
	if cfg.GapThreshold == 0 {
		cfg.GapThreshold = DefaultConfig().GapThreshold
	}
	byPage := make(map[int][]contentstream.TextFragment)
	var pageNums []int
	for _, f := range frags {
		if _, ok := byPage[f.Page]; !ok {
			pageNums = append(pageNums, f.Page)
		}
		byPage[f.Page] = append(byPage[f.Page], f)
	}
	sort.Ints(pageNums)

	pageTexts := make([]string, 0, len(pageNums))
	for _, n := range pageNums {
		pageTexts = append(pageTexts, assemblePage(byPage[n], cfg))
	}
	return norm.NFC.String(strings.Join(pageTexts, "\f"))
}

func assemblePage(frags []contentstream.TextFragment, cfg Config) string {
	backfillWidths(frags)

	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})

	var lines []string
	var line []contentstream.TextFragment
	baseline := 0.0
	for _, f := range frags {
		if len(line) == 0 {
			line = append(line, f)
			baseline = f.Y
			continue
		}
		// a fragment whose top falls below the current baseline
		// starts a new line
		if f.Y+f.H < baseline {
			lines = append(lines, renderLine(line, cfg))
			line = line[:0]
			baseline = f.Y
		}
		line = append(line, f)
	}
	if len(line) > 0 {
		lines = append(lines, renderLine(line, cfg))
	}
	return strings.Join(lines, "\n")
}

// backfillWidths fills missing fragment widths from font metrics.
// Fragments whose font cannot price every character keep zero width
// and opt out of gap detection.
func backfillWidths(frags []contentstream.TextFragment) {
	for i := range frags {
		if frags[i].W != 0 || frags[i].Font == nil {
			continue
		}
		if w, ok := frags[i].Font.StringWidth(frags[i].Text, 0); ok {
			frags[i].W = w * frags[i].H
		}
	}
}

// renderLine joins one line's fragments left to right, inserting a
// space where the measured gap exceeds the threshold, then reorders
// right-to-left runs. The global sort is by y first, so fragments that
// share a line but sit on slightly different baselines arrive here out
// of x order and get re-sorted.
func renderLine(line []contentstream.TextFragment, cfg Config) string {
	sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
	var runs []string
	prevEnd := 0.0
	haveEnd := false
	for _, f := range line {
		if haveEnd && f.X-prevEnd > cfg.GapThreshold {
			runs = append(runs, " ")
		}
		runs = append(runs, f.Text)
		if f.W > 0 {
			prevEnd, haveEnd = f.X+f.W, true
		} else {
			haveEnd = false
		}
	}
	return strings.Join(reorderRTL(runs), "")
}
