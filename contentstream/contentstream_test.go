package contentstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pmdunggh/pdftotext-sub000/fonts"
	"github.com/pmdunggh/pdftotext-sub000/pages"
	"github.com/pmdunggh/pdftotext-sub000/parser"
)

// onePageDoc wraps content bytes in a minimal document with one page
// and a Helvetica font at alias F1.
func onePageDoc(t *testing.T, content string) (*pages.Page, *fonts.Resolver) {
	t.Helper()
	src := fmt.Sprintf(`
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >> endobj
4 0 obj << /Length %d >> stream
%s
endstream endobj
5 0 obj << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> endobj
trailer << /Root 1 0 R >>`, len(content), content)
	doc, err := parser.New(parser.Config{}).Load(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tree := pages.Resolve(context.Background(), doc, pages.Options{})
	if tree.Count() != 1 {
		t.Fatalf("page count = %d", tree.Count())
	}
	return tree.Page(1), fonts.NewResolver(doc, fonts.Options{})
}

func interpret(t *testing.T, content string) []TextFragment {
	t.Helper()
	page, res := onePageDoc(t, content)
	frags, err := Interpret(context.Background(), page, res, DefaultConfig())
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	return frags
}

func TestHelloPlacement(t *testing.T) {
	frags := interpret(t, "BT 1 0 0 1 0 100 Tm /F1 12 Tf (Hello) Tj ET")

	want := []TextFragment{{
		Page: 1, X: 0, Y: 100, H: 12, FontAlias: "F1", Text: "Hello",
	}}
	opts := cmpopts.IgnoreFields(TextFragment{}, "Font")
	if diff := cmp.Diff(want, frags, opts); diff != "" {
		t.Fatalf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestTdMovesInTextSpace(t *testing.T) {
	frags := interpret(t, "BT /F1 10 Tf 10 20 Td (a) Tj 5 100 Td (b) Tj ET")

	if len(frags) != 2 {
		t.Fatalf("got %d fragments, want 2", len(frags))
	}
	if frags[0].X != 10 || frags[0].Y != 20 {
		t.Errorf("fragment a at (%v,%v), want (10,20)", frags[0].X, frags[0].Y)
	}
	if frags[1].X != 15 || frags[1].Y != 120 {
		t.Errorf("fragment b at (%v,%v), want cumulative (15,120)", frags[1].X, frags[1].Y)
	}
}

func TestTJKerningBecomesSpace(t *testing.T) {
	frags := interpret(t, "BT /F1 10 Tf [ (A) -200 (B) -50 (C) ] TJ ET")

	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want one per TJ", len(frags))
	}
	// -200 exceeds the threshold, -50 does not
	if frags[0].Text != "A BC" {
		t.Fatalf("text = %q, want %q", frags[0].Text, "A BC")
	}
}

func TestSaveRestore(t *testing.T) {
	frags := interpret(t, "q 2 0 0 2 10 10 cm BT /F1 8 Tf (x) Tj ET Q BT /F1 8 Tf (y) Tj ET")

	if len(frags) != 2 {
		t.Fatalf("got %d fragments, want 2", len(frags))
	}
	if frags[0].X != 10 || frags[0].Y != 10 {
		t.Errorf("inside q: (%v,%v), want translated (10,10)", frags[0].X, frags[0].Y)
	}
	if frags[1].X != 0 || frags[1].Y != 0 {
		t.Errorf("after Q: (%v,%v), want restored origin", frags[1].X, frags[1].Y)
	}
}

func TestNegativeScaleNormalizes(t *testing.T) {
	// mirrored coordinate systems still place text at positive offsets
	frags := interpret(t, "1 0 0 -1 0 792 cm BT /F1 12 Tf 10 50 Td (flip) Tj ET")

	if len(frags) != 1 {
		t.Fatalf("got %d fragments", len(frags))
	}
	if frags[0].X < 0 || frags[0].Y < 0 {
		t.Fatalf("position (%v,%v) should be reflected positive", frags[0].X, frags[0].Y)
	}
}

func TestQuoteAdvancesByLeading(t *testing.T) {
	frags := interpret(t, "BT /F1 10 Tf 0 100 Td 0 -12 TD (one) Tj (two) ' (three) ' ET")

	if len(frags) != 3 {
		t.Fatalf("got %d fragments, want 3", len(frags))
	}
	ys := []float64{frags[0].Y, frags[1].Y, frags[2].Y}
	if ys[0] != 88 || ys[1] != 76 || ys[2] != 64 {
		t.Fatalf("baselines %v, want 88, 76, 64", ys)
	}
}

func TestUnknownOperatorClearsStack(t *testing.T) {
	frags := interpret(t, "BT /F1 12 Tf 1 2 3 sh (Hi) Tj ET")

	if len(frags) != 1 || frags[0].Text != "Hi" {
		t.Fatalf("fragments = %+v, want the dangling operands discarded", frags)
	}
}

func TestNoFontSkipsText(t *testing.T) {
	frags := interpret(t, "BT (orphan) Tj ET")
	if len(frags) != 0 {
		t.Fatalf("text without a font should be skipped, got %+v", frags)
	}
}

func TestUnterminatedStringEndsStream(t *testing.T) {
	frags := interpret(t, "BT /F1 12 Tf (done) Tj (never closed")
	if len(frags) != 1 || frags[0].Text != "done" {
		t.Fatalf("fragments = %+v", frags)
	}
}

func TestInlineImageSkipped(t *testing.T) {
	frags := interpret(t, "BT /F1 12 Tf (a) Tj ET BI /W 2 /H 2 ID \x00\x01\xff\xfe EI BT /F1 12 Tf (b) Tj ET")
	if len(frags) != 2 {
		t.Fatalf("got %d fragments, want the image payload skipped", len(frags))
	}
}

func TestDictOperandSkipped(t *testing.T) {
	frags := interpret(t, "/GS1 << /Type /ExtGState /CA 0.5 >> gs BT /F1 12 Tf (text) Tj ET")
	if len(frags) != 1 || frags[0].Text != "text" {
		t.Fatalf("fragments = %+v", frags)
	}
}

func TestDeadlineAborts(t *testing.T) {
	page, res := onePageDoc(t, "BT /F1 12 Tf "+strings.Repeat("(x) Tj ", 50)+"ET")
	cfg := DefaultConfig()
	cfg.CheckInterval = 1
	cfg.Deadline = time.Now().Add(-time.Second)

	_, err := Interpret(context.Background(), page, res, cfg)
	if !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("err = %v, want ErrDeadlineExceeded", err)
	}
}

func TestContextCancelAborts(t *testing.T) {
	page, res := onePageDoc(t, "BT /F1 12 Tf (x) Tj ET")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := DefaultConfig()
	cfg.CheckInterval = 1

	_, err := Interpret(ctx, page, res, cfg)
	if !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("err = %v, want ErrDeadlineExceeded", err)
	}
}

func TestRawText(t *testing.T) {
	page, res := onePageDoc(t, "BT /F1 12 Tf (Hel) Tj (lo) Tj ET")
	got, err := RawText(context.Background(), page, res, DefaultConfig())
	if err != nil {
		t.Fatalf("RawText: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("RawText = %q, want Hello", got)
	}
}

func TestRawTextBreaksAtXObject(t *testing.T) {
	page, res := onePageDoc(t, "BT /F1 12 Tf (above) Tj ET /Im1 Do BT /F1 12 Tf (below) Tj ET")
	got, err := RawText(context.Background(), page, res, DefaultConfig())
	if err != nil {
		t.Fatalf("RawText: %v", err)
	}
	if got != "above\nbelow" {
		t.Fatalf("RawText = %q, want the image invocation to break the line", got)
	}
}
