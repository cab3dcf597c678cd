package pages

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pmdunggh/pdftotext-sub000/parser"
)

func loadDoc(t *testing.T, src string) *parser.Document {
	t.Helper()
	doc, err := parser.New(parser.Config{}).Load(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func resolveTree(t *testing.T, src string) *Tree {
	t.Helper()
	return Resolve(context.Background(), loadDoc(t, src), Options{})
}

func streamObj(id int, dict, body string) string {
	return fmt.Sprintf("%d 0 obj << %s /Length %d >> stream\n%s\nendstream endobj\n",
		id, dict, len(body), body)
}

func TestPageNumberingFollowsTreeOrder(t *testing.T) {
	// raw ids deliberately jumbled: DFS over Kids decides numbering
	tree := resolveTree(t, `
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [5 0 R 3 0 R 4 0 R] /Count 3 /MediaBox [0 0 612 792] >> endobj
5 0 obj << /Type /Page /Parent 2 0 R >> endobj
3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 200 300] >> endobj
4 0 obj << /Type /Page /Parent 2 0 R >> endobj
trailer << /Root 1 0 R >>`)

	if tree.Count() != 3 {
		t.Fatalf("Count = %d, want 3", tree.Count())
	}
	wantIDs := []int{5, 3, 4}
	for i, want := range wantIDs {
		p := tree.Page(i + 1)
		if p.Number != i+1 || p.ID != want {
			t.Errorf("page %d: Number=%d ID=%d, want ID %d", i+1, p.Number, p.ID, want)
		}
	}
	if p := tree.Page(1); p.Width != 612 || p.Height != 792 {
		t.Errorf("page 1 geometry %vx%v, want inherited 612x792", p.Width, p.Height)
	}
	if p := tree.Page(2); p.Width != 200 || p.Height != 300 {
		t.Errorf("page 2 geometry %vx%v, want own 200x300", p.Width, p.Height)
	}
}

func TestPageTreeCycleTruncates(t *testing.T) {
	tree := resolveTree(t, `
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R 2 0 R 4 0 R] /Count 2 >> endobj
3 0 obj << /Type /Page >> endobj
4 0 obj << /Type /Page >> endobj
trailer << /Root 1 0 R >>`)

	if tree.Count() != 2 {
		t.Fatalf("Count = %d, want 2 with the self-reference skipped", tree.Count())
	}
}

func TestDefaultGeometry(t *testing.T) {
	tree := resolveTree(t, `
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page >> endobj
trailer << /Root 1 0 R >>`)

	p := tree.Page(1)
	if p.Width != DefaultWidth || p.Height != DefaultHeight {
		t.Fatalf("geometry %vx%v, want defaults", p.Width, p.Height)
	}
}

func TestSyntheticPageWhenNoCatalog(t *testing.T) {
	tree := resolveTree(t, streamObj(7, "", "BT (lost) Tj ET"))

	if tree.Count() != 1 {
		t.Fatalf("Count = %d, want the synthetic fallback page", tree.Count())
	}
	p := tree.Page(1)
	if p.ID != 0 || p.Number != 1 {
		t.Fatalf("synthetic page ID=%d Number=%d", p.ID, p.Number)
	}
	segs, err := p.Content(context.Background())
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if len(segs) != 1 || !strings.Contains(string(segs[0].Data), "lost") {
		t.Fatalf("synthetic page should carry the orphan content stream, got %v", segs)
	}
}

func TestPageOutOfRange(t *testing.T) {
	tree := resolveTree(t, streamObj(7, "", "BT ET"))
	if tree.Page(0) != nil || tree.Page(2) != nil {
		t.Fatal("out-of-range lookups should return nil")
	}
}

func formDoc(t *testing.T) *Page {
	t.Helper()
	body := "BT (before) Tj ET /Fm1 Do BT (after) Tj ET"
	inner := "BT (inside) Tj ET"
	src := `
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page /Contents 4 0 R
 /Resources << /XObject << /Fm1 5 0 R >> /Font << /F1 7 0 R >> >> >> endobj
` + streamObj(4, "", body) +
		streamObj(5, "/Type /XObject /Subtype /Form /Resources << /Font << /F1 8 0 R >> >>", inner) + `
7 0 obj << /Type /Font /BaseFont /Helvetica >> endobj
8 0 obj << /Type /Font /BaseFont /Courier >> endobj
trailer << /Root 1 0 R >>`
	tree := resolveTree(t, src)
	if tree.Count() != 1 {
		t.Fatalf("Count = %d, want 1", tree.Count())
	}
	return tree.Page(1)
}

func TestFormXObjectInlining(t *testing.T) {
	p := formDoc(t)
	segs, err := p.Content(context.Background())
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want page bytes split around the inlined form", len(segs))
	}
	if segs[0].Template != "" || !strings.Contains(string(segs[0].Data), "before") {
		t.Errorf("segment 0 = %q scope %q", segs[0].Data, segs[0].Template)
	}
	if segs[1].Template != "Fm1" || !strings.Contains(string(segs[1].Data), "inside") {
		t.Errorf("segment 1 = %q scope %q, want form bytes in template scope", segs[1].Data, segs[1].Template)
	}
	if segs[2].Template != "" || !strings.Contains(string(segs[2].Data), "after") {
		t.Errorf("segment 2 = %q scope %q", segs[2].Data, segs[2].Template)
	}
}

func TestTemplateScopedFontAlias(t *testing.T) {
	p := formDoc(t)
	if _, err := p.Content(context.Background()); err != nil {
		t.Fatalf("Content: %v", err)
	}
	if id, ok := p.Resources.Font("", "F1"); !ok || id != 7 {
		t.Fatalf("page-scope F1 = %d, %v; want 7", id, ok)
	}
	if id, ok := p.Resources.Font("Fm1", "F1"); !ok || id != 8 {
		t.Fatalf("template-scope F1 = %d, %v; want the form's own font 8", id, ok)
	}
	// an alias the template does not declare falls back to page scope
	if _, ok := p.Resources.Font("Fm1", "F9"); ok {
		t.Fatal("unknown alias should miss in both scopes")
	}
}

func TestFormSelfReferenceDoesNotRecurse(t *testing.T) {
	src := `
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page /Contents 4 0 R
 /Resources << /XObject << /Fm1 5 0 R >> >> >> endobj
` + streamObj(4, "", "/Fm1 Do") +
		streamObj(5, "/Type /XObject /Subtype /Form /Resources << /XObject << /Fm1 5 0 R >> >>", "(loop) Tj /Fm1 Do") + `
trailer << /Root 1 0 R >>`
	p := resolveTree(t, src).Page(1)

	segs, err := p.Content(context.Background())
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	joined := ""
	for _, s := range segs {
		joined += string(s.Data)
	}
	if strings.Count(joined, "loop") != 1 {
		t.Fatalf("form inlined %d times, want once", strings.Count(joined, "loop"))
	}
}
