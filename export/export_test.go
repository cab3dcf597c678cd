package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func sample() Document {
	return Document{
		Title: "Report",
		Pages: []string{"Alpha line\nBeta line", "# not a heading"},
	}
}

// parse the emitted markdown back and assert structure rather than
// exact bytes
func TestMarkdownStructure(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, sample()); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	src := buf.Bytes()
	root := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var headings, paragraphs int
	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			headings++
			if headings == 1 && n.Level != 1 {
				t.Errorf("first heading level = %d, want 1", n.Level)
			}
		case *ast.Paragraph:
			paragraphs++
		}
	}
	// title plus one per page
	if headings != 3 {
		t.Errorf("headings = %d, want 3", headings)
	}
	if paragraphs != 3 {
		t.Errorf("paragraphs = %d, want 3", paragraphs)
	}
}

func TestMarkdownEscapesLeadingMarkers(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, Document{Pages: []string{"# price list"}}); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	root := goldmark.New().Parser().Parse(gmtext.NewReader(buf.Bytes()))
	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		if h, ok := child.(*ast.Heading); ok && h.Level == 1 {
			t.Fatal("extracted text leaked into the heading structure")
		}
	}
}

func TestHTMLStructure(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, sample()); err != nil {
		t.Fatalf("HTML: %v", err)
	}
	root, err := html.Parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}

	counts := map[atom.Atom]int{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			counts[n.DataAtom]++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if counts[atom.H1] != 1 || counts[atom.Section] != 2 || counts[atom.H2] != 2 {
		t.Fatalf("structure counts = %v", counts)
	}
	if counts[atom.P] != 3 {
		t.Fatalf("paragraphs = %d, want 3", counts[atom.P])
	}
}

func TestHTMLEscapesText(t *testing.T) {
	var buf bytes.Buffer
	err := HTML(&buf, Document{Pages: []string{"<script>alert(1)</script>"}})
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Fatal("text content must be escaped by the serializer")
	}
}
