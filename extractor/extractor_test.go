package extractor

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func streamObj(id int, dict, body string) string {
	return fmt.Sprintf("%d 0 obj << %s /Length %d >> stream\n%s\nendstream endobj\n",
		id, dict, len(body), body)
}

func twoPageSource() string {
	pageContent := func(text string) string {
		return fmt.Sprintf("BT /F1 12 Tf 0 100 Td (%s) Tj ET", text)
	}
	return `
1 0 obj << /Type /Catalog /Pages 2 0 R
 /PageLabels << /Nums [0 << /S /r >> 1 << /S /D /P (A-) >>] >>
 /AcroForm << /Fields [20 0 R 21 0 R] >> >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 >> endobj
3 0 obj << /Type /Page /Contents 4 0 R /Resources 10 0 R >> endobj
5 0 obj << /Type /Page /Contents 6 0 R /Resources 10 0 R >> endobj
10 0 obj << /Font << /F1 7 0 R >> /XObject << /Im1 8 0 R /Im2 9 0 R >> >> endobj
7 0 obj << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> endobj
` + streamObj(4, "", pageContent("one")) +
		streamObj(6, "", pageContent("two")) +
		streamObj(8, "/Type /XObject /Subtype /Image /Width 2 /Height 1 /BitsPerComponent 8 /ColorSpace /DeviceGray /Filter /ASCIIHexDecode", "0001>") +
		streamObj(9, "/Type /XObject /Subtype /Image /Width 4 /Height 4 /BitsPerComponent 8 /ColorSpace /DeviceRGB /Filter /DCTDecode", "notjpeg") + `
20 0 obj << /FT /Tx /T (first) /V (Alice) >> endobj
21 0 obj << /T (group) /FT /Btn /Kids [22 0 R] >> endobj
22 0 obj << /T (child) /V /On >> endobj
trailer << /Root 1 0 R /Info 30 0 R >>
30 0 obj << /Title (Quarterly Report) /Author <FEFF00410042> /Producer (pdftotext) >> endobj
`
}

func open(t *testing.T) *Extractor {
	t.Helper()
	e, err := Open(context.Background(), []byte(twoPageSource()), Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return e
}

func TestTextAndOffsets(t *testing.T) {
	e := open(t)
	if e.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", e.PageCount())
	}
	text, offsets, err := e.Text(context.Background())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "one\ftwo" {
		t.Fatalf("Text = %q", text)
	}
	want := []PageOffset{{Offset: 0, Page: 1}, {Offset: 4, Page: 2}}
	if diff := cmp.Diff(want, offsets); diff != "" {
		t.Fatalf("offsets mismatch (-want +got):\n%s", diff)
	}
	if PageFor(offsets, 1) != 1 || PageFor(offsets, 5) != 2 {
		t.Fatal("PageFor maps offsets to the wrong pages")
	}
}

func TestPageText(t *testing.T) {
	e := open(t)
	got, err := e.PageText(context.Background(), 2)
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if got != "two" {
		t.Fatalf("PageText(2) = %q", got)
	}
}

// Both pages share one font object, so pulling them concurrently
// exercises the resolver cache and the font width memo under -race.
func TestConcurrentPageText(t *testing.T) {
	e := open(t)
	want := map[int]string{1: "one", 2: "two"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, err := e.PageText(context.Background(), n)
			if err != nil {
				t.Errorf("PageText(%d): %v", n, err)
				return
			}
			if got != want[n] {
				t.Errorf("PageText(%d) = %q, want %q", n, got, want[n])
			}
		}(i%2 + 1)
	}
	wg.Wait()
}

func TestFragmentsCached(t *testing.T) {
	e := open(t)
	a, err := e.Fragments(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fragments: %v", err)
	}
	b, _ := e.Fragments(context.Background(), 1)
	if len(a) != 1 || &a[0] != &b[0] {
		t.Fatal("second call should return the cached slice")
	}
}

func TestInfoMetadata(t *testing.T) {
	e := open(t)
	info := e.Info()
	if info.Title != "Quarterly Report" {
		t.Errorf("Title = %q", info.Title)
	}
	// UTF-16BE with byte order mark
	if info.Author != "AB" {
		t.Errorf("Author = %q, want AB", info.Author)
	}
	if info.Producer != "pdftotext" {
		t.Errorf("Producer = %q", info.Producer)
	}
	if info.PageCount != 2 || info.Encrypted {
		t.Errorf("PageCount=%d Encrypted=%v", info.PageCount, info.Encrypted)
	}
}

func TestPageLabels(t *testing.T) {
	e := open(t)
	labels := e.PageLabels()
	if labels[1] != "i" {
		t.Errorf("label 1 = %q, want lowercase roman", labels[1])
	}
	if labels[2] != "A-1" {
		t.Errorf("label 2 = %q, want prefixed decimal", labels[2])
	}
}

func TestFormFields(t *testing.T) {
	e := open(t)
	fields := e.FormFields()
	want := []FormField{
		{Name: "first", Type: "Tx", Value: "Alice"},
		{Name: "group.child", Type: "Btn", Value: "On"},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestImages(t *testing.T) {
	e := open(t)
	images, err := e.Images(context.Background(), 1)
	if err != nil {
		t.Fatalf("Images: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}

	im1 := images[0]
	if im1.Alias != "Im1" || im1.Width != 2 || im1.Height != 1 || im1.ColorSpace != "DeviceGray" {
		t.Errorf("Im1 metadata = %+v", im1)
	}
	if !bytes.Equal(im1.Data, []byte{0x00, 0x01}) {
		t.Errorf("Im1 data = %v, want decoded hex", im1.Data)
	}

	im2 := images[1]
	if !im2.Unsupported || im2.Data != nil {
		t.Errorf("Im2 should be flagged unsupported with no data, got %+v", im2)
	}
}

func TestRomanAndAlphaLabels(t *testing.T) {
	tests := []struct {
		style string
		n     int
		want  string
	}{
		{"R", 4, "IV"},
		{"r", 9, "ix"},
		{"R", 1994, "MCMXCIV"},
		{"a", 1, "a"},
		{"a", 27, "aa"},
		{"A", 28, "BB"},
		{"D", 7, "7"},
	}
	for _, tt := range tests {
		if got := formatLabel(tt.style, tt.n); got != tt.want {
			t.Errorf("formatLabel(%q, %d) = %q, want %q", tt.style, tt.n, got, tt.want)
		}
	}
}
