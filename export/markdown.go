package export

import (
	"fmt"
	"io"
	"strings"
)

// Markdown writes the document as Markdown: the title as a level-one
// heading, each page under a level-two heading, blank lines between
// paragraphs.
func Markdown(w io.Writer, doc Document) error {
	if doc.Title != "" {
		if _, err := fmt.Fprintf(w, "# %s\n\n", doc.Title); err != nil {
			return err
		}
	}
	for i, page := range doc.Pages {
		if _, err := fmt.Fprintf(w, "## Page %d\n\n", i+1); err != nil {
			return err
		}
		for _, line := range splitLines(page) {
			if _, err := fmt.Fprintf(w, "%s\n\n", escapeMarkdown(line)); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitLines(page string) []string {
	var out []string
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimRight(line, " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// escapeMarkdown keeps extracted text from being read as structure.
// Only line-leading markers matter; inline emphasis characters are
// left alone to keep the output readable.
func escapeMarkdown(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if trimmed == "" {
		return line
	}
	switch trimmed[0] {
	case '#', '>', '-', '+':
		return strings.Replace(line, trimmed, `\`+trimmed, 1)
	}
	return line
}
