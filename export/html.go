package export

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML writes the document as a standalone HTML page built as a node
// tree and rendered, so escaping is handled by the serializer.
func HTML(w io.Writer, doc Document) error {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlNode := element(atom.Html)
	root.AppendChild(htmlNode)

	head := element(atom.Head)
	htmlNode.AppendChild(head)
	if doc.Title != "" {
		title := element(atom.Title)
		title.AppendChild(textNode(doc.Title))
		head.AppendChild(title)
	}

	body := element(atom.Body)
	htmlNode.AppendChild(body)
	if doc.Title != "" {
		h1 := element(atom.H1)
		h1.AppendChild(textNode(doc.Title))
		body.AppendChild(h1)
	}

	for i, page := range doc.Pages {
		section := element(atom.Section)
		body.AppendChild(section)

		h2 := element(atom.H2)
		h2.AppendChild(textNode(fmt.Sprintf("Page %d", i+1)))
		section.AppendChild(h2)

		for _, line := range splitLines(page) {
			p := element(atom.P)
			p.AppendChild(textNode(line))
			section.AppendChild(p)
		}
	}
	return html.Render(w, root)
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
