// Package export renders extracted text into Markdown or HTML
// documents, one section per page.
package export

// Document is the input to the writers: a title and the per-page
// extracted text, in page order.
type Document struct {
	Title string
	Pages []string
}
