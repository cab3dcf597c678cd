// Command pdftotext extracts text and structured data from a PDF file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pmdunggh/pdftotext-sub000/export"
	"github.com/pmdunggh/pdftotext-sub000/extractor"
)

type options struct {
	pdfPath  string
	page     int
	format   string
	outPath  string
	metadata bool
	forms    bool
	images   string
	deadline time.Duration
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdftotext: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "pdftotext: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: pdftotext [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	flag.IntVar(&opts.page, "page", 0, "Extract a single page (1-based); 0 means all pages")
	flag.StringVar(&opts.format, "format", "text", "Output format: text, markdown, html")
	flag.StringVar(&opts.outPath, "out", "", "Write output to a file instead of stdout")
	flag.BoolVar(&opts.metadata, "metadata", false, "Dump document metadata as JSON")
	flag.BoolVar(&opts.forms, "forms", false, "Dump form field values as JSON")
	flag.StringVar(&opts.images, "images", "", "Directory to write decoded image streams into")
	flag.DurationVar(&opts.deadline, "deadline", 30*time.Second, "Abort interpretation after this long")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	opts.pdfPath = flag.Arg(0)
	switch opts.format {
	case "text", "markdown", "html":
	default:
		return options{}, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func run(opts options) error {
	data, err := os.ReadFile(opts.pdfPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ex, err := extractor.Open(ctx, data, extractor.Config{Deadline: opts.deadline})
	if err != nil {
		return fmt.Errorf("parse %s: %w", opts.pdfPath, err)
	}

	out := os.Stdout
	if opts.outPath != "" {
		f, err := os.Create(opts.outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if opts.metadata {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ex.Info())
	}
	if opts.forms {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ex.FormFields())
	}
	if opts.images != "" {
		return dumpImages(ctx, ex, opts.images)
	}

	pages, err := collectPages(ctx, ex, opts.page)
	if err != nil {
		return err
	}
	switch opts.format {
	case "markdown":
		return export.Markdown(out, export.Document{Title: ex.Info().Title, Pages: pages})
	case "html":
		return export.HTML(out, export.Document{Title: ex.Info().Title, Pages: pages})
	default:
		for i, text := range pages {
			if i > 0 {
				if _, err := fmt.Fprint(out, "\f"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(out, text); err != nil {
				return err
			}
		}
	}
	return nil
}

func collectPages(ctx context.Context, ex *extractor.Extractor, page int) ([]string, error) {
	if page > 0 {
		if page > ex.PageCount() {
			return nil, fmt.Errorf("page %d out of range, document has %d", page, ex.PageCount())
		}
		text, err := ex.PageText(ctx, page)
		if err != nil {
			return nil, err
		}
		return []string{text}, nil
	}
	pages := make([]string, 0, ex.PageCount())
	for n := 1; n <= ex.PageCount(); n++ {
		text, err := ex.PageText(ctx, n)
		if err != nil {
			return nil, err
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func dumpImages(ctx context.Context, ex *extractor.Extractor, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for n := 1; n <= ex.PageCount(); n++ {
		images, err := ex.Images(ctx, n)
		if err != nil {
			return err
		}
		for _, img := range images {
			if img.Unsupported {
				fmt.Fprintf(os.Stderr, "pdftotext: skipping %s on page %d: unsupported filter chain\n", img.Alias, n)
				continue
			}
			name := fmt.Sprintf("page%d_%s.bin", n, img.Alias)
			if err := os.WriteFile(filepath.Join(dir, name), img.Data, 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}
