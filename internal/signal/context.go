package signal

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Context is the read-only analysis context shared by all detectors in a
// run. Callers supply already-rendered HTML; the pipeline never fetches
// or renders pages itself.
//
// The goquery document is shared across concurrently running detectors,
// so detectors must treat it as immutable (selector reads only).
type Context struct {
	URL   string
	Title string
	HTML  string

	doc *goquery.Document
}

// NewContext parses rawHTML into an analysis context for the given URL.
func NewContext(url, rawHTML string) (*Context, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, fmt.Errorf("signal: empty document")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("signal: parse document: %w", err)
	}

	return &Context{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		HTML:  rawHTML,
		doc:   doc,
	}, nil
}

// Document returns the parsed DOM for selector queries.
func (c *Context) Document() *goquery.Document {
	return c.doc
}
