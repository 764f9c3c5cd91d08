package detectors

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pageaudit/pageaudit/internal/signal"
)

// Viewport checks for a mobile viewport declaration.
type Viewport struct{}

func (Viewport) ID() string     { return "technical.viewport" }
func (Viewport) Domain() string { return "technical" }
func (Viewport) Metric() string { return "viewport" }

func (Viewport) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	content := strings.TrimSpace(page.Document().Find(`meta[name="viewport"]`).First().AttrOr("content", ""))
	p := signal.Payload{Details: map[string]any{"present": content != "", "content": content}}

	switch {
	case content == "":
		p.Score = 0
		p.Issues = append(p.Issues, "No viewport meta tag; the page is not mobile-ready.")
	case !strings.Contains(content, "width=device-width"):
		p.Score = 60
		p.Issues = append(p.Issues, "Viewport does not set width=device-width.")
	default:
		p.Score = 100
	}
	return p, nil
}

// Canonical checks for a canonical link declaration.
type Canonical struct{}

func (Canonical) ID() string     { return "technical.canonical" }
func (Canonical) Domain() string { return "technical" }
func (Canonical) Metric() string { return "canonical" }

func (Canonical) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	href := strings.TrimSpace(page.Document().Find(`link[rel="canonical"]`).First().AttrOr("href", ""))
	p := signal.Payload{Details: map[string]any{"present": href != "", "href": href}}

	switch {
	case href == "":
		p.Score = 0
		p.Issues = append(p.Issues, "No canonical link declared.")
	case !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://"):
		p.Score = 70
		p.Issues = append(p.Issues, "Canonical href is relative; use an absolute URL.")
	default:
		p.Score = 100
	}
	return p, nil
}

// langPattern admits BCP 47-shaped tags like "en", "en-US", "pt-BR".
var langPattern = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]+)*$`)

// Language checks the lang attribute on the html element.
type Language struct{}

func (Language) ID() string     { return "technical.language" }
func (Language) Domain() string { return "technical" }
func (Language) Metric() string { return "language" }

func (Language) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	lang := strings.TrimSpace(page.Document().Find("html").First().AttrOr("lang", ""))
	p := signal.Payload{Details: map[string]any{"present": lang != "", "lang": lang}}

	switch {
	case lang == "":
		p.Score = 0
		p.Issues = append(p.Issues, "The <html> element has no lang attribute.")
	case !langPattern.MatchString(lang):
		p.Score = 50
		p.Issues = append(p.Issues, fmt.Sprintf("lang=%q is not a valid language tag.", lang))
	default:
		p.Score = 100
	}
	return p, nil
}

// PageWeight scores document size and render-blocking script usage.
type PageWeight struct{}

func (PageWeight) ID() string     { return "technical.page_weight" }
func (PageWeight) Domain() string { return "technical" }
func (PageWeight) Metric() string { return "page_weight" }

func (PageWeight) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	size := len(page.HTML)

	blocking := 0
	page.Document().Find("head script[src]").Each(func(_ int, s *goquery.Selection) {
		if _, async := s.Attr("async"); async {
			return
		}
		if _, deferred := s.Attr("defer"); deferred {
			return
		}
		blocking++
	})

	p := signal.Payload{
		Score: 100,
		Details: map[string]any{
			"html_bytes":       size,
			"blocking_scripts": blocking,
		},
	}

	switch {
	case size > 1_500_000:
		p.Score -= 40
		p.Issues = append(p.Issues, fmt.Sprintf("Document is %d KB of HTML; consider trimming markup.", size/1024))
	case size > 500_000:
		p.Score -= 20
		p.Issues = append(p.Issues, fmt.Sprintf("Document is %d KB of HTML.", size/1024))
	}

	if blocking > 0 {
		penalty := float64(10 * blocking)
		if penalty > 40 {
			penalty = 40
		}
		p.Score -= penalty
		p.Issues = append(p.Issues, fmt.Sprintf("%d render-blocking script(s) in <head>; add defer or async.", blocking))
	}

	if p.Score < 0 {
		p.Score = 0
	}
	return p, nil
}

// sorted returns a sorted copy for stable issue messages.
func sorted(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
