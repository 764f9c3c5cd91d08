package detectors

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pageaudit/pageaudit/internal/signal"
)

// Headings scores the heading outline: exactly one h1, no skipped levels.
type Headings struct{}

func (Headings) ID() string     { return "structure.headings" }
func (Headings) Domain() string { return "structure" }
func (Headings) Metric() string { return "headings" }

func (Headings) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	doc := page.Document()

	h1Count := doc.Find("h1").Length()
	p := signal.Payload{Score: 100, Details: map[string]any{"h1_count": h1Count}}

	switch {
	case h1Count == 0:
		p.Score -= 50
		p.Issues = append(p.Issues, "The page has no <h1>.")
	case h1Count > 1:
		p.Score -= 30
		p.Issues = append(p.Issues, fmt.Sprintf("The page has %d <h1> elements; keep exactly one.", h1Count))
	}

	// Walk headings in document order and flag level skips (h2 -> h4).
	prev := 0
	skips := 0
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		if prev > 0 && level > prev+1 {
			skips++
		}
		prev = level
	})
	if skips > 0 {
		p.Score -= float64(10 * skips)
		p.Issues = append(p.Issues, fmt.Sprintf("Heading hierarchy skips %d level(s).", skips))
	}

	if p.Score < 0 {
		p.Score = 0
	}
	return p, nil
}

// ImageAlt scores alt-text coverage over content images. A page with no
// images has nothing to fail and scores full marks.
type ImageAlt struct{}

func (ImageAlt) ID() string     { return "structure.image_alt" }
func (ImageAlt) Domain() string { return "structure" }
func (ImageAlt) Metric() string { return "image_alt" }

func (ImageAlt) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	imgs := page.Document().Find("img")
	total := imgs.Length()

	withAlt := 0
	imgs.Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); ok {
			withAlt++
		}
	})

	p := signal.Payload{Details: map[string]any{"images": total, "with_alt": withAlt}}
	if total == 0 {
		p.Score = 100
		return p, nil
	}

	p.Score = float64(withAlt) / float64(total) * 100
	if withAlt < total {
		p.Issues = append(p.Issues, fmt.Sprintf("%d of %d images lack an alt attribute.", total-withAlt, total))
	}
	return p, nil
}

// genericAnchorText flags link labels that carry no destination meaning.
var genericAnchorText = map[string]bool{
	"click here": true,
	"here":       true,
	"read more":  true,
	"more":       true,
	"link":       true,
}

// Links scores anchor quality: dead hrefs and generic link text.
type Links struct{}

func (Links) ID() string     { return "structure.links" }
func (Links) Domain() string { return "structure" }
func (Links) Metric() string { return "links" }

func (Links) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	anchors := page.Document().Find("a")
	total := anchors.Length()

	dead := 0
	generic := 0
	anchors.Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			dead++
		}
		if genericAnchorText[strings.ToLower(strings.TrimSpace(s.Text()))] {
			generic++
		}
	})

	p := signal.Payload{Details: map[string]any{"links": total, "dead": dead, "generic_text": generic}}
	if total == 0 {
		p.Score = 100
		return p, nil
	}

	p.Score = 100
	if dead > 0 {
		p.Score -= float64(dead) / float64(total) * 60
		p.Issues = append(p.Issues, fmt.Sprintf("%d of %d links have an empty, #, or javascript: href.", dead, total))
	}
	if generic > 0 {
		p.Score -= float64(generic) / float64(total) * 40
		p.Issues = append(p.Issues, fmt.Sprintf("%d link(s) use generic text such as \"click here\".", generic))
	}
	if p.Score < 0 {
		p.Score = 0
	}
	return p, nil
}
