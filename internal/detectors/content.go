package detectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageaudit/pageaudit/internal/signal"
)

// Title scores the document title: present, and neither truncated nor
// stuffed (search results cut around 60 characters).
type Title struct{}

func (Title) ID() string     { return "content.title" }
func (Title) Domain() string { return "content" }
func (Title) Metric() string { return "title" }

func (Title) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	title := page.Title
	p := signal.Payload{Details: map[string]any{
		"present": title != "",
		"length":  len(title),
	}}

	switch n := len(title); {
	case n == 0:
		p.Score = 0
		p.Issues = append(p.Issues, "The page has no <title>.")
	case n < 15:
		p.Score = 50
		p.Issues = append(p.Issues, fmt.Sprintf("Title is only %d characters; aim for 30-60.", n))
	case n > 60:
		p.Score = 70
		p.Issues = append(p.Issues, fmt.Sprintf("Title is %d characters and will be truncated around 60.", n))
	default:
		p.Score = 100
	}
	return p, nil
}

// MetaDescription scores the meta description tag.
type MetaDescription struct{}

func (MetaDescription) ID() string     { return "content.meta_description" }
func (MetaDescription) Domain() string { return "content" }
func (MetaDescription) Metric() string { return "meta_description" }

func (MetaDescription) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	desc := strings.TrimSpace(page.Document().Find(`meta[name="description"]`).First().AttrOr("content", ""))
	p := signal.Payload{Details: map[string]any{
		"present": desc != "",
		"length":  len(desc),
	}}

	switch n := len(desc); {
	case n == 0:
		p.Score = 0
		p.Issues = append(p.Issues, "The page has no meta description.")
	case n < 70:
		p.Score = 60
		p.Issues = append(p.Issues, fmt.Sprintf("Meta description is only %d characters; aim for 70-160.", n))
	case n > 160:
		p.Score = 70
		p.Issues = append(p.Issues, fmt.Sprintf("Meta description is %d characters and will be truncated around 160.", n))
	default:
		p.Score = 100
	}
	return p, nil
}

// ContentLength scores the visible body text volume.
type ContentLength struct{}

func (ContentLength) ID() string     { return "content.content_length" }
func (ContentLength) Domain() string { return "content" }
func (ContentLength) Metric() string { return "content_length" }

func (ContentLength) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	words := len(strings.Fields(page.Document().Find("body").Text()))
	p := signal.Payload{Details: map[string]any{"word_count": words}}

	switch {
	case words >= 600:
		p.Score = 100
	case words >= 300:
		p.Score = 75
		p.Issues = append(p.Issues, fmt.Sprintf("Body has %d words; substantive pages usually carry 600+.", words))
	case words >= 100:
		p.Score = 50
		p.Issues = append(p.Issues, fmt.Sprintf("Body has only %d words of visible text.", words))
	default:
		p.Score = 20
		p.Issues = append(p.Issues, fmt.Sprintf("Body has almost no visible text (%d words).", words))
	}
	return p, nil
}

// SocialMeta scores social preview coverage: Open Graph plus Twitter card.
type SocialMeta struct{}

func (SocialMeta) ID() string     { return "content.social_meta" }
func (SocialMeta) Domain() string { return "content" }
func (SocialMeta) Metric() string { return "social_meta" }

func (SocialMeta) Detect(_ context.Context, page *signal.Context) (signal.Payload, error) {
	doc := page.Document()
	tags := map[string]string{
		"og:title":       `meta[property="og:title"]`,
		"og:description": `meta[property="og:description"]`,
		"og:image":       `meta[property="og:image"]`,
		"twitter:card":   `meta[name="twitter:card"]`,
	}

	p := signal.Payload{Details: map[string]any{}}
	var missing []string
	for name, selector := range tags {
		present := strings.TrimSpace(doc.Find(selector).First().AttrOr("content", "")) != ""
		p.Details[name] = present
		if present {
			p.Score += 25
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		p.Issues = append(p.Issues, "Missing social preview tags: "+strings.Join(sorted(missing), ", ")+".")
	}
	return p, nil
}
