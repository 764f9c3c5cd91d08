package signal

import (
	"context"
	"strings"
	"testing"
)

// --- NewContext ---

func TestNewContext_ExtractsTitle(t *testing.T) {
	page, err := NewContext("https://example.com", "<html><head><title>  Hello World </title></head><body></body></html>")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if page.Title != "Hello World" {
		t.Errorf("Title = %q, want %q", page.Title, "Hello World")
	}
	if page.URL != "https://example.com" {
		t.Errorf("URL = %q, want the input URL", page.URL)
	}
}

func TestNewContext_NoTitle(t *testing.T) {
	page, err := NewContext("", "<html><body><p>hi</p></body></html>")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if page.Title != "" {
		t.Errorf("Title = %q, want empty", page.Title)
	}
}

func TestNewContext_EmptyDocument(t *testing.T) {
	if _, err := NewContext("https://example.com", "   "); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestNewContext_DocumentQueryable(t *testing.T) {
	page, err := NewContext("", "<html><body><h1>a</h1><h1>b</h1></body></html>")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if got := page.Document().Find("h1").Length(); got != 2 {
		t.Errorf("h1 count = %d, want 2", got)
	}
}

// --- Bundles ---

type probe struct{}

func (probe) ID() string     { return "test.probe" }
func (probe) Domain() string { return "test" }
func (probe) Metric() string { return "probe" }
func (probe) Detect(_ context.Context, _ *Context) (Payload, error) {
	return Payload{}, nil
}

func TestOK_SetsPayloadOnly(t *testing.T) {
	b := OK(probe{}, Payload{Score: 42}, 0)
	if b.Status != StatusOK {
		t.Errorf("Status = %s, want ok", b.Status)
	}
	if b.Payload == nil || b.Payload.Score != 42 {
		t.Errorf("Payload = %+v, want score 42", b.Payload)
	}
	if b.Err != "" {
		t.Errorf("Err = %q, want empty", b.Err)
	}
	if b.DetectorID != "test.probe" || b.Domain != "test" || b.Metric != "probe" {
		t.Errorf("identity = %s/%s/%s, want test.probe/test/probe", b.DetectorID, b.Domain, b.Metric)
	}
}

func TestFailed_SetsErrorOnly(t *testing.T) {
	b := Failed(probe{}, errBoom{}, 0)
	if b.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", b.Status)
	}
	if b.Payload != nil {
		t.Errorf("Payload = %+v, want nil", b.Payload)
	}
	if !strings.Contains(b.Err, "boom") {
		t.Errorf("Err = %q, want it to mention boom", b.Err)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
