package extract

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/shoplens/backend/internal/domain"
)

// Page pairs one browsing context's parsed document with a short-lived
// extraction cache, so rapid repeat reads during DOM settling do not re-run
// the cascade.
type Page struct {
	engine  *Engine
	url     *url.URL
	changed chan struct{}

	mu         sync.Mutex
	doc        *html.Node
	records    []domain.ProductRecord
	capturedAt time.Time
	dirty      bool
}

// NewPage parses markup into a page. An unparseable page URL is not fatal;
// relative links in the document simply stay relative.
func (e *Engine) NewPage(pageURL, markup string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	return &Page{
		engine:  e,
		url:     base,
		changed: make(chan struct{}, 1),
		doc:     doc,
		dirty:   true,
	}, nil
}

// Products returns the extracted records, re-running the cascade only when
// the cached result is stale or the document changed.
func (p *Page) Products() []domain.ProductRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.dirty && !p.capturedAt.IsZero() && time.Since(p.capturedAt) < p.engine.cacheTTL {
		return p.records
	}

	p.records = p.engine.Extract(p.doc, p.url)
	p.capturedAt = time.Now()
	p.dirty = false
	return p.records
}

// MutationObserved marks the document dirty so the next read re-extracts.
// Call it when the page reports DOM changes.
func (p *Page) MutationObserved() {
	p.mu.Lock()
	p.dirty = true
	p.mu.Unlock()
	p.notify()
}

// SetMarkup replaces the document with a fresh snapshot of the page.
func (p *Page) SetMarkup(markup string) error {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parse markup: %w", err)
	}
	p.mu.Lock()
	p.doc = doc
	p.dirty = true
	p.mu.Unlock()
	p.notify()
	return nil
}

// Changed signals that the document changed since the last read. The channel
// holds at most one pending signal; coalesced bursts wake a waiter once.
func (p *Page) Changed() <-chan struct{} {
	return p.changed
}

func (p *Page) notify() {
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

// SingleProduct reads the page as a product detail page, bypassing the
// cache. Pages whose URL does not look like a detail page must show a
// price to count. Used as a last resort when listing extraction keeps
// coming up empty.
func (p *Page) SingleProduct() *domain.ProductRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return detectSingle(p.doc, p.url)
}
