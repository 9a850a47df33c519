package extract

import (
	"log"
	"net/url"
	"time"

	"golang.org/x/net/html"

	"github.com/shoplens/backend/internal/domain"
)

const defaultCacheTTL = 2 * time.Second

// Config holds optional settings for the extraction engine
type Config struct {
	// CacheTTL bounds how long a Page serves cached results before
	// re-reading the document. Defaults to 2 seconds.
	CacheTTL time.Duration
	// EnableDebugLogging turns on detailed logs for extraction decisions
	EnableDebugLogging bool
}

// Engine runs the extraction cascade over parsed pages. Strategies run in
// order of reliability; the first one producing a usable result wins.
type Engine struct {
	registry           Registry
	cacheTTL           time.Duration
	enableDebugLogging bool
}

// NewEngine creates an extraction engine. A nil registry gets the default
// site parsers.
func NewEngine(registry Registry, config Config) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Engine{
		registry:           registry,
		cacheTTL:           ttl,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Extract runs the cascade and returns product records, best strategy first:
// site parser, single-page detection on product-looking URLs, card class
// patterns, price-anchored scan, repeated structure, image links, and a
// final single-page pass for detail pages whose URL path gives nothing away.
func (e *Engine) Extract(doc *html.Node, base *url.URL) []domain.ProductRecord {
	records, strategy := e.extract(doc, base)
	records = e.finalize(records)
	if e.enableDebugLogging && len(records) > 0 {
		log.Printf("[EXTRACT] Strategy %q produced %d products", strategy, len(records))
	}
	return records
}

func (e *Engine) extract(doc *html.Node, base *url.URL) ([]domain.ProductRecord, string) {
	if base != nil {
		if parser, ok := e.registry.Lookup(base.Hostname()); ok {
			if parser.Listing != nil {
				if records := parser.Listing(doc, base); len(records) >= minUsableRecords {
					return records, "site-listing"
				}
			}
			if parser.Single != nil && isProductPath(base) {
				if record := parser.Single(doc, base); record != nil {
					return []domain.ProductRecord{*record}, "site-single"
				}
			}
		}
	}

	if isProductPath(base) {
		if record := detectSingle(doc, base); record != nil {
			return []domain.ProductRecord{*record}, "single-page"
		}
	}

	body := findBody(doc)
	if records := scanCardPatterns(body, base); len(records) >= minUsableRecords {
		return records, "card-patterns"
	}
	if records := scanPriceAnchored(body, base); len(records) >= minUsableRecords {
		return records, "price-anchored"
	}
	if records := scanRepeatedStructure(body, base); len(records) >= minUsableRecords {
		return records, "repeated-structure"
	}
	if records := scanImageLinks(body, base); len(records) >= minUsableRecords {
		return records, "image-links"
	}

	// A detail page whose URL gives nothing away gets a final look;
	// detectSingle demands a price on such URLs.
	if record := detectSingle(doc, base); record != nil {
		return []domain.ProductRecord{*record}, "single-fallback"
	}
	return nil, "none"
}

// finalize drops invalid records and products marked out of stock. Stock is
// a quality signal, not a hard requirement: when everything is out of stock
// the unfiltered list is returned rather than nothing.
func (e *Engine) finalize(records []domain.ProductRecord) []domain.ProductRecord {
	valid := make([]domain.ProductRecord, 0, len(records))
	for _, record := range records {
		if record.Valid() {
			valid = append(valid, record)
		}
	}

	inStock := make([]domain.ProductRecord, 0, len(valid))
	for _, record := range valid {
		if record.InStock == nil || *record.InStock {
			inStock = append(inStock, record)
		}
	}
	if len(inStock) == 0 {
		return valid
	}
	return inStock
}
