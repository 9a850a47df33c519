package domain

// MaxTitleLength caps product titles extracted from page markup
const MaxTitleLength = 200

// MinTitleLength is the shortest title accepted for an extracted record.
// Anything under this (after stripping embedded price text) is assumed to be
// navigation chrome, not a product.
const MinTitleLength = 5

// ProductRecord is one scraped product candidate. Records are value objects:
// recomputed per page visit, never mutated after creation, only replaced
// wholesale by a fresh scrape.
type ProductRecord struct {
	Title       string   `json:"title"`
	Price       *float64 `json:"price"` // nil means unknown; 0 is a real price
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Rating      float64  `json:"rating,omitempty"` // 0-5
	ReviewCount int      `json:"reviewCount,omitempty"`
	InStock     *bool    `json:"inStock,omitempty"` // nil when no availability signal
	Features    []string `json:"features,omitempty"`
}

// Valid reports whether the record may be emitted at all. A record with an
// empty or near-empty title must never leave the extraction engine.
func (p *ProductRecord) Valid() bool {
	return len(p.Title) >= MinTitleLength
}

// Float64Ptr returns a pointer to v, for building nullable prices
func Float64Ptr(v float64) *float64 { return &v }

// BoolPtr returns a pointer to b, for building nullable stock flags
func BoolPtr(b bool) *bool { return &b }
