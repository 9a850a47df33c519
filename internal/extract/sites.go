package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/shoplens/backend/internal/domain"
)

// DomainParser holds site-specific extraction for one retailer. Either
// function may be nil; the engine falls back to the generic strategies.
type DomainParser struct {
	Listing func(doc *html.Node, base *url.URL) []domain.ProductRecord
	Single  func(doc *html.Node, base *url.URL) *domain.ProductRecord
}

// Registry maps a registrable domain to its parser. Lookup walks suffixes so
// subdomains resolve to their parent entry.
type Registry map[string]DomainParser

// Lookup resolves a hostname to a parser, trying the host itself and then
// each parent suffix ("www.amazon.com", "amazon.com", "com").
func (r Registry) Lookup(host string) (DomainParser, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	for host != "" {
		if parser, ok := r[host]; ok {
			return parser, true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			break
		}
		host = host[dot+1:]
	}
	return DomainParser{}, false
}

// DefaultRegistry returns parsers for the retailers whose markup is stable
// enough to pin selectors for.
func DefaultRegistry() Registry {
	amazon := DomainParser{Listing: amazonListing, Single: amazonSingle}
	ebay := DomainParser{Listing: ebayListing, Single: ebaySingle}
	return Registry{
		"amazon.com":   amazon,
		"amazon.co.uk": amazon,
		"ebay.com":     ebay,
		"ebay.co.uk":   ebay,
	}
}

// amazonListing reads search result cards. The visible price is split into
// whole and fraction spans, so the offscreen copy is authoritative.
func amazonListing(doc *html.Node, base *url.URL) []domain.ProductRecord {
	body := findBody(doc)
	containers := querySelectorAll(body, "[data-component-type=s-search-result]")
	if len(containers) > maxContainersPerPattern {
		containers = containers[:maxContainersPerPattern]
	}

	records := make([]domain.ProductRecord, 0, len(containers))
	seen := make(map[string]bool)
	for _, container := range containers {
		if isSponsored(container) {
			continue
		}
		record := extractRecord(container, base)
		if record == nil {
			continue
		}
		if offscreen := firstMatch(container, []string{".a-price .a-offscreen"}); offscreen != nil {
			if price := parsePrice(nodeText(offscreen)); price != nil {
				record.Price = price
			}
		}
		key := record.URL + "|" + record.Title
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, *record)
	}
	return records
}

func amazonSingle(doc *html.Node, base *url.URL) *domain.ProductRecord {
	body := findBody(doc)
	titleNode := firstMatch(body, []string{"#productTitle"})
	if titleNode == nil {
		return nil
	}
	title := strings.TrimSpace(nodeText(titleNode))
	if len(title) < domain.MinTitleLength {
		return nil
	}
	if len(title) > domain.MaxTitleLength {
		title = title[:domain.MaxTitleLength]
	}

	record := &domain.ProductRecord{
		Title:   title,
		InStock: stockSignal(nodeText(body)),
	}
	if base != nil {
		record.URL = base.String()
	}
	if n := firstMatch(body, []string{".a-price .a-offscreen", "#priceblock_ourprice"}); n != nil {
		record.Price = parsePrice(nodeText(n))
	}
	if img := firstMatch(body, []string{"#landingImage", "#imgTagWrapperId img"}); img != nil {
		if src := getAttr(img, "src"); src != "" && !isPlaceholderImage(src) {
			record.ImageURL = resolveURL(base, src)
		}
	}
	for _, li := range querySelectorAll(body, "#feature-bullets li") {
		text := strings.TrimSpace(nodeText(li))
		if text == "" || len(text) > maxFeatureLength {
			continue
		}
		record.Features = append(record.Features, text)
		if len(record.Features) >= maxFeatures {
			break
		}
	}
	return record
}

// ebayListing reads search result items, dropping the "Shop on eBay"
// placeholder card that leads every result list.
func ebayListing(doc *html.Node, base *url.URL) []domain.ProductRecord {
	body := findBody(doc)
	containers := querySelectorAll(body, "li.s-item")
	if len(containers) > maxContainersPerPattern {
		containers = containers[:maxContainersPerPattern]
	}

	records := make([]domain.ProductRecord, 0, len(containers))
	seen := make(map[string]bool)
	for _, container := range containers {
		if isSponsored(container) {
			continue
		}
		record := extractRecord(container, base)
		if record == nil {
			continue
		}
		if strings.EqualFold(record.Title, "Shop on eBay") {
			continue
		}
		if titleNode := firstMatch(container, []string{".s-item__title"}); titleNode != nil {
			if title := stripPriceText(nodeText(titleNode)); len(title) >= domain.MinTitleLength {
				record.Title = title
			}
		}
		if priceNode := firstMatch(container, []string{".s-item__price"}); priceNode != nil {
			if price := parsePrice(nodeText(priceNode)); price != nil {
				record.Price = price
			}
		}
		key := record.URL + "|" + record.Title
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, *record)
	}
	return records
}

func ebaySingle(doc *html.Node, base *url.URL) *domain.ProductRecord {
	body := findBody(doc)
	titleNode := firstMatch(body, []string{"h1.x-item-title__mainTitle", "[class*=x-item-title]", "h1[itemprop=name]"})
	if titleNode == nil {
		return nil
	}
	title := stripPriceText(nodeText(titleNode))
	if len(title) < domain.MinTitleLength {
		return nil
	}
	if len(title) > domain.MaxTitleLength {
		title = title[:domain.MaxTitleLength]
	}

	record := &domain.ProductRecord{
		Title:   title,
		InStock: stockSignal(nodeText(body)),
	}
	if base != nil {
		record.URL = base.String()
	}
	if n := firstMatch(body, []string{"[itemprop=price]", ".x-price-primary", "[class*=display-price]"}); n != nil {
		if content := getAttr(n, "content"); content != "" {
			record.Price = parsePrice("$" + strings.TrimPrefix(content, "$"))
		}
		if record.Price == nil {
			record.Price = parsePrice(nodeText(n))
		}
	}
	if img := firstMatch(body, []string{"[class*=ux-image-carousel] img", "img[itemprop=image]", "main img"}); img != nil {
		if src := getAttr(img, "src"); src != "" && !isPlaceholderImage(src) {
			record.ImageURL = resolveURL(base, src)
		}
	}
	return record
}
