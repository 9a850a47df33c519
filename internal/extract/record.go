package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/shoplens/backend/internal/domain"
)

// titleSelectors find a product title inside a card, most specific first.
// Headings are tried before these via firstHeading.
var titleSelectors = []string{
	"[itemprop=name]",
	"[class*=product-title]",
	"[class*=product-name]",
	"[class*=item-title]",
	"[class*=title]",
	"[class*=name]",
}

var descriptionSelectors = []string{
	"[itemprop=description]",
	"[class*=description]",
	"[class*=desc]",
	"p",
}

// ratingPattern pulls "4.5 out of 5", "4.5/5" or "4.5 stars" from text
var ratingPattern = regexp.MustCompile(`(\d(?:\.\d)?)\s*(?:out\s+of\s+5|/\s*5|stars?)`)

// reviewCountPattern pulls "1,234 reviews" or "56 ratings" from text
var reviewCountPattern = regexp.MustCompile(`([\d,]+)\s*(?:reviews?|ratings?)`)

// Explicit availability markers. Absence of a marker means unknown, not in
// stock.
var outOfStockMarkers = []string{
	"out of stock",
	"sold out",
	"currently unavailable",
	"no longer available",
}

var inStockMarkers = []string{
	"in stock",
	"add to cart",
	"add to basket",
	"add to bag",
}

var sponsoredAttrValues = []string{
	"sponsored",
	"sp-sponsored-result",
	"ad-badge",
	"adholder",
}

const maxDescriptionLength = 300

// extractRecord pulls one product record out of a card container. Returns
// nil when the container does not yield a valid record, in particular when
// the title (after embedded price stripping) is under the minimum length.
func extractRecord(container *html.Node, base *url.URL) *domain.ProductRecord {
	title := extractTitle(container)
	if len(title) < domain.MinTitleLength {
		return nil
	}
	if len(title) > domain.MaxTitleLength {
		title = title[:domain.MaxTitleLength]
	}

	text := nodeText(container)

	record := &domain.ProductRecord{
		Title:       title,
		Price:       parsePrice(text),
		URL:         extractURL(container, base),
		ImageURL:    extractImage(container, base),
		Description: extractDescription(container, title),
		InStock:     stockSignal(text),
	}

	if m := ratingPattern.FindStringSubmatch(text); m != nil {
		if rating, err := strconv.ParseFloat(m[1], 64); err == nil && rating <= 5 {
			record.Rating = rating
		}
	}
	if m := reviewCountPattern.FindStringSubmatch(text); m != nil {
		if count, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			record.ReviewCount = count
		}
	}

	return record
}

// extractTitle finds the most title-like text in a card: first heading, then
// title-class elements, then the longest anchor text. Embedded prices are
// stripped so "Widget $9.99" becomes "Widget".
func extractTitle(container *html.Node) string {
	if h := firstHeading(container); h != nil {
		if title := stripPriceText(nodeText(h)); title != "" {
			return title
		}
	}

	if n := firstMatch(container, titleSelectors); n != nil {
		if title := stripPriceText(nodeText(n)); title != "" {
			return title
		}
	}

	var best string
	for _, a := range querySelectorAll(container, "a") {
		text := stripPriceText(nodeText(a))
		if len(text) > len(best) {
			best = text
		}
	}
	if len(best) >= domain.MinTitleLength {
		return best
	}

	// Image-heavy cards often carry the product name only in alt text
	if img := firstByTag(container, atom.Img); img != nil {
		if alt := stripPriceText(getAttr(img, "alt")); len(alt) > len(best) {
			best = alt
		}
	}
	return best
}

func extractURL(container *html.Node, base *url.URL) string {
	for _, a := range querySelectorAll(container, "a") {
		href := getAttr(a, "href")
		if isPlaceholderHref(href) {
			continue
		}
		return resolveURL(base, href)
	}
	return ""
}

func extractImage(container *html.Node, base *url.URL) string {
	for _, img := range querySelectorAll(container, "img") {
		// Lazy-loading sites keep the real URL in a data attribute and a
		// placeholder in src.
		for _, key := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
			src := getAttr(img, key)
			if src != "" && !isPlaceholderImage(src) {
				return resolveURL(base, src)
			}
		}
	}
	return ""
}

func extractDescription(container *html.Node, title string) string {
	for _, sel := range descriptionSelectors {
		for _, n := range querySelectorAll(container, sel) {
			text := strings.TrimSpace(nodeText(n))
			// The description must say something beyond the title
			if text == "" || text == title {
				continue
			}
			if len(text) > maxDescriptionLength {
				text = text[:maxDescriptionLength]
			}
			return text
		}
	}
	return ""
}

// stockSignal returns a value only for explicit availability markers;
// everything else is unknown (nil).
func stockSignal(text string) *bool {
	lowered := strings.ToLower(text)
	for _, marker := range outOfStockMarkers {
		if strings.Contains(lowered, marker) {
			return domain.BoolPtr(false)
		}
	}
	for _, marker := range inStockMarkers {
		if strings.Contains(lowered, marker) {
			return domain.BoolPtr(true)
		}
	}
	return nil
}

// isSponsored recognizes common sponsored/ad markers on a card. Best-effort:
// a miss means an ad slips through, never that a product is dropped.
func isSponsored(container *html.Node) bool {
	marker := strings.ToLower(getAttr(container, "class") + " " + getAttr(container, "data-component-type"))
	for _, v := range sponsoredAttrValues {
		if strings.Contains(marker, v) {
			return true
		}
	}

	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if strings.EqualFold(text, "sponsored") || strings.EqualFold(text, "ad") {
				found = true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(container)
	return found
}

func isPlaceholderHref(href string) bool {
	href = strings.TrimSpace(href)
	return href == "" || href == "#" || strings.HasPrefix(href, "javascript:")
}

func isPlaceholderImage(src string) bool {
	lowered := strings.ToLower(strings.TrimSpace(src))
	if lowered == "" || strings.HasPrefix(lowered, "data:") {
		return true
	}
	for _, marker := range []string{"placeholder", "spacer", "loading", "spinner", "blank."} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func resolveURL(base *url.URL, ref string) string {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	if base == nil {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}

// recordsFrom extracts records from card containers, dropping sponsored
// cards and invalid records, deduplicating by URL and title.
func recordsFrom(containers []*html.Node, base *url.URL) []domain.ProductRecord {
	var records []domain.ProductRecord
	seen := make(map[string]bool)

	for _, container := range containers {
		if isSponsored(container) {
			continue
		}
		record := extractRecord(container, base)
		if record == nil {
			continue
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
