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

// productPathPatterns describe URL paths typical of a product detail page
var productPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/dp/[A-Z0-9]{8,}`),
	regexp.MustCompile(`/gp/product/`),
	regexp.MustCompile(`/itm/`),
	regexp.MustCompile(`/products?/[\w-]+`),
	regexp.MustCompile(`/items?/[\w-]+`),
	regexp.MustCompile(`/p/[\w-]+`),
	regexp.MustCompile(`/ip/[\w-]+`),
	regexp.MustCompile(`-p-\d+`),
	regexp.MustCompile(`/(?:buy|detail|goods)/`),
}

// Ordered by decreasing specificity; the generic "h1" comes last.
var singleTitleSelectors = []string{
	"h1[itemprop=name]",
	"#productTitle",
	"h1[class*=product-title]",
	"h1[class*=product]",
	"[class*=product-title]",
	"h1[class*=title]",
	"h1",
}

var singlePriceSelectors = []string{
	"[itemprop=price]",
	"[class*=price-current]",
	"[class*=product-price]",
	"[class*=offer-price]",
	"[class*=sale-price]",
	"[class*=price]",
}

var singleImageSelectors = []string{
	"[itemprop=image]",
	"#landingImage",
	"img[class*=product-image]",
	"img[class*=product]",
	"[class*=product-image] img",
	"[class*=gallery] img",
	"main img",
}

var singleDescriptionSelectors = []string{
	"[itemprop=description]",
	"#feature-bullets",
	"[class*=product-description]",
	"[class*=description]",
}

var singleFeatureSelectors = []string{
	"#feature-bullets li",
	"[class*=feature] li",
	"[class*=product-details] li",
}

const (
	maxFeatures        = 5
	maxFeatureLength   = 120
	minParagraphLength = 40
	maxBodyPriceScan   = 200
)

// isProductPath reports whether a URL path looks like a product detail page
func isProductPath(u *url.URL) bool {
	if u == nil {
		return false
	}
	for _, pattern := range productPathPatterns {
		if pattern.MatchString(u.Path) {
			return true
		}
	}
	return false
}

// detectSingle extracts the one product a detail page is about. Emits
// exactly one record or none. When the URL path does not look like a
// detail page, a price is required before the page is trusted as one.
func detectSingle(doc *html.Node, base *url.URL) *domain.ProductRecord {
	body := findBody(doc)

	title := singleTitle(body)
	if len(title) < domain.MinTitleLength {
		return nil
	}
	if len(title) > domain.MaxTitleLength {
		title = title[:domain.MaxTitleLength]
	}

	price := singlePrice(body)
	if price == nil && !isProductPath(base) {
		// A bare heading on an arbitrary URL is not a product page
		return nil
	}

	pageURL := ""
	if base != nil {
		pageURL = base.String()
	}

	record := &domain.ProductRecord{
		Title:       title,
		Price:       price,
		URL:         pageURL,
		ImageURL:    singleImage(body, base),
		Description: singleDescription(body, title),
		Features:    singleFeatures(body),
		InStock:     stockSignal(nodeText(body)),
	}

	text := nodeText(body)
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

func singleTitle(body *html.Node) string {
	if n := firstMatch(body, singleTitleSelectors); n != nil {
		return stripPriceText(nodeText(n))
	}
	return ""
}

// singlePrice tries the selector list, element content attributes included,
// then falls back to the first price-looking text fragment in the body.
func singlePrice(body *html.Node) *float64 {
	for _, sel := range singlePriceSelectors {
		for _, n := range querySelectorAll(body, sel) {
			// Microdata often carries the price in a content attribute
			if content := getAttr(n, "content"); content != "" {
				if price := parsePrice("$" + strings.TrimPrefix(content, "$")); price != nil {
					return price
				}
			}
			if price := parsePrice(nodeText(n)); price != nil {
				return price
			}
		}
	}
	return firstBodyPrice(body)
}

// firstBodyPrice scans text nodes for the first short price-looking
// fragment, bounding how many fragments are inspected.
func firstBodyPrice(body *html.Node) *float64 {
	var price *float64
	scanned := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if price != nil || scanned >= maxBodyPriceScan {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				scanned++
				if isPriceText(text) {
					price = parsePrice(text)
					return
				}
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	return price
}

func singleImage(body *html.Node, base *url.URL) string {
	if n := firstMatch(body, singleImageSelectors); n != nil {
		for _, key := range []string{"src", "data-src", "data-lazy-src"} {
			src := getAttr(n, key)
			if src != "" && !isPlaceholderImage(src) {
				return resolveURL(base, src)
			}
		}
	}
	return ""
}

func singleDescription(body *html.Node, title string) string {
	if n := firstMatch(body, singleDescriptionSelectors); n != nil {
		text := strings.TrimSpace(nodeText(n))
		if text != "" && text != title {
			if len(text) > maxDescriptionLength {
				text = text[:maxDescriptionLength]
			}
			return text
		}
	}

	// Last resort: the first substantial paragraph
	for _, p := range querySelectorAll(body, "p") {
		text := strings.TrimSpace(nodeText(p))
		if len(text) >= minParagraphLength {
			if len(text) > maxDescriptionLength {
				text = text[:maxDescriptionLength]
			}
			return text
		}
	}
	return ""
}

func singleFeatures(body *html.Node) []string {
	var features []string
	for _, sel := range singleFeatureSelectors {
		for _, li := range querySelectorAll(body, sel) {
			text := strings.TrimSpace(nodeText(li))
			if text == "" || len(text) > maxFeatureLength {
				continue
			}
			features = append(features, text)
			if len(features) >= maxFeatures {
				return features
			}
		}
		if len(features) > 0 {
			return features
		}
	}
	return features
}

