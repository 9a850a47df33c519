package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/shoplens/backend/internal/domain"
)

const (
	// minUsableRecords is the floor below which a strategy's output is
	// considered noise and the next strategy runs instead.
	minUsableRecords = 2

	// minSiblingRecords is how many qualifying siblings a repeated
	// structure needs before it counts as a listing.
	minSiblingRecords = 3

	maxContainersPerPattern = 20
	maxPriceNodes           = 20
	maxAncestorHops         = 5
)

// cardSelectors cover the class and attribute names listing pages commonly
// give their product cards. Ordered from most to least specific.
var cardSelectors = []string{
	"[data-component-type=s-search-result]",
	"[data-testid*=product]",
	"[class*=product-card]",
	"[class*=product-item]",
	"[class*=product-tile]",
	"[class*=search-result]",
	"[class*=result-item]",
	"[class*=item-card]",
	"li[class*=product]",
	"article[class*=product]",
	"div[class*=product]",
	"[class*=listing-item]",
	"[class*=grid-item]",
}

// repeatedPatterns are parent/child shapes listing grids tend to take.
var repeatedPatterns = []string{
	"ul > li",
	"ol > li",
	"[class*=grid] > div",
	"[class*=list] > div",
	"[class*=products] > div",
	"[class*=results] > div",
	"[class*=items] > div",
	"div > article",
}

// scanCardPatterns matches known card class patterns. A pattern that yields
// fewer than minUsableRecords is treated as a wrapper hit and skipped, so a
// selector that happens to match a page-level container does not end the
// cascade early.
func scanCardPatterns(body *html.Node, base *url.URL) []domain.ProductRecord {
	for _, sel := range cardSelectors {
		containers := querySelectorAll(body, sel)
		if len(containers) > maxContainersPerPattern {
			containers = containers[:maxContainersPerPattern]
		}
		records := recordsFrom(containers, base)
		if len(records) >= minUsableRecords {
			return records
		}
	}
	return nil
}

// scanPriceAnchored starts from price-looking text and walks upward to the
// nearest ancestor shaped like a product card.
func scanPriceAnchored(body *html.Node, base *url.URL) []domain.ProductRecord {
	var containers []*html.Node
	seen := make(map[*html.Node]bool)
	for _, priceNode := range findPriceNodes(body) {
		card := cardAncestor(priceNode)
		if card == nil || seen[card] {
			continue
		}
		seen[card] = true
		containers = append(containers, card)
		if len(containers) >= maxContainersPerPattern {
			break
		}
	}
	return recordsFrom(containers, base)
}

// findPriceNodes returns elements whose own text reads as a price, capped at
// maxPriceNodes.
func findPriceNodes(body *html.Node) []*html.Node {
	var nodes []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if len(nodes) >= maxPriceNodes {
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
			if isPriceText(strings.TrimSpace(ownText(n))) {
				nodes = append(nodes, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(body)
	return nodes
}

// cardAncestor walks up from a price node looking for a container that also
// holds a link and either an image or a heading. Stops at the body.
func cardAncestor(n *html.Node) *html.Node {
	current := n.Parent
	for hops := 0; hops < maxAncestorHops && current != nil; hops++ {
		if current.Type != html.ElementNode {
			return nil
		}
		switch current.DataAtom {
		case atom.Body, atom.Html:
			return nil
		}
		if containsLink(current) && (containsImage(current) || containsHeading(current)) {
			return current
		}
		current = current.Parent
	}
	return nil
}

// scanRepeatedStructure looks for groups of at least minSiblingRecords
// same-shaped siblings that each carry a price and a link. Three near
// identical priced siblings almost never happen outside a listing.
func scanRepeatedStructure(body *html.Node, base *url.URL) []domain.ProductRecord {
	var containers []*html.Node
	seen := make(map[*html.Node]bool)
	for _, pattern := range repeatedPatterns {
		for _, group := range groupByParent(querySelectorAll(body, pattern)) {
			qualifying := make([]*html.Node, 0, len(group))
			for _, sib := range group {
				if hasCurrency(nodeText(sib)) && containsLink(sib) {
					qualifying = append(qualifying, sib)
				}
			}
			if len(qualifying) < minSiblingRecords {
				continue
			}
			for _, sib := range qualifying {
				if seen[sib] {
					continue
				}
				seen[sib] = true
				containers = append(containers, sib)
				if len(containers) >= maxContainersPerPattern {
					return recordsFrom(containers, base)
				}
			}
		}
	}
	return recordsFrom(containers, base)
}

// groupByParent buckets nodes by their parent, preserving document order of
// both parents and children.
func groupByParent(nodes []*html.Node) [][]*html.Node {
	var order []*html.Node
	groups := make(map[*html.Node][]*html.Node)
	for _, n := range nodes {
		if n.Parent == nil {
			continue
		}
		if _, ok := groups[n.Parent]; !ok {
			order = append(order, n.Parent)
		}
		groups[n.Parent] = append(groups[n.Parent], n)
	}
	out := make([][]*html.Node, 0, len(order))
	for _, parent := range order {
		out = append(out, groups[parent])
	}
	return out
}

// scanImageLinks is the loosest strategy: anchors wrapping an image whose
// parent or grandparent text mentions a price.
func scanImageLinks(body *html.Node, base *url.URL) []domain.ProductRecord {
	var containers []*html.Node
	seen := make(map[*html.Node]bool)
	for _, anchor := range querySelectorAll(body, "a") {
		if !containsImage(anchor) {
			continue
		}
		container := priceBearingAncestor(anchor)
		if container == nil || seen[container] {
			continue
		}
		seen[container] = true
		containers = append(containers, container)
		if len(containers) >= maxContainersPerPattern {
			break
		}
	}
	return recordsFrom(containers, base)
}

func priceBearingAncestor(anchor *html.Node) *html.Node {
	parent := anchor.Parent
	if parent == nil || parent.Type != html.ElementNode || parent.DataAtom == atom.Body {
		return nil
	}
	if hasCurrency(nodeText(parent)) {
		return parent
	}
	grandparent := parent.Parent
	if grandparent == nil || grandparent.Type != html.ElementNode || grandparent.DataAtom == atom.Body {
		return nil
	}
	if hasCurrency(nodeText(grandparent)) {
		return grandparent
	}
	return nil
}
