// Package extract turns arbitrary page markup into product records. A small
// cascade of independent heuristics runs over the parsed DOM until one of
// them produces a usable result, so no single site layout is load-bearing.
package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// querySelectorAll returns all nodes under root matching a small CSS subset:
//   - tag: "div", "article"
//   - .class: ".product-card" (exact class token)
//   - #id: "#productTitle"
//   - tag[attr], tag[attr=val], tag[attr*=val] (substring match)
//   - descendant combinator (space) and child combinator (>)
func querySelectorAll(root *html.Node, selector string) []*html.Node {
	parts := strings.Fields(strings.ReplaceAll(selector, ">", " > "))
	if len(parts) == 0 {
		return nil
	}

	matches := matchDescendants(root, parts[0])

	i := 1
	for i < len(parts) && len(matches) > 0 {
		if parts[i] == ">" {
			if i+1 >= len(parts) {
				return nil
			}
			sel := parseSimpleSelector(parts[i+1])
			var next []*html.Node
			for _, parent := range matches {
				for c := parent.FirstChild; c != nil; c = c.NextSibling {
					if matchesSelector(c, sel) {
						next = append(next, c)
					}
				}
			}
			matches = next
			i += 2
			continue
		}

		var next []*html.Node
		for _, parent := range matches {
			next = append(next, matchDescendants(parent, parts[i])...)
		}
		matches = next
		i++
	}

	return matches
}

// firstMatch returns the first node matching any selector in the list, in
// list order. Selector order encodes decreasing specificity.
func firstMatch(root *html.Node, selectors []string) *html.Node {
	for _, sel := range selectors {
		if nodes := querySelectorAll(root, sel); len(nodes) > 0 {
			return nodes[0]
		}
	}
	return nil
}

// matchDescendants finds all nodes in the subtree matching one selector part.
// The root itself is not a candidate.
func matchDescendants(root *html.Node, part string) []*html.Node {
	sel := parseSimpleSelector(part)
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if matchesSelector(c, sel) {
				results = append(results, c)
			}
			walk(c)
		}
	}
	walk(root)
	return results
}

type simpleSelector struct {
	tag          string
	id           string
	class        string
	attrKey      string
	attrVal      string
	attrContains bool
}

// parseSimpleSelector parses "tag.class", "#id", "tag[attr*=val]", etc.
func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eqIdx := strings.Index(attrPart, "*="); eqIdx >= 0 {
			s.attrKey = attrPart[:eqIdx]
			s.attrVal = strings.Trim(attrPart[eqIdx+2:], `"'`)
			s.attrContains = true
		} else if eqIdx := strings.IndexByte(attrPart, '='); eqIdx >= 0 {
			s.attrKey = attrPart[:eqIdx]
			s.attrVal = strings.Trim(attrPart[eqIdx+1:], `"'`)
		} else {
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.class = sel[idx+1:]
		sel = sel[:idx]
	}

	s.tag = sel
	return s
}

func matchesSelector(n *html.Node, s simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}

	if s.tag != "" && n.Data != s.tag {
		return false
	}

	if s.id != "" && getAttr(n, "id") != s.id {
		return false
	}

	if s.class != "" {
		found := false
		for _, c := range strings.Fields(getAttr(n, "class")) {
			if c == s.class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if s.attrKey != "" {
		val := getAttr(n, s.attrKey)
		switch {
		case s.attrContains:
			if !strings.Contains(strings.ToLower(val), strings.ToLower(s.attrVal)) {
				return false
			}
		case s.attrVal != "":
			if val != s.attrVal {
				return false
			}
		default:
			if !hasAttr(n, s.attrKey) {
				return false
			}
		}
	}

	return true
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// nodeText returns the visible text of a subtree, space-joined, with
// script/style/noscript contents excluded.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
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
	walk(n)
	return sb.String()
}

// ownText returns only the text held directly by a node, not its element
// children. Used to find elements whose own content is a price.
func ownText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if text := strings.TrimSpace(c.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
	}
	return sb.String()
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if body == nil {
		return doc
	}
	return body
}

func firstByTag(root *html.Node, tag atom.Atom) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

var headingAtoms = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// firstHeading returns the first h1..h6 in document order
func firstHeading(root *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, h := range headingAtoms {
				if n.DataAtom == h {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, h := range headingAtoms {
		if n.DataAtom == h {
			return true
		}
	}
	return false
}

// containsLink reports whether the subtree holds an anchor with a usable href
func containsLink(n *html.Node) bool {
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A && !isPlaceholderHref(getAttr(n, "href")) {
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func containsImage(n *html.Node) bool {
	return firstByTag(n, atom.Img) != nil
}

func containsHeading(n *html.Node) bool {
	return firstHeading(n) != nil
}
