package dnaimport

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"oasis/internal/dna"
)

const (
	MaxDepth    = 12
	MaxChildren = 50
)

var skipAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
	atom.Head: true, atom.Meta: true, atom.Link: true, atom.Title: true,
}

// FromHTML reads an HTML document or fragment and returns the element tree
// under <body>. Only inline style attributes are read; stylesheets are not
// resolved.
func FromHTML(r io.Reader) ([]dna.Element, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dnaimport: parse html: %w", err)
	}
	body := findBody(doc)
	if body == nil {
		body = doc
	}
	return convertChildren(body, 0), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func convertChildren(n *html.Node, depth int) []dna.Element {
	if depth >= MaxDepth {
		return nil
	}
	var out []dna.Element
	for c := n.FirstChild; c != nil && len(out) < MaxChildren; c = c.NextSibling {
		if c.Type != html.ElementNode || skipAtoms[c.DataAtom] {
			continue
		}
		out = append(out, convertNode(c, depth))
	}
	return out
}

func convertNode(n *html.Node, depth int) dna.Element {
	tag := strings.ToLower(n.Data)
	el := dna.Element{
		TagName:     tag,
		Selector:    selectorOf(n, tag),
		TextContent: CleanText(ownText(n)),
		Children:    convertChildren(n, depth+1),
	}
	if decls := ParseStyle(attr(n, "style")); len(decls) > 0 {
		el.Styles = StylesFromDecls(decls)
		el.BoundingBox = boxFromDecls(decls)
	}
	return el
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// selectorOf renders tag#id.class1.class2 (at most three classes).
func selectorOf(n *html.Node, tag string) string {
	var b strings.Builder
	b.WriteString(tag)
	if id := strings.TrimSpace(attr(n, "id")); id != "" {
		b.WriteString("#" + id)
	}
	for i, c := range strings.Fields(attr(n, "class")) {
		if i == 3 {
			break
		}
		b.WriteString("." + c)
	}
	return b.String()
}

func ownText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func boxFromDecls(d map[string]string) dna.BoundingBox {
	var b dna.BoundingBox
	if v := d["width"]; strings.HasSuffix(v, "px") {
		b.Width, _ = dna.LeadingFloat(v)
	}
	if v := d["height"]; strings.HasSuffix(v, "px") {
		b.Height, _ = dna.LeadingFloat(v)
	}
	return b
}
