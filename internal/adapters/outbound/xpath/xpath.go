// Package xpath is the XML backend: XPath extraction over parsed documents
// and a namespace-neutral reader for Maven POM files.
package xpath

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Querier implements domain.XMLQuerier with antchfx/xmlquery.
type Querier struct{}

func New() *Querier { return &Querier{} }

func parse(content []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing xml: %w", err)
	}
	return doc, nil
}

// Query evaluates expr and returns the trimmed value of every selected node:
// the inner text of elements and the value of attributes.
// Scalar expressions such as count() or boolean() yield a single value.
func (q *Querier) Query(content []byte, expr string) ([]string, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling xpath %q: %w", expr, err)
	}
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}

	switch v := compiled.Evaluate(xmlquery.CreateXPathNavigator(doc)).(type) {
	case *xpath.NodeIterator:
		var out []string
		for v.MoveNext() {
			out = append(out, strings.TrimSpace(v.Current().Value()))
		}
		return out, nil
	case bool:
		if !v {
			return nil, nil
		}
		return []string{"true"}, nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case string:
		return []string{v}, nil
	default:
		return nil, nil
	}
}

// ContainsNamespace reports whether any element or attribute of the document
// is bound to uri, or the uri appears verbatim.
func (q *Querier) ContainsNamespace(content []byte, uri string) bool {
	if uri == "" {
		return false
	}
	if bytes.Contains(content, []byte(uri)) {
		return true
	}
	doc, err := parse(content)
	if err != nil {
		return false
	}
	found := false
	walk(doc, func(n *xmlquery.Node) bool {
		if n.NamespaceURI == uri {
			found = true
		}
		for _, a := range n.Attr {
			if a.NamespaceURI == uri || a.Value == uri {
				found = true
			}
		}
		return !found
	})
	return found
}

// walk visits element nodes depth-first until visit returns false.
func walk(n *xmlquery.Node, visit func(*xmlquery.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if !visit(c) || !walk(c, visit) {
			return false
		}
	}
	return true
}
