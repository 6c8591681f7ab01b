// Package sitemap resolves a (possibly nested) sitemap into the ordered list
// of page URLs it declares. Documents are fetched over HTTP or read from local
// files, checked for well-formedness, and queried with namespace-scoped XPath.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html/charset"
)

// Namespace is the sitemap protocol namespace every query is scoped to.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ErrMalformed wraps every well-formedness failure.
var ErrMalformed = errors.New("document is not well-formed XML")

var (
	// <sitemapindex><sitemap><loc>
	indexLocs = mustCompileNS("//sm:sitemap/sm:loc")
	// <urlset><url><loc>
	pageLocs = mustCompileNS("//sm:url/sm:loc")
)

func mustCompileNS(expr string) *xpath.Expr {
	compiled, err := xpath.CompileWithNS(expr, map[string]string{"sm": Namespace})
	if err != nil {
		panic(fmt.Sprintf("compile xpath %q: %v", expr, err))
	}
	return compiled
}

// Document holds the locations extracted from one sitemap document, each in
// declaration order.
type Document struct {
	Sitemaps []string // <loc> under <sitemap> (index form)
	URLs     []string // <loc> under <url> (url-set form)
}

// CheckWellFormed verifies data is a single well-formed XML document: no
// syntax errors, exactly one root element, and no text outside it.
func CheckWellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return fmt.Errorf("%w: junk after document element <%s>", ErrMalformed, t.Name.Local)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("%w: text outside the document element", ErrMalformed)
			}
		}
	}

	if roots == 0 {
		return fmt.Errorf("%w: no element found", ErrMalformed)
	}
	if depth != 0 {
		return fmt.Errorf("%w: unclosed element", ErrMalformed)
	}
	return nil
}

// Parse validates data and extracts sitemap and page locations. Locations are
// whitespace-trimmed; empty ones are dropped. <loc> elements outside the
// sitemap namespace are ignored.
func Parse(data []byte) (*Document, error) {
	if err := CheckWellFormed(data); err != nil {
		return nil, err
	}

	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &Document{
		Sitemaps: locations(root, indexLocs),
		URLs:     locations(root, pageLocs),
	}, nil
}

func locations(root *xmlquery.Node, expr *xpath.Expr) []string {
	var locs []string
	for _, node := range xmlquery.QuerySelectorAll(root, expr) {
		if loc := strings.TrimSpace(node.InnerText()); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs
}
