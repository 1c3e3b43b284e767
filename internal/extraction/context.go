package extraction

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/ohler55/ojg/oj"
)

// Context is the evaluation input for a document: its raw text plus
// best-effort JSON and XML interpretations. Either interpretation may be absent.
type Context struct {
	Text string

	json    any
	hasJSON bool
	xml     *xmlquery.Node
}

// NewContext parses text as JSON and as XML, keeping whichever succeed.
func NewContext(text string) Context {
	ctx := Context{Text: text}

	if v, err := oj.ParseString(text); err == nil {
		ctx.json = v
		ctx.hasJSON = true
	}

	ctx.xml = parseXML(text)
	return ctx
}

// HasJSON reports whether the text parsed as JSON.
func (c Context) HasJSON() bool {
	return c.hasJSON
}

// HasXML reports whether the text parsed as an XML document.
func (c Context) HasXML() bool {
	return c.xml != nil
}

func parseXML(text string) *xmlquery.Node {
	if !strings.HasPrefix(strings.TrimSpace(text), "<") {
		return nil
	}

	doc, err := xmlquery.Parse(strings.NewReader(text))
	if err != nil || doc == nil {
		return nil
	}

	// Exactly one root element; only markup or whitespace may surround it.
	roots := 0
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case xmlquery.ElementNode:
			roots++
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(n.Data) != "" {
				return nil
			}
		}
	}
	if roots != 1 {
		return nil
	}
	return doc
}
