package parsing

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

const docxBody = "word/document.xml"

func parseDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %w", ErrMalformed, err)
	}

	f, err := zr.Open(docxBody)
	if err != nil {
		return "", fmt.Errorf("%w: docx: %s: %w", ErrMalformed, docxBody, err)
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return "", fmt.Errorf("%w: docx: %w", ErrMalformed, err)
	}

	var b strings.Builder
	walkDOCX(doc, &b)
	return collapse(b.String()), nil
}

// walkDOCX writes WordprocessingML text runs. Elements are matched by local
// name so any namespace prefix is accepted.
func walkDOCX(n *xmlquery.Node, b *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}

		switch c.Data {
		case "t":
			b.WriteString(c.InnerText())
		case "tab":
			b.WriteByte(' ')
		case "br", "cr":
			b.WriteByte('\n')
		case "p":
			walkDOCX(c, b)
			b.WriteByte('\n')
		case "tc":
			walkDOCX(c, b)
			b.WriteByte(' ')
		case "instrText", "delText":
		default:
			walkDOCX(c, b)
		}
	}
}
