package parsing

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
	textunicode "golang.org/x/text/encoding/unicode"
)

// PageSeparator joins the text of consecutive PDF pages.
const PageSeparator = "\f"

func parsePDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pdf: %v", ErrMalformed, r)
		}
	}()

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %w", ErrMalformed, err)
	}

	pages := make([]string, 0, ctx.PageCount)
	for nr := 1; nr <= ctx.PageCount; nr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, nr)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %w", ErrMalformed, nr, err)
		}

		var content []byte
		if r != nil {
			if content, err = io.ReadAll(r); err != nil {
				return "", fmt.Errorf("read pdf page %d: %w", nr, err)
			}
		}

		pages = append(pages, collapse(contentText(content)))
	}

	return strings.Join(pages, PageSeparator), nil
}

// contentText pulls the shown strings out of a page content stream.
// Text-showing operators (Tj, TJ, ', ") emit the strings collected since
// the previous operator; line-moving operators start a new line.
func contentText(stream []byte) string {
	var (
		b       strings.Builder
		pending []string
	)

	newline := func() {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
	}

	for i := 0; i < len(stream); {
		c := stream[i]

		switch {
		case c == '(':
			s, n := literalString(stream[i:])
			pending = append(pending, s)
			i += n
		case c == '<' && i+1 < len(stream) && stream[i+1] == '<':
			i += 2
		case c == '<':
			s, n := hexString(stream[i:])
			pending = append(pending, s)
			i += n
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case c == '/' || isNumeric(c):
			i++
			for i < len(stream) && isRegular(stream[i]) {
				i++
			}
		case isRegular(c):
			j := i
			for j < len(stream) && isRegular(stream[j]) {
				j++
			}
			op := string(stream[i:j])
			i = j

			switch op {
			case "Tj", "TJ":
				b.WriteString(strings.Join(pending, ""))
			case "'", `"`:
				newline()
				b.WriteString(strings.Join(pending, ""))
			case "T*", "ET":
				newline()
			case "Td", "TD", "Tm":
				b.WriteByte(' ')
			}
			pending = pending[:0]
		default:
			i++
		}
	}

	return b.String()
}

func isNumeric(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isRegular(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0,
		'(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

// literalString decodes a parenthesized string starting at s[0] and returns
// it with the number of bytes consumed.
func literalString(s []byte) (string, int) {
	var (
		out   []byte
		depth = 0
		i     = 0
	)

	for i < len(s) {
		c := s[i]
		switch {
		case c == '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
			i++
		case c == ')':
			depth--
			i++
			if depth == 0 {
				return decodeString(out), i
			}
			out = append(out, c)
		case c == '\\' && i+1 < len(s):
			i++
			switch e := s[i]; e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b', 'f':
			case '\r', '\n':
				if e == '\r' && i+1 < len(s) && s[i+1] == '\n' {
					i++
				}
			default:
				if e >= '0' && e <= '7' {
					v := 0
					for k := 0; k < 3 && i < len(s) && s[i] >= '0' && s[i] <= '7'; k++ {
						v = v*8 + int(s[i]-'0')
						i++
					}
					out = append(out, byte(v))
					continue
				}
				out = append(out, e)
			}
			i++
		default:
			out = append(out, c)
			i++
		}
	}

	return decodeString(out), i
}

func hexString(s []byte) (string, int) {
	end := bytes.IndexByte(s, '>')
	if end < 0 {
		return "", len(s)
	}

	digits := bytes.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') {
			return r
		}
		return -1
	}, s[1:end])
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	raw := make([]byte, hex.DecodedLen(len(digits)))
	if _, err := hex.Decode(raw, digits); err != nil {
		return "", end + 1
	}
	return decodeString(raw), end + 1
}

// decodeString reads UTF-16BE when the string carries a byte order mark and
// Windows-1252, the closest match to PDFDocEncoding, otherwise.
func decodeString(raw []byte) string {
	if bytes.HasPrefix(raw, bomUTF16BE) {
		out, err := textunicode.UTF16(textunicode.BigEndian, textunicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err == nil {
			return string(out)
		}
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
