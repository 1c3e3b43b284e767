// Package parsing turns stored document bytes into the raw text the
// processing pipeline classifies, extracts from, and summarizes.
package parsing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	textunicode "golang.org/x/text/encoding/unicode"

	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/pkg/storage"
)

// Format identifies how a document's bytes are turned into text.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

var mediaTypes = map[string]Format{
	"text/plain":            FormatText,
	"text/markdown":         FormatText,
	"text/x-markdown":       FormatText,
	"text/csv":              FormatText,
	"application/json":      FormatText,
	"application/xml":       FormatText,
	"text/xml":              FormatText,
	"text/html":             FormatHTML,
	"application/xhtml+xml": FormatHTML,
	"application/pdf":       FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
}

var extensions = map[string]Format{
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatText,
	".markdown": FormatText,
	".csv":      FormatText,
	".json":     FormatText,
	".xml":      FormatText,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
}

// Detect resolves the format from the media type, falling back to the file
// extension when the media type is absent or generic.
func Detect(contentType, filename string) (Format, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if f, ok := mediaTypes[strings.ToLower(mt)]; ok {
			return f, nil
		}
	}

	if f, ok := extensions[strings.ToLower(path.Ext(filename))]; ok {
		return f, nil
	}

	return "", fmt.Errorf("%w: %q (%s)", ErrUnsupported, contentType, filename)
}

// Parse converts data to text according to its detected format.
func Parse(contentType, filename string, data []byte) (string, error) {
	format, err := Detect(contentType, filename)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatText:
		text = decode(data)
	case FormatHTML:
		text, err = parseHTML(decode(data))
	case FormatPDF:
		text, err = parsePDF(data)
	case FormatDOCX:
		text, err = parseDOCX(data)
	}
	if err != nil {
		return "", err
	}

	return sanitize(text), nil
}

// Extractor reads document blobs from storage and parses them to text.
type Extractor struct {
	storage storage.System
	logger  *slog.Logger
}

func New(store storage.System, logger *slog.Logger) *Extractor {
	return &Extractor{
		storage: store,
		logger:  logger.With("system", "parsing"),
	}
}

// Extract downloads the document's blob and parses it to text.
func (e *Extractor) Extract(ctx context.Context, doc *documents.Document) (string, error) {
	rc, err := e.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", doc.StorageKey, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", doc.StorageKey, err)
	}

	text, err := Parse(doc.ContentType, doc.Filename, data)
	if err != nil {
		return "", err
	}

	e.logger.DebugContext(
		ctx, "text extracted",
		"document_id", doc.ID,
		"content_type", doc.ContentType,
		"bytes", len(data),
		"runes", utf8.RuneCountInString(text),
	)
	return text, nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// decode returns data as UTF-8. Byte order marks select UTF-16; other
// input that is not valid UTF-8 is read as Windows-1252.
func decode(data []byte) string {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
	case bytes.HasPrefix(data, bomUTF16BE), bytes.HasPrefix(data, bomUTF16LE):
		out, err := textunicode.UTF16(textunicode.BigEndian, textunicode.ExpectBOM).NewDecoder().Bytes(data)
		if err == nil {
			return string(out)
		}
	}

	if utf8.Valid(data) {
		return string(data)
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(out)
}

// sanitize normalizes line endings and removes control characters other
// than tab, newline, and form feed.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\f':
			return r
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
}
