package parsing_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/parsing"
	"github.com/JaimeStill/docai/pkg/lifecycle"
	"github.com/JaimeStill/docai/pkg/storage"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		want        parsing.Format
		wantErr     bool
	}{
		{"plain", "text/plain; charset=utf-8", "a.bin", parsing.FormatText, false},
		{"markdown", "text/markdown", "", parsing.FormatText, false},
		{"csv", "text/csv", "", parsing.FormatText, false},
		{"json", "application/json", "", parsing.FormatText, false},
		{"xml", "application/xml", "", parsing.FormatText, false},
		{"html", "text/html", "", parsing.FormatHTML, false},
		{"pdf", "application/pdf", "", parsing.FormatPDF, false},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", parsing.FormatDOCX, false},
		{"extension fallback", "application/octet-stream", "Report.PDF", parsing.FormatPDF, false},
		{"empty type", "", "notes.md", parsing.FormatText, false},
		{"unsupported", "image/png", "scan.png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsing.Detect(tt.contentType, tt.filename)
			if tt.wantErr {
				if !errors.Is(err, parsing.ErrUnsupported) {
					t.Errorf("err = %v, want ErrUnsupported", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseText(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8", []byte("Invoice #1\nTotal: 5"), "Invoice #1\nTotal: 5"},
		{"crlf", []byte("a\r\nb\rc"), "a\nb\nc"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, "héllo"...), "héllo"},
		{"windows-1252", []byte("caf\xe9 \x80 5"), "café € 5"},
		{"utf16", []byte{0xFE, 0xFF, 0x00, 'h', 0x00, 'i'}, "hi"},
		{"control stripped", []byte("a\x00b\x07c\fd\te"), "abc\fd\te"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsing.Parse("text/plain", "", tt.data)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHTML(t *testing.T) {
	src := `<html><head><title>Invoice</title><style>p { color: red; }</style></head>
<body>
<script>var total = 0;</script>
<h1>Invoice   #4521</h1>
<p>Total: <b>$1,234.56</b></p>
<table><tr><td>Due</td><td>30 days</td></tr></table>
</body></html>`

	got, err := parsing.Parse("text/html", "", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := "Invoice\nInvoice #4521\nTotal: $1,234.56\nDue 30 days"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s</w:body></w:document>`, body)

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseDOCX(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:r><w:t>Invoice</w:t></w:r><w:r><w:t xml:space="preserve"> #4521</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Total:</w:t><w:tab/><w:t>$10.00</w:t></w:r></w:p>`+
			`<w:p><w:r><w:instrText>PAGE</w:instrText></w:r></w:p>`,
	)

	got, err := parsing.Parse("", "invoice.docx", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := "Invoice #4521\nTotal: $10.00"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        []byte
	}{
		{"docx not zip", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("plain text")},
		{"pdf garbage", "application/pdf", []byte("not a pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsing.Parse(tt.contentType, "", tt.data); !errors.Is(err, parsing.ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}

	t.Run("docx missing body", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, _ := zw.Create("word/styles.xml")
		io.WriteString(w, "<styles/>")
		zw.Close()

		if _, err := parsing.Parse("", "a.docx", buf.Bytes()); !errors.Is(err, parsing.ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})
}

func TestParsePDF(t *testing.T) {
	data := buildPDF(
		"BT\n/F1 12 Tf\n72 720 Td\n(Invoice #4521) Tj\n0 -14 Td\n[(Total: ) -20 ($1,234.56)] TJ\nET",
		"BT\n/F1 12 Tf\n72 720 Td\n(Page \\(two\\)) Tj\nET",
	)

	got, err := parsing.Parse("application/pdf", "", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	pages := strings.Split(got, parsing.PageSeparator)
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2: %q", len(pages), got)
	}
	if !strings.Contains(pages[0], "Invoice #4521") || !strings.Contains(pages[0], "Total: $1,234.56") {
		t.Errorf("page 1 = %q", pages[0])
	}
	if pages[1] != "Page (two)" {
		t.Errorf("page 2 = %q, want %q", pages[1], "Page (two)")
	}
}

// buildPDF assembles a minimal uncompressed PDF with one page per stream.
func buildPDF(streams ...string) []byte {
	var (
		b       strings.Builder
		offsets []int
	)

	n := len(streams)
	fontObj := 3 + 2*n

	object := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")

	kids := make([]string, n)
	for i := range n {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}

	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))

	for i, s := range streams {
		object(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>",
			4+2*i, fontObj,
		))
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(s), s))
	}

	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return []byte(b.String())
}

type mockStorage struct {
	blobs map[string][]byte
}

func (m *mockStorage) Start(*lifecycle.Coordinator) error { return nil }

func (m *mockStorage) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.blobs[key] = data
	return nil
}

func (m *mockStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(_ context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

func TestExtractor(t *testing.T) {
	store := &mockStorage{blobs: map[string][]byte{
		"documents/a/invoice.txt": []byte("Invoice #4521"),
	}}
	ex := parsing.New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("found", func(t *testing.T) {
		doc := &documents.Document{
			ID:          uuid.New(),
			Filename:    "invoice.txt",
			ContentType: "text/plain",
			StorageKey:  "documents/a/invoice.txt",
		}

		got, err := ex.Extract(context.Background(), doc)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got != "Invoice #4521" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("missing blob", func(t *testing.T) {
		doc := &documents.Document{ID: uuid.New(), ContentType: "text/plain", StorageKey: "documents/missing"}
		if _, err := ex.Extract(context.Background(), doc); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want storage.ErrNotFound", err)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		store.blobs["documents/b/scan.png"] = []byte{0x89, 'P', 'N', 'G'}
		doc := &documents.Document{ID: uuid.New(), Filename: "scan.png", ContentType: "image/png", StorageKey: "documents/b/scan.png"}
		if _, err := ex.Extract(context.Background(), doc); !errors.Is(err, parsing.ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})
}
