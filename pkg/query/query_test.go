package query_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/JaimeStill/docai/pkg/query"
)

func documentProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "documents", "d").
		Project("id", "ID").
		Project("filename", "Filename").
		Project("uploaded_at", "UploadedAt").
		Map("status", "Status").
		Join("public", "classifications", "c", "LEFT JOIN", "d.classification_id = c.id").
		Project("name", "Classification")
}

func ptr(s string) *string { return &s }

func TestProjection(t *testing.T) {
	p := documentProjection()

	if got, want := p.Columns(), "d.id, d.filename, d.uploaded_at, c.name"; got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
	if got, want := p.From(), "public.documents d LEFT JOIN public.classifications c ON d.classification_id = c.id"; got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}

	tests := []struct {
		view string
		want string
	}{
		{"Filename", "d.filename"},
		{"Status", "d.status"},
		{"Classification", "c.name"},
		{"unmapped", "unmapped"},
	}
	for _, tt := range tests {
		if got := p.Column(tt.view); got != tt.want {
			t.Errorf("Column(%q) = %q, want %q", tt.view, got, tt.want)
		}
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"blank", "  ", nil},
		{"single", "Filename", []query.SortField{{Field: "Filename"}}},
		{
			"mixed",
			"Filename, -UploadedAt,,",
			[]query.SortField{{Field: "Filename"}, {Field: "UploadedAt", Descending: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	q, args := query.NewBuilder(documentProjection(), query.SortField{Field: "ID"}).
		WhereEquals("Status", "processing").
		WhereEquals("Classification", (*string)(nil)).
		WhereBefore("UploadedAt", before).
		Limit(10).
		Build()

	want := "SELECT d.id, d.filename, d.uploaded_at, c.name FROM public.documents d " +
		"LEFT JOIN public.classifications c ON d.classification_id = c.id " +
		"WHERE d.status = $1 AND d.uploaded_at < $2 ORDER BY d.id ASC LIMIT 10"
	if q != want {
		t.Errorf("Build() =\n%s\nwant\n%s", q, want)
	}
	if len(args) != 2 || args[0] != "processing" || args[1] != before {
		t.Errorf("args = %v", args)
	}
}

func TestBuildPage(t *testing.T) {
	search := ptr("inv")
	qb := query.NewBuilder(documentProjection(), query.SortField{Field: "UploadedAt", Descending: true}).
		WhereSearch(search, "Filename", "Classification").
		WhereContains("Filename", ptr("2026")).
		WhereAtOrAfter("UploadedAt", "2026-01-01")

	q, args := qb.BuildPage(3, 20)
	want := "SELECT d.id, d.filename, d.uploaded_at, c.name FROM public.documents d " +
		"LEFT JOIN public.classifications c ON d.classification_id = c.id " +
		"WHERE (d.filename ILIKE $1 OR c.name ILIKE $2) AND d.filename ILIKE $3 AND d.uploaded_at >= $4 " +
		"ORDER BY d.uploaded_at DESC LIMIT 20 OFFSET 40"
	if q != want {
		t.Errorf("BuildPage() =\n%s\nwant\n%s", q, want)
	}
	wantArgs := []any{"%inv%", "%inv%", "%2026%", "2026-01-01"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}

	count, countArgs := qb.BuildCount()
	wantCount := "SELECT COUNT(*) FROM public.documents d " +
		"LEFT JOIN public.classifications c ON d.classification_id = c.id " +
		"WHERE (d.filename ILIKE $1 OR c.name ILIKE $2) AND d.filename ILIKE $3 AND d.uploaded_at >= $4"
	if count != wantCount {
		t.Errorf("BuildCount() =\n%s\nwant\n%s", count, wantCount)
	}
	if len(countArgs) != 4 {
		t.Errorf("count args = %v", countArgs)
	}
}

func TestOrderByOverride(t *testing.T) {
	q, _ := query.NewBuilder(documentProjection(), query.SortField{Field: "ID"}).
		OrderByFields(query.ParseSortFields("-Filename")).
		Build()

	if want := " ORDER BY d.filename DESC"; q[len(q)-len(want):] != want {
		t.Errorf("Build() = %q, want suffix %q", q, want)
	}
}

func TestEmptyFiltersSkipped(t *testing.T) {
	q, args := query.NewBuilder(documentProjection()).
		WhereContains("Filename", ptr("")).
		WhereSearch(nil, "Filename").
		WhereBefore("UploadedAt", (*time.Time)(nil)).
		BuildSingleOrNull()

	want := "SELECT d.id, d.filename, d.uploaded_at, c.name FROM public.documents d " +
		"LEFT JOIN public.classifications c ON d.classification_id = c.id LIMIT 1"
	if q != want || args != nil {
		t.Errorf("BuildSingleOrNull() = %q %v, want %q", q, args, want)
	}
}

func TestBuildSingle(t *testing.T) {
	q, args := query.NewBuilder(documentProjection()).
		WhereEquals("Status", "ignored").
		BuildSingle("ID", 7)

	want := "SELECT d.id, d.filename, d.uploaded_at, c.name FROM public.documents d " +
		"LEFT JOIN public.classifications c ON d.classification_id = c.id WHERE d.id = $1"
	if q != want {
		t.Errorf("BuildSingle() = %q", q)
	}
	if len(args) != 1 || args[0] != 7 {
		t.Errorf("args = %v", args)
	}
}
