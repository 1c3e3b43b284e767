package formatting_test

import (
	"testing"

	"github.com/JaimeStill/docai/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"4096", 4096, false},
		{"50MB", 50 * 1024 * 1024, false},
		{"1mb", 1024 * 1024, false},
		{"1.5 GiB", 1536 * 1024 * 1024, false},
		{" 10 KB ", 10 * 1024, false},
		{"0", 0, false},
		{"", 0, true},
		{"MB", 0, true},
		{"-5MB", 0, true},
		{"10XB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBytes(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBytes(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n         int64
		precision int
		want      string
	}{
		{512, 2, "512 B"},
		{1024, 1, "1.0 KB"},
		{1536, 2, "1.50 KB"},
		{50 * 1024 * 1024, 0, "50 MB"},
		{3 * 1024 * 1024 * 1024, -1, "3 GB"},
	}

	for _, tt := range tests {
		if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
			t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
		}
	}
}
