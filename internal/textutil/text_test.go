package textutil

import "testing"

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"hello", 1},
		{"hello   world\n\tagain", 3},
		{"-- ... !!", 0},
		{"it's 2024 -- really", 3},
		{"café au lait", 3},
	}
	for _, tt := range tests {
		if got := WordCount(tt.in); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStripMarkers(t *testing.T) {
	in := "[SOURCE:wire] Hello <!-- internal [[note]] --> world {{byline}} [[cta]]"
	got := StripMarkers(in)
	if got != "Hello world" {
		t.Fatalf("StripMarkers = %q, want %q", got, "Hello world")
	}
}

func TestNormalize(t *testing.T) {
	// "e" + combining acute accent composes to a single rune under NFC.
	got := Normalize("  café \n\n ok ")
	if got != "café ok" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Errorf("Truncate zero max = %q", got)
	}
}
