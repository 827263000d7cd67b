package sanitize

import (
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trims surrounding whitespace",
			input:    "  Ada Lovelace  ",
			expected: "Ada Lovelace",
		},
		{
			name:     "collapses inner whitespace",
			input:    "Ada \t\n  Lovelace",
			expected: "Ada Lovelace",
		},
		{
			name:     "drops control characters",
			input:    "Drama\x00Club\x07",
			expected: "DramaClub",
		},
		{
			name:     "drops zero width characters",
			input:    "Th\u200beatre",
			expected: "Theatre",
		},
		{
			name:     "keeps unicode letters",
			input:    "Ad\u00e9b\u00e1yo\u0323\u0300 \u00d2k\u00e8",
			expected: "Ad\u00e9b\u00e1yo\u0323\u0300 \u00d2k\u00e8",
		},
		{
			name:     "empty stays empty",
			input:    " \t ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMultiLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "normalizes line endings",
			input:    "one\r\ntwo\rthree",
			expected: "one\ntwo\nthree",
		},
		{
			name:     "limits blank runs",
			input:    "one\n\n\n\n\ntwo",
			expected: "one\n\n\ntwo",
		},
		{
			name:     "cleans each line",
			input:    "  first   line \n\tsecond\x00",
			expected: "first line\nsecond",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MultiLine(tt.input); got != tt.expected {
				t.Errorf("MultiLine(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  Jane.Doe@Example.COM "); got != "jane.doe@example.com" {
		t.Errorf("Email() = %q", got)
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+234 (801) 234-5678", "+2348012345678"},
		{"0801.234.5678", "08012345678"},
		{" 08012345678 ", "08012345678"},
		{"0801+2345678", "0801+2345678"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Phone(tt.input); got != tt.expected {
				t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestList(t *testing.T) {
	got := List([]string{" Acting ", "acting", "", "Singing", "  "})
	want := []string{"Acting", "Singing"}

	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
