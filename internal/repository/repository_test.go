package repository

import "testing"

func TestContainsPatternEscapesWildcards(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"Sita", "%sita%"},
		{"  98000 ", "%98000%"},
		{"_", `%\_%`},
		{"50%", `%50\%%`},
		{`a\b`, `%a\\b%`},
	}
	for _, tt := range tests {
		if got := ContainsPattern(tt.term); got != tt.want {
			t.Errorf("ContainsPattern(%q) = %q, want %q", tt.term, got, tt.want)
		}
	}
}
