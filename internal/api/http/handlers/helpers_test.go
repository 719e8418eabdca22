package handlers

import (
	"testing"
	"time"
)

func TestParseEndTimeField(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"plain date covers the day", "2026-03-01", time.Date(2026, 3, 1, 23, 59, 59, 999999000, time.UTC)},
		{"timestamp kept as is", "2026-03-01T10:30:00Z", time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEndTimeField("created_to", tt.value)
			if err != nil {
				t.Fatalf("parseEndTimeField: %v", err)
			}
			if got == nil || !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if got, err := parseEndTimeField("created_to", ""); got != nil || err != nil {
		t.Errorf("empty value = %v, %v; want nil, nil", got, err)
	}
	if _, err := parseEndTimeField("created_to", "tomorrow"); err == nil {
		t.Error("expected validation error for an unparseable date")
	}
}
