package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayMonth(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-01", "Jan-25"},
		{"2025-12", "Dec-25"},
		{"2030-07", "Jul-30"},
		{"Jan-25", "Jan-25"},
		{"bogus", "bogus"},
		{"2025-13", "2025-13"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayMonth(tt.in), "DisplayMonth(%q)", tt.in)
	}
}

func TestCanonicalMonth(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jan-25", "2025-01"},
		{"Dec-25", "2025-12"},
		{"Jul-2030", "2030-07"},
		{"2025-01", "2025-01"},
		{"bogus", "bogus"},
		{"Foo-25", "Foo-25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalMonth(tt.in), "CanonicalMonth(%q)", tt.in)
	}
}

func TestMonthRoundTrip(t *testing.T) {
	for m := 1; m <= 12; m++ {
		canonical := fmt.Sprintf("2025-%02d", m)
		assert.Equal(t, canonical, CanonicalMonth(DisplayMonth(canonical)))
	}
}
