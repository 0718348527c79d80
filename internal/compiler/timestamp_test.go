package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_Accepts(t *testing.T) {
	plus2 := time.FixedZone("", 2*60*60)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15T10", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:30", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15T10:30:45", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)},
		{"2024-01-15 10:30:45", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)},
		{"2024-01-15T10:30:45.250", time.Date(2024, 1, 15, 10, 30, 45, 250_000_000, time.UTC)},
		{"2024-01-15T10:30:45Z", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)},
		{"2024-01-15T10:30:45.5Z", time.Date(2024, 1, 15, 10, 30, 45, 500_000_000, time.UTC)},
		{"2024-01-15T10:30:45+02:00", time.Date(2024, 1, 15, 10, 30, 45, 0, plus2)},
		{"2024-01-15T10:30:45+0200", time.Date(2024, 1, 15, 10, 30, 45, 0, plus2)},
		{"2024-01-15T10:30+02:00", time.Date(2024, 1, 15, 10, 30, 0, 0, plus2)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseTimestamp_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"not-a-date",
		"2024-13-01",
		"2024-02-30",
		"01/15/2024",
		"2024-01-15T25:00:00",
		"Z",
		"2024-01-15TZ",
		" 2024-01-15T10:30:45Z",
		"2024-01-15T10:30:45Z ",
		"2024-01-15\n",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTimestamp(in)
			assert.Error(t, err)
		})
	}
}
