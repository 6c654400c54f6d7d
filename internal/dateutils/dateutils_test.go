package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketDate(t *testing.T) {
	d, err := ParseTicketDate("25/03/2025 19:42")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 25, 19, 42, 0, 0, time.UTC), d)

	_, err = ParseTicketDate("2025-03-25")
	assert.Error(t, err)
}

func TestParseFlexible(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"20/2/26 9:5", time.Date(2026, 2, 20, 9, 5, 0, 0, time.UTC)},
		{"20/2/26", time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)},
		{"20/02/2026 10:05", time.Date(2026, 2, 20, 10, 5, 0, 0, time.UTC)},
		{"1/1/2026", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		d, err := ParseFlexible(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, d, tt.in)
	}
}

func TestParseFlexible_Invalid(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "20-02-2026", "32/1/26", "20/2/026"} {
		_, err := ParseFlexible(in)
		assert.Error(t, err, in)
	}
}

func TestFormatting(t *testing.T) {
	d := time.Date(2025, 3, 25, 19, 42, 0, 0, time.UTC)
	assert.Equal(t, "2025-03", MonthKey(d))
	assert.Equal(t, "2025-03-25 19:42", ToISO(d))
}
