package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-03-09 ")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("09/03/2025")
	require.Error(t, err)
	_, err = ParseDate("2025-02-30")
	require.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 0, DaysBetween(start, start))
	require.Equal(t, 9, DaysBetween(start, start.AddDate(0, 0, 9)))
	require.Equal(t, 2, DaysBetween(start.Add(23*time.Hour), start.AddDate(0, 0, 2)))
}
