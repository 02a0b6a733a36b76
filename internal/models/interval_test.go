package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval_KnownCodes(t *testing.T) {
	for _, interval := range AllIntervals {
		parsed, err := ParseInterval(interval.Code)
		require.NoError(t, err, "code %s", interval.Code)
		assert.Equal(t, interval.Code, parsed.Code)
		assert.Equal(t, interval.Seconds, parsed.Seconds)
	}
}

func TestParseInterval_MinuteAndMonthAreDistinct(t *testing.T) {
	minute, err := ParseInterval("1m")
	require.NoError(t, err)
	month, err := ParseInterval("1M")
	require.NoError(t, err)

	assert.Equal(t, int64(60), minute.Seconds)
	assert.Greater(t, month.Seconds, minute.Seconds)
}

func TestParseInterval_CaseFoldFallback(t *testing.T) {
	// Codes without a case collision resolve case-insensitively.
	parsed, err := ParseInterval("1H")
	require.NoError(t, err)
	assert.Equal(t, "1h", parsed.Code)
}

func TestParseInterval_Invalid(t *testing.T) {
	for _, code := range []string{"", "7x", "10", "candles"} {
		_, err := ParseInterval(code)
		assert.ErrorIs(t, err, ErrValidation, "code %q", code)
	}
}

func TestCandleInterval_DurationAndMillis(t *testing.T) {
	assert.Equal(t, time.Minute, Interval1m.Duration())
	assert.Equal(t, int64(60_000), Interval1m.Millis())
	assert.Equal(t, time.Hour, Interval1h.Duration())
	assert.Equal(t, int64(86_400_000), Interval1d.Millis())
}
