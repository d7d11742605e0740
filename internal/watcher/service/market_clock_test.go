package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockAt(t *testing.T, year int, month time.Month, day, hour, min int) *MarketClock {
	t.Helper()
	clock, err := NewMarketClock("Asia/Taipei")
	require.NoError(t, err)
	fixed := time.Date(year, month, day, hour, min, 0, 0, clock.loc)
	clock.now = func() time.Time { return fixed }
	return clock
}

func TestMarketClock_TradingHours(t *testing.T) {
	// Monday mid-session.
	clock := clockAt(t, 2026, time.August, 31, 10, 0)
	assert.True(t, clock.IsTradingHours())
	assert.Equal(t, SessionTrading, clock.Session())
	assert.Equal(t, tradingTTL, clock.RecommendedTTL())

	// Session boundaries are inclusive.
	assert.True(t, clockAt(t, 2026, time.August, 31, 9, 0).IsTradingHours())
	assert.True(t, clockAt(t, 2026, time.August, 31, 13, 30).IsTradingHours())
	assert.False(t, clockAt(t, 2026, time.August, 31, 8, 59).IsTradingHours())
	assert.False(t, clockAt(t, 2026, time.August, 31, 13, 31).IsTradingHours())
}

func TestMarketClock_AfterHours(t *testing.T) {
	clock := clockAt(t, 2026, time.August, 31, 15, 0)
	assert.False(t, clock.IsTradingHours())
	assert.Equal(t, SessionAfterHours, clock.Session())
	assert.Equal(t, afterHoursTTL, clock.RecommendedTTL())

	// The post-market window ends at 18:00.
	evening := clockAt(t, 2026, time.August, 31, 18, 0)
	assert.Equal(t, SessionClosed, evening.Session())
	assert.Equal(t, closedTTL, evening.RecommendedTTL())
}

func TestMarketClock_Weekend(t *testing.T) {
	// Saturday mid-morning never counts as trading or after-hours.
	clock := clockAt(t, 2026, time.September, 5, 10, 0)
	assert.False(t, clock.IsTradingHours())
	assert.Equal(t, SessionClosed, clock.Session())
	assert.Equal(t, closedTTL, clock.RecommendedTTL())

	afternoon := clockAt(t, 2026, time.September, 5, 14, 0)
	assert.Equal(t, SessionClosed, afternoon.Session())
}

func TestMarketClock_DayKey(t *testing.T) {
	clock := clockAt(t, 2026, time.August, 31, 10, 0)
	assert.Equal(t, "2026-08-31", clock.DayKey())
}
