package service

import (
	"time"

	"golang-twse-watcher/pkg/utils"
)

// SessionState labels the current trading-session window.
type SessionState string

const (
	SessionTrading    SessionState = "trading"
	SessionAfterHours SessionState = "after_hours"
	SessionClosed     SessionState = "closed"
)

// Exchange session boundaries, minutes from midnight local time.
const (
	marketOpenMinute  = 9 * 60
	marketCloseMinute = 13*60 + 30
	afterHoursEndHour = 18
)

// Cache TTLs per session state. Live quotes move fastest during the session,
// settle during the post-market window, and barely move otherwise.
const (
	tradingTTL    = 2500 * time.Millisecond
	afterHoursTTL = 2 * time.Minute
	closedTTL     = 5 * time.Minute
)

// MarketClock answers session-state questions in the exchange-local
// timezone. The clock source is injectable for tests.
type MarketClock struct {
	loc *time.Location
	now func() time.Time
}

// NewMarketClock creates a MarketClock for the given timezone, e.g.
// "Asia/Taipei".
func NewMarketClock(timezone string) (*MarketClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &MarketClock{loc: loc, now: time.Now}, nil
}

// Now returns the current exchange-local time.
func (c *MarketClock) Now() time.Time {
	return c.now().In(c.loc)
}

// DayKey returns the current exchange-local calendar day.
func (c *MarketClock) DayKey() string {
	return utils.DayKey(c.Now())
}

// IsTradingHours reports whether the exchange session is open: weekdays,
// 09:00 through 13:30 inclusive.
func (c *MarketClock) IsTradingHours() bool {
	now := c.Now()
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	return minute >= marketOpenMinute && minute <= marketCloseMinute
}

// Session returns the current session state.
func (c *MarketClock) Session() SessionState {
	if c.IsTradingHours() {
		return SessionTrading
	}
	now := c.Now()
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return SessionClosed
	}
	minute := now.Hour()*60 + now.Minute()
	if minute > marketCloseMinute && now.Hour() < afterHoursEndHour {
		return SessionAfterHours
	}
	return SessionClosed
}

// RecommendedTTL returns how long a cached quote batch should be trusted
// right now. Recomputed at every cache lookup, not at write time.
func (c *MarketClock) RecommendedTTL() time.Duration {
	switch c.Session() {
	case SessionTrading:
		return tradingTTL
	case SessionAfterHours:
		return afterHoursTTL
	default:
		return closedTTL
	}
}
