package service

import (
	"testing"

	"golang-twse-watcher/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestParseTarget_SingleValue(t *testing.T) {
	v, ok := ParseTarget("68.5", entity.TargetSupport)
	assert.True(t, ok)
	assert.Equal(t, 68.5, v)

	v, ok = ParseTarget("  70 ", entity.TargetWave)
	assert.True(t, ok)
	assert.Equal(t, 70.0, v)
}

func TestParseTarget_RangeDirection(t *testing.T) {
	// Downside types take the loosest (highest) boundary of a range.
	v, ok := ParseTarget("68-70", entity.TargetSupport)
	assert.True(t, ok)
	assert.Equal(t, 70.0, v)

	v, ok = ParseTarget("68-70", entity.TargetSwap)
	assert.True(t, ok)
	assert.Equal(t, 70.0, v)

	// Upside types take the loosest (lowest) boundary.
	v, ok = ParseTarget("68-70", entity.TargetShortTerm)
	assert.True(t, ok)
	assert.Equal(t, 68.0, v)

	v, ok = ParseTarget("68-70", entity.TargetWave)
	assert.True(t, ok)
	assert.Equal(t, 68.0, v)
}

func TestParseTarget_DelimiterVariants(t *testing.T) {
	for _, raw := range []string{"68~70", "68,70", "68 70", "68～70", "68–70"} {
		v, ok := ParseTarget(raw, entity.TargetWave)
		assert.True(t, ok, raw)
		assert.Equal(t, 68.0, v, raw)
	}
}

func TestParseTarget_Garbage(t *testing.T) {
	for _, raw := range []string{"", "-", "n/a", "約整理中", "0"} {
		_, ok := ParseTarget(raw, entity.TargetSupport)
		assert.False(t, ok, raw)
	}
}

func TestParseTarget_LeadingDashIsDelimiter(t *testing.T) {
	// The dash is a range delimiter, never a sign, so "-5" is a one-sided
	// range resolving to 5.
	v, ok := ParseTarget("-5", entity.TargetSupport)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestParseTarget_MixedTokens(t *testing.T) {
	// Non-numeric tokens are skipped, not fatal.
	v, ok := ParseTarget("68-70 TWD", entity.TargetSupport)
	assert.True(t, ok)
	assert.Equal(t, 70.0, v)
}
