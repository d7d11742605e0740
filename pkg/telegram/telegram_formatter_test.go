package telegram

import (
	"strings"
	"testing"
	"time"

	"golang-twse-watcher/internal/entity"
	"golang-twse-watcher/internal/watcher/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hitMessage(code string, targetType entity.TargetType, limit string) dto.HitEventMessage {
	return dto.HitEventMessage{
		Event: dto.HitEvent{
			Code:   code,
			Name:   "Test",
			Type:   targetType,
			Price:  100,
			Target: 99,
			Limit:  limit,
		},
		OccurredAt: time.Now(),
	}
}

func TestFormatHitEvents_Empty(t *testing.T) {
	assert.Nil(t, FormatHitEventsForTelegram(nil, time.Now()))
}

func TestFormatHitEvents_GroupOrdering(t *testing.T) {
	events := []dto.HitEventMessage{
		hitMessage("1101", entity.TargetSwap, ""),
		hitMessage("2330", entity.TargetShortTerm, ""),
		hitMessage("0050", entity.TargetSupport, ""),
		hitMessage("2454", entity.TargetWave, ""),
	}

	messages := FormatHitEventsForTelegram(events, time.Now())
	require.Len(t, messages, 1)
	body := messages[0]

	// Sections appear in the fixed display order regardless of input order.
	shortTermIdx := strings.Index(body, "Short-Term Target Reached")
	waveIdx := strings.Index(body, "Wave Target Reached")
	supportIdx := strings.Index(body, "Support Broken")
	swapIdx := strings.Index(body, "Swap Reference Broken")

	require.NotEqual(t, -1, shortTermIdx)
	require.NotEqual(t, -1, waveIdx)
	require.NotEqual(t, -1, supportIdx)
	require.NotEqual(t, -1, swapIdx)
	assert.Less(t, shortTermIdx, waveIdx)
	assert.Less(t, waveIdx, supportIdx)
	assert.Less(t, supportIdx, swapIdx)
}

func TestFormatHitEvents_LimitMarker(t *testing.T) {
	messages := FormatHitEventsForTelegram([]dto.HitEventMessage{
		hitMessage("2330", entity.TargetShortTerm, dto.LimitUp),
		hitMessage("1101", entity.TargetSupport, dto.LimitDown),
	}, time.Now())
	require.Len(t, messages, 1)

	assert.Contains(t, messages[0], "漲停")
	assert.Contains(t, messages[0], "跌停")
}

func TestFormatHitEvents_SplitsLongBatches(t *testing.T) {
	var events []dto.HitEventMessage
	for i := 0; i < 200; i++ {
		e := hitMessage("2330", entity.TargetShortTerm, "")
		e.Event.Name = strings.Repeat("長", 20)
		events = append(events, e)
	}

	messages := FormatHitEventsForTelegram(events, time.Now())
	assert.Greater(t, len(messages), 1)
	for _, message := range messages {
		assert.LessOrEqual(t, len(message), maxMessageLen)
	}
}
