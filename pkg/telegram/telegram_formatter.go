package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-twse-watcher/internal/entity"
	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/pkg/utils"
)

// Telegram rejects messages over 4096 characters; leave headroom for the
// parse-mode envelope.
const maxMessageLen = 4090

func targetTypeTitle(t entity.TargetType) (string, string) {
	switch t {
	case entity.TargetShortTerm:
		return "🎯", "Short-Term Target Reached"
	case entity.TargetWave:
		return "🌊", "Wave Target Reached"
	case entity.TargetSupport:
		return "⚠️", "Support Broken"
	case entity.TargetSwap:
		return "🔻", "Swap Reference Broken"
	default:
		return "🔔", "Price Alert"
	}
}

func limitMarker(limit string) string {
	switch limit {
	case dto.LimitUp:
		return " 🔺漲停"
	case dto.LimitDown:
		return " 🔻跌停"
	}
	return ""
}

// FormatHitEventsForTelegram renders a batch of hit events into one or more
// Markdown messages, grouped by target type in display order and split so no
// message exceeds the Telegram length limit.
func FormatHitEventsForTelegram(events []dto.HitEventMessage, at time.Time) []string {
	if len(events) == 0 {
		return nil
	}

	byType := make(map[entity.TargetType][]dto.HitEventMessage)
	for _, e := range events {
		byType[e.Event.Type] = append(byType[e.Event.Type], e)
	}

	var messages []string
	var currentMessage strings.Builder
	part := 1

	startNewPart := func() {
		currentMessage.Reset()
		if part == 1 {
			currentMessage.WriteString(fmt.Sprintf("📊 *Watchlist Alerts*\n%s\n\n", utils.PrettyDate(at)))
		} else {
			currentMessage.WriteString(fmt.Sprintf("---*Watchlist Alerts Part %d*---\n\n", part))
		}
	}
	startNewPart()

	appendEntry := func(entry string) {
		if currentMessage.Len()+len(entry) > maxMessageLen {
			messages = append(messages, currentMessage.String())
			part++
			startNewPart()
		}
		currentMessage.WriteString(entry)
	}

	for _, targetType := range entity.TargetDisplayOrder {
		group := byType[targetType]
		if len(group) == 0 {
			continue
		}

		emoji, title := targetTypeTitle(targetType)
		appendEntry(fmt.Sprintf("%s *%s*\n", emoji, title))
		for _, e := range group {
			appendEntry(fmt.Sprintf("• `%s` %s%s\n  💰 %.2f (target: %.2f)\n",
				e.Event.Code, e.Event.Name, limitMarker(e.Event.Limit),
				e.Event.Price, e.Event.Target))
		}
		appendEntry("\n")
	}

	messages = append(messages, currentMessage.String())
	return messages
}
