package service

import (
	"strconv"
	"strings"

	"golang-twse-watcher/internal/entity"
)

// Alternate dash/tilde glyphs that OCR output produces are collapsed to a
// single delimiter before tokenizing.
var targetGlyphNormalizer = strings.NewReplacer(
	"～", "-",
	"〜", "-",
	"–", "-",
	"—", "-",
	"−", "-",
	"，", ",",
)

func isTargetDelimiter(r rune) bool {
	return r == '~' || r == ',' || r == '-' || r == ' '
}

// ParseTarget resolves a free-text target specification (a single value or a
// range like "68-70") into one comparable threshold. ok is false when the
// text contains no numeric token.
//
// The directional rule is deliberately permissive: downside types (support,
// swap) take the maximum token and upside types (shortTerm, wave) take the
// minimum, so the loosest boundary of a range is the one that triggers.
func ParseTarget(raw string, targetType entity.TargetType) (float64, bool) {
	normalized := targetGlyphNormalizer.Replace(strings.TrimSpace(raw))

	var values []float64
	for _, token := range strings.FieldsFunc(normalized, isTargetDelimiter) {
		v, err := strconv.ParseFloat(token, 64)
		if err != nil || v <= 0 {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return 0, false
	}

	threshold := values[0]
	for _, v := range values[1:] {
		if targetType.Downside() {
			if v > threshold {
				threshold = v
			}
		} else if v < threshold {
			threshold = v
		}
	}
	return threshold, true
}
