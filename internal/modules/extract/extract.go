// README: Order field extractor over a bounded transcript window.
package extract

import (
	"strings"

	"bvetra/internal/modules/draft"
	"bvetra/internal/types"
)

// windowSize bounds extraction to the live topic instead of the full history.
const windowSize = 8

// Extract scans the most recent transcript turns for booking intent and, when
// present, pulls candidate field values with the ordered pattern rules.
// It is deterministic, never panics on adversarial text, and reports false
// (leaving the caller's draft untouched) when no intent keyword is found or
// no rule matched.
func Extract(turns []types.Turn) (draft.Fields, bool) {
	w := buildWindow(turns)
	if !hasIntent(w.lower) {
		return draft.Fields{}, false
	}

	var f draft.Fields
	for _, r := range rules {
		r(w, &f)
	}
	if f.Empty() {
		return draft.Fields{}, false
	}
	return f, true
}

func buildWindow(turns []types.Turn) window {
	if len(turns) > windowSize {
		turns = turns[len(turns)-windowSize:]
	}
	var b strings.Builder
	for _, t := range turns {
		if t.Role == types.RoleOrder {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Content)
	}
	text := b.String()
	return window{text: text, lower: strings.ToLower(text)}
}

func hasIntent(lower string) bool {
	for _, kw := range intentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
