// README: Channel contract and shared order-summary formatting.
package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bvetra/internal/modules/draft"
	"bvetra/internal/types"
)

// Channel is one independent downstream integration. Send is attempted at
// most once per dispatch; it must never mutate the draft.
type Channel interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, d draft.Draft, history []types.Turn) (detail string, err error)
}

// httpClient is shared by all channels; the timeout guards against stalled
// connections while context cancellation is still honoured via
// NewRequestWithContext.
var httpClient = &http.Client{Timeout: 15 * time.Second}

// historyTailLimit bounds how much transcript is forwarded to a channel.
const historyTailLimit = 10

func summaryLines(d draft.Draft) []string {
	return []string{
		"Телефон: " + orDash(d.Phone),
		"Подача: " + orDash(d.Pickup),
		"Назначение: " + orDash(d.Dropoff),
		"Время: " + orDash(d.Datetime),
		"Класс авто: " + orDash(d.CarClass.Display()),
		"Примечание: " + orDash(d.Notes),
	}
}

func historyTail(history []types.Turn) string {
	if len(history) > historyTailLimit {
		history = history[len(history)-historyTailLimit:]
	}
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	return strings.Join(lines, "\n")
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
