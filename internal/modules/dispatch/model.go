// README: Dispatch result and submission definitions.
package dispatch

import (
	"time"

	"bvetra/internal/modules/draft"
)

type Status string

const (
	StatusSkipped Status = "skipped"
	StatusOK      Status = "ok"
	StatusError   Status = "error"
)

// Result is one channel's outcome. Detail carries the channel-specific
// payload reference (e.g. a lead or message id) or the error description.
type Result struct {
	Channel string `json:"channel"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// Submission is the immutable record of one dispatch run: the draft snapshot
// that was sent and the per-channel results in configuration order.
type Submission struct {
	Order     draft.Draft `json:"order"`
	Results   []Result    `json:"results"`
	CreatedAt time.Time   `json:"created_at"`
}

// ResultMap keys results by channel name for the HTTP response shape.
func (s Submission) ResultMap() map[string]Result {
	m := make(map[string]Result, len(s.Results))
	for _, r := range s.Results {
		m[r.Channel] = r
	}
	return m
}
