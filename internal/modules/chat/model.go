// README: Conversation session aggregate (transcript + draft).
package chat

import (
	"time"

	"bvetra/internal/modules/draft"
	"bvetra/internal/types"
)

// Session owns one visitor's transcript and order draft. A session is never
// shared: all mutation happens on the caller's goroutine, persistence is a
// whole-value save.
type Session struct {
	ID        string       `json:"id"`
	Turns     []types.Turn `json:"turns"`
	Draft     draft.Draft  `json:"draft"`
	NextSeq   int          `json:"next_seq"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func NewSession(id string) *Session {
	return &Session{ID: id, Draft: draft.New()}
}

// Append adds a turn with the next monotonic sequence number.
// Turns are immutable once appended.
func (s *Session) Append(role types.Role, content string) types.Turn {
	t := types.Turn{Role: role, Content: content, Seq: s.NextSeq}
	s.NextSeq++
	s.Turns = append(s.Turns, t)
	s.UpdatedAt = time.Now().UTC()
	return t
}

// clone detaches the session from store-held state.
func (s *Session) clone() *Session {
	cp := *s
	cp.Turns = append([]types.Turn(nil), s.Turns...)
	cp.Draft = s.Draft.Snapshot()
	return &cp
}
