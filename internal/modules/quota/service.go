// README: Assistant usage quota; one unit per reply, monthly reset.
package quota

import (
	"context"
	"time"
)

// Counter is satisfied by Store.
type Counter interface {
	Increment(ctx context.Context, sessionID, month string) (int64, error)
}

type Service struct {
	counter   Counter
	allowance int64
	now       func() time.Time
}

// NewService creates a Service backed by the given Counter. allowance <= 0
// selects DefaultAllowance.
func NewService(counter Counter, allowance int64) *Service {
	if allowance <= 0 {
		allowance = DefaultAllowance
	}
	return &Service{counter: counter, allowance: allowance, now: time.Now}
}

// Use consumes one unit of the session's monthly allowance. Counters are
// keyed by month, so exhausted sessions recover when the month rolls over.
func (s *Service) Use(ctx context.Context, sessionID string) error {
	month := s.now().UTC().Format("2006-01")
	n, err := s.counter.Increment(ctx, sessionID, month)
	if err != nil {
		return err
	}
	if n > s.allowance {
		return ErrExhausted
	}
	return nil
}
