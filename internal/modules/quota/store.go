// README: Quota counters backed by Redis.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "quota:session:%s:%s"

// Counters outlive the month they count by a few days, then expire.
const counterTTL = 35 * 24 * time.Hour

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Increment bumps the session's counter for the given month and returns the
// new value.
func (s *Store) Increment(ctx context.Context, sessionID, month string) (int64, error) {
	key := fmt.Sprintf(keyPrefix, sessionID, month)
	n, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		_ = s.redis.Expire(ctx, key, counterTTL).Err()
	}
	return n, nil
}
