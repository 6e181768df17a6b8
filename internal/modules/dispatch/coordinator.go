// README: Dispatch coordinator; concurrent fan-out with per-channel isolation.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"bvetra/internal/modules/draft"
	"bvetra/internal/types"
)

// AddressResolver optionally rewrites free-text location spans into formatted
// addresses before the payloads are built. Implemented by internal/maps.
type AddressResolver interface {
	Resolve(ctx context.Context, span string) (string, bool)
}

// Coordinator fans a finished draft out to all configured channels.
type Coordinator struct {
	channels []Channel
	resolver AddressResolver
	log      *zap.Logger
}

// NewCoordinator wires the channel set. resolver may be nil.
func NewCoordinator(log *zap.Logger, resolver AddressResolver, channels ...Channel) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{channels: channels, resolver: resolver, log: log}
}

// Dispatch attempts every configured channel exactly once, concurrently, and
// waits for the full set to settle. A channel failure (error or panic) is
// captured as that channel's result and never blocks or masks another
// channel, and never propagates to the caller.
func (c *Coordinator) Dispatch(ctx context.Context, d draft.Draft, history []types.Turn) Submission {
	snap := d.Snapshot()
	c.enrichAddresses(ctx, &snap)

	results := make([]Result, len(c.channels))
	var wg sync.WaitGroup
	for i, ch := range c.channels {
		if !ch.Configured() {
			results[i] = Result{Channel: ch.Name(), Status: StatusSkipped}
			continue
		}
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = Result{
						Channel: ch.Name(),
						Status:  StatusError,
						Detail:  fmt.Sprintf("panic: %v", r),
					}
					c.log.Error("channel panicked", zap.String("channel", ch.Name()), zap.Any("panic", r))
				}
			}()

			detail, err := ch.Send(ctx, snap, history)
			if err != nil {
				results[i] = Result{Channel: ch.Name(), Status: StatusError, Detail: err.Error()}
				c.log.Warn("channel dispatch failed", zap.String("channel", ch.Name()), zap.Error(err))
				return
			}
			results[i] = Result{Channel: ch.Name(), Status: StatusOK, Detail: detail}
			c.log.Info("channel dispatched", zap.String("channel", ch.Name()), zap.String("detail", detail))
		}(i, ch)
	}
	wg.Wait()

	return Submission{Order: snap, Results: results, CreatedAt: time.Now().UTC()}
}

func (c *Coordinator) enrichAddresses(ctx context.Context, d *draft.Draft) {
	if c.resolver == nil {
		return
	}
	if d.Pickup != "" {
		if addr, ok := c.resolver.Resolve(ctx, d.Pickup); ok {
			d.Pickup = addr
		}
	}
	if d.Dropoff != "" {
		if addr, ok := c.resolver.Resolve(ctx, d.Dropoff); ok {
			d.Dropoff = addr
		}
	}
}
