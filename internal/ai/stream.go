// README: Streaming reply consumer; accumulates chunks into the final text.
package ai

import (
	"context"
	"io"
	"strings"
)

// ChunkSource yields assistant reply fragments in arrival order.
// Next returns io.EOF when the upstream signals end-of-stream.
type ChunkSource interface {
	Next() (string, error)
	Close()
}

// Consume drains src, invoking onChunk with the full text accumulated so far
// after every fragment, and returns the final concatenation.
//
// Failure policy: an error before the first fragment is terminal and returned
// as-is; an error mid-stream means whatever accumulated so far is the final
// (possibly truncated) value and no error is reported. Context cancellation
// stops consumption immediately and releases the source.
func Consume(ctx context.Context, src ChunkSource, onChunk func(partial string)) (string, error) {
	defer src.Close()

	var b strings.Builder
	gotFirst := false
	for {
		if err := ctx.Err(); err != nil {
			return b.String(), err
		}
		chunk, err := src.Next()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return b.String(), cerr
			}
			if !gotFirst {
				return "", err
			}
			// Mid-stream failure: truncated text is the final value.
			return b.String(), nil
		}
		gotFirst = true
		b.WriteString(chunk)
		if onChunk != nil {
			onChunk(b.String())
		}
	}
}
