// README: Optional address resolution via Google Places text search.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// Resolver turns free-text location spans from the conversation
// ("аэропорта", "центр") into formatted addresses for dispatch payloads.
type Resolver struct {
	client *maps.Client
}

// NewResolver creates a Resolver with the given API key.
func NewResolver(apiKey string) (*Resolver, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Resolver{client: client}, nil
}

// Resolve looks the span up and returns the best formatted address.
// Any lookup failure reports ok=false so the raw span stays in use.
func (r *Resolver) Resolve(ctx context.Context, span string) (string, bool) {
	resp, err := r.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    span,
		Language: "ru",
	})
	if err != nil || len(resp.Results) == 0 {
		return "", false
	}
	addr := resp.Results[0].FormattedAddress
	if addr == "" {
		return "", false
	}
	return addr, true
}
