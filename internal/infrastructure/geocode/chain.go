package geocode

import (
	"context"
	"errors"
	"fmt"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
)

// Chain asks each geocoder in turn until one finds the place.
type Chain struct {
	geocoders []ports.Geocoder
}

var _ ports.Geocoder = (*Chain)(nil)

// NewChain skips nil entries.
func NewChain(geocoders ...ports.Geocoder) *Chain {
	c := &Chain{}
	for _, g := range geocoders {
		if g != nil {
			c.geocoders = append(c.geocoders, g)
		}
	}
	return c
}

// Geocode returns the first hit. It reports domain.ErrNotFound only when every
// geocoder answered "not found"; otherwise the last transport error wins so the
// miss is not cached as negative.
func (c *Chain) Geocode(ctx context.Context, name string) (domain.GeoPoint, error) {
	var lastErr error
	for _, g := range c.geocoders {
		point, err := g.Geocode(ctx, name)
		if err == nil {
			return point, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.GeoPoint{}, ctxErr
		}
		if errors.Is(err, domain.ErrNotFound) && lastErr != nil {
			continue
		}
		lastErr = err
	}
	if lastErr == nil {
		return domain.GeoPoint{}, fmt.Errorf("no geocoder configured: %w", domain.ErrNotFound)
	}
	return domain.GeoPoint{}, lastErr
}
