package service

import (
	"context"
	"errors"

	"smartval/internal/model"
)

// ErrAddressNotFound means every geocoding tier missed.
var ErrAddressNotFound = errors.New("address not found")

// Geocoder resolves a structured Taiwanese address to coordinates.
type Geocoder interface {
	// Resolve returns the best coordinates for city+town+street, or
	// ErrAddressNotFound once all fallback tiers are exhausted.
	Resolve(ctx context.Context, city, town, street string) (*model.GeocodeResult, error)
}
