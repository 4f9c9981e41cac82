package ports

import (
	"context"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
)

// Scanner defines the interface for advertisement source adapters. The radio
// itself lives outside this module; adapters translate whatever they listen
// to into RawSighting values on the Sightings channel.
type Scanner interface {
	// Start begins delivering sightings. It returns once delivery is running.
	Start(ctx context.Context) error
	// Stop halts delivery and closes the sightings channel. Implementations
	// must return within the context deadline.
	Stop(ctx context.Context) error
	// Sightings is the event channel. Closed after Stop.
	Sightings() <-chan domain.RawSighting
}

// Renderer receives the resolved snapshot on every reporting tick.
type Renderer interface {
	Render(snap domain.Snapshot)
}

// Lookup resolves advertisement identifiers against the static name tables.
// Resolution degrades to formatted unknown labels; it never fails.
type Lookup interface {
	ManufacturerName(id *uint16) string
	ServiceNames(uuids []string) string
}
