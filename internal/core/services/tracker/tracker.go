package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
	"github.com/lcalzada-xor/blemap/internal/core/ports"
	"github.com/lcalzada-xor/blemap/internal/core/services/persistence"
	"github.com/lcalzada-xor/blemap/internal/core/services/presence"
	"github.com/lcalzada-xor/blemap/internal/core/services/resolver"
	"github.com/lcalzada-xor/blemap/internal/telemetry"
)

// Config controls the ingestion filter and the reporting cadence.
type Config struct {
	// RSSIThreshold drops sightings weaker than this many dBm before they
	// reach the presence store.
	RSSIThreshold int
	// TickInterval is the reporting cadence.
	TickInterval time.Duration
	// Debug is echoed into snapshots so renderers can switch layout.
	Debug bool
}

// Tracker is the service glueing the presence store, the resolver, the
// renderer and the persistence sink together. HandleSighting is the write
// path; Run drives the read/report path on a fixed cadence. The two may
// execute on different goroutines; the presence store serializes them.
type Tracker struct {
	cfg         Config
	store       *presence.Store
	resolver    *resolver.Resolver
	lookup      ports.Lookup
	persistence *persistence.Manager
	renderer    ports.Renderer

	// now is swappable for tests.
	now func() time.Time

	mu   sync.RWMutex
	last domain.Snapshot
}

// New creates a tracker. All collaborators are required except the
// renderer, which may be nil for headless runs.
func New(cfg Config, store *presence.Store, res *resolver.Resolver, lookup ports.Lookup, pm *persistence.Manager, renderer ports.Renderer) (*Tracker, error) {
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("tracker: tick interval must be positive, got %s", cfg.TickInterval)
	}
	if store == nil || res == nil || lookup == nil || pm == nil {
		return nil, fmt.Errorf("tracker: store, resolver, lookup and persistence are required")
	}
	return &Tracker{
		cfg:         cfg,
		store:       store,
		resolver:    res,
		lookup:      lookup,
		persistence: pm,
		renderer:    renderer,
		now:         time.Now,
	}, nil
}

// HandleSighting ingests one advertisement event. Events without a signal
// reading or below the threshold are dropped silently; that is expected
// filtering, not an error.
func (t *Tracker) HandleSighting(s domain.RawSighting) {
	telemetry.SightingsReceived.Inc()

	if s.RSSI == nil {
		telemetry.SightingsDropped.WithLabelValues("no_rssi").Inc()
		return
	}
	if *s.RSSI < t.cfg.RSSIThreshold {
		telemetry.SightingsDropped.WithLabelValues("below_threshold").Inc()
		return
	}

	ts := s.Timestamp
	if ts.IsZero() {
		ts = t.now()
	}

	name := s.Name
	if name == "" {
		name = domain.UnknownDeviceName
	}

	attrs := domain.DeviceAttributes{
		Name:         name,
		Manufacturer: t.lookup.ManufacturerName(s.ManufacturerID),
		RSSI:         *s.RSSI,
		Services:     t.lookup.ServiceNames(s.ServiceUUIDs),
		TXPower:      s.TXPower,
		Connectable:  s.Connectable,
		LastSeen:     ts,
	}

	t.store.Record(s.RawID, attrs, ts)

	if err := t.persistence.QueueTransaction(ts, s.RawID, attrs); err != nil {
		slog.Error("Sighting accepted but not persisted", "raw_id", s.RawID, "error", err)
	}
}

// Tick prunes, resolves and fans the snapshot out to rendering and
// persistence. Downstream failures are reported, never fatal.
func (t *Tracker) Tick(now time.Time) domain.Snapshot {
	// One locked read for both figures so the report describes one instant.
	active, totalTracked := t.store.Snapshot(now)
	devices := t.resolver.Resolve(active)
	snap := domain.Snapshot{
		Devices:            devices,
		RawActiveCount:     totalTracked,
		LogicalDeviceCount: len(devices),
		Debug:              t.cfg.Debug,
	}

	telemetry.RawActiveDevices.Set(float64(snap.RawActiveCount))
	telemetry.LogicalDevices.Set(float64(snap.LogicalDeviceCount))

	if t.renderer != nil {
		t.renderer.Render(snap)
	}
	if err := t.persistence.QueueReport(now, snap.RawActiveCount, snap.LogicalDeviceCount); err != nil {
		slog.Error("Tick report not persisted", "error", err)
	}

	t.mu.Lock()
	t.last = snap
	t.mu.Unlock()

	return snap
}

// Run fires the reporting tick until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(t.now())
		}
	}
}

// Snapshot returns the result of the most recent tick.
func (t *Tracker) Snapshot() domain.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}
