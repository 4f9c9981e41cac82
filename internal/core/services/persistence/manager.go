package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
	"github.com/lcalzada-xor/blemap/internal/core/ports"
	"github.com/lcalzada-xor/blemap/internal/telemetry"
)

// ErrNotStarted is returned when a write is queued before Start opened a
// session. That ordering is a misconfiguration of the host harness and is
// surfaced immediately rather than buffered.
var ErrNotStarted = errors.New("persistence: manager not started, no session exists")

const (
	kindTransaction = "transaction"
	kindReport      = "report"
)

type op struct {
	kind    string
	ts      time.Time
	rawID   string
	attrs   domain.DeviceAttributes
	raw     int
	logical int
}

// Manager decouples the ingestion and tick paths from storage I/O with a
// bounded queue. A slow disk drops writes instead of stalling the caller;
// each write gets one retry before the failure is logged and dropped.
type Manager struct {
	storage ports.Storage
	queue   chan op

	started   atomic.Bool
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewManager creates a manager in front of the given storage. A nil storage
// is rejected here so the misconfiguration surfaces at construction time.
func NewManager(storage ports.Storage, bufferSize int) (*Manager, error) {
	if storage == nil {
		return nil, errors.New("persistence: storage is required")
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Manager{
		storage: storage,
		queue:   make(chan op, bufferSize),
		stop:    make(chan struct{}),
	}, nil
}

// Start opens the session and begins the write loop. The loop runs until
// ctx is canceled, then drains whatever is still queued.
func (m *Manager) Start(ctx context.Context) error {
	sessionID, err := m.storage.BeginSession(time.Now())
	if err != nil {
		return fmt.Errorf("persistence: begin session: %w", err)
	}
	slog.Info("Persistence session opened", "session", sessionID)
	m.started.Store(true)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-ctx.Done():
				m.drain()
				return
			case <-m.stop:
				m.drain()
				return
			case o := <-m.queue:
				m.write(o)
			}
		}
	}()
	return nil
}

// QueueTransaction enqueues one accepted sighting. Non-blocking: when the
// queue is full the write is dropped and counted, never stalling ingestion.
func (m *Manager) QueueTransaction(ts time.Time, rawID string, attrs domain.DeviceAttributes) error {
	if !m.started.Load() {
		return ErrNotStarted
	}
	select {
	case m.queue <- op{kind: kindTransaction, ts: ts, rawID: rawID, attrs: attrs}:
	default:
		telemetry.PersistenceErrors.WithLabelValues(kindTransaction).Inc()
		slog.Warn("Persistence queue full, dropping transaction", "raw_id", rawID)
	}
	return nil
}

// QueueReport enqueues one tick report. Both counts are always carried.
func (m *Manager) QueueReport(ts time.Time, rawActiveCount, logicalDeviceCount int) error {
	if !m.started.Load() {
		return ErrNotStarted
	}
	select {
	case m.queue <- op{kind: kindReport, ts: ts, raw: rawActiveCount, logical: logicalDeviceCount}:
	default:
		telemetry.PersistenceErrors.WithLabelValues(kindReport).Inc()
		slog.Warn("Persistence queue full, dropping report")
	}
	return nil
}

// Close stops accepting writes, waits for the loop to drain, and ends the
// session. Safe to call more than once; the session is closed exactly once.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.started.Store(false)
		close(m.stop)
		m.wg.Wait()
		m.drain()
		m.closeErr = m.storage.EndSession(time.Now())
	})
	return m.closeErr
}

func (m *Manager) drain() {
	for {
		select {
		case o := <-m.queue:
			m.write(o)
		default:
			return
		}
	}
}

// write performs the storage call with a single retry. Failures are
// reported and dropped; ingestion must keep running regardless.
func (m *Manager) write(o op) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		switch o.kind {
		case kindTransaction:
			err = m.storage.RecordTransaction(o.ts, o.rawID, o.attrs)
		case kindReport:
			err = m.storage.RecordReport(o.ts, o.raw, o.logical)
		}
		if err == nil {
			if o.kind == kindTransaction {
				telemetry.TransactionsPersisted.Inc()
			}
			return
		}
	}
	telemetry.PersistenceErrors.WithLabelValues(o.kind).Inc()
	slog.Error("Persistence write failed", "kind", o.kind, "error", err)
}
