package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
)

type recordedTransaction struct {
	ts    time.Time
	rawID string
	attrs domain.DeviceAttributes
}

type recordedReport struct {
	ts      time.Time
	raw     int
	logical int
}

// fakeStorage is an in-memory ports.Storage with optional injected failures.
type fakeStorage struct {
	mu           sync.Mutex
	transactions []recordedTransaction
	reports      []recordedReport
	sessionOpen  bool
	endCalls     int

	// failTransactions makes the next N RecordTransaction calls fail.
	failTransactions int
}

func (f *fakeStorage) BeginSession(start time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionOpen = true
	return "test-session", nil
}

func (f *fakeStorage) RecordTransaction(ts time.Time, rawID string, attrs domain.DeviceAttributes) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTransactions > 0 {
		f.failTransactions--
		return errors.New("disk unhappy")
	}
	f.transactions = append(f.transactions, recordedTransaction{ts: ts, rawID: rawID, attrs: attrs})
	return nil
}

func (f *fakeStorage) RecordReport(ts time.Time, rawActiveCount, logicalDeviceCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, recordedReport{ts: ts, raw: rawActiveCount, logical: logicalDeviceCount})
	return nil
}

func (f *fakeStorage) EndSession(end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionOpen = false
	f.endCalls++
	return nil
}

func (f *fakeStorage) CurrentSession() (domain.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.sessionOpen {
		return domain.Session{}, false
	}
	return domain.Session{ID: "test-session"}, true
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transactions)
}

func (f *fakeStorage) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func TestNewManager_RequiresStorage(t *testing.T) {
	_, err := NewManager(nil, 16)
	assert.Error(t, err)
}

func TestManager_QueueBeforeStart(t *testing.T) {
	m, err := NewManager(&fakeStorage{}, 16)
	require.NoError(t, err)

	err = m.QueueTransaction(time.Now(), "AA", domain.DeviceAttributes{Name: "x"})
	assert.ErrorIs(t, err, ErrNotStarted)

	err = m.QueueReport(time.Now(), 1, 1)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestManager_WritesFlushOnClose(t *testing.T) {
	fs := &fakeStorage{}
	m, err := NewManager(fs, 64)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	for i := 0; i < 10; i++ {
		require.NoError(t, m.QueueTransaction(time.Now(), "AA:BB", domain.DeviceAttributes{Name: "Phone", RSSI: -50}))
	}
	require.NoError(t, m.QueueReport(time.Now(), 3, 2))

	require.NoError(t, m.Close())

	assert.Equal(t, 10, fs.transactionCount())
	assert.Equal(t, 1, fs.reportCount())
	assert.Equal(t, 1, fs.endCalls)
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	fs := &fakeStorage{}
	m, err := NewManager(fs, 16)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, fs.endCalls, "session ends exactly once")
}

func TestManager_RetriesOnceThenDrops(t *testing.T) {
	// First attempt fails, the retry succeeds: the write must land.
	fs := &fakeStorage{failTransactions: 1}
	m, err := NewManager(fs, 16)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.QueueTransaction(time.Now(), "AA", domain.DeviceAttributes{Name: "x"}))
	require.NoError(t, m.Close())
	assert.Equal(t, 1, fs.transactionCount())

	// Both attempts fail: the write is dropped, the manager keeps going.
	fs = &fakeStorage{failTransactions: 2}
	m, err = NewManager(fs, 16)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.QueueTransaction(time.Now(), "AA", domain.DeviceAttributes{Name: "x"}))
	require.NoError(t, m.QueueTransaction(time.Now(), "BB", domain.DeviceAttributes{Name: "y"}))
	require.NoError(t, m.Close())
	assert.Equal(t, 1, fs.transactionCount(), "failed write dropped, later write survives")
}

func TestManager_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	fs := &fakeStorage{}
	m, err := NewManager(fs, 1)
	require.NoError(t, err)

	// Mark started without running the drain loop so the queue stays full.
	m.started.Store(true)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			_ = m.QueueTransaction(time.Now(), "AA", domain.DeviceAttributes{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("QueueTransaction blocked on a full queue")
	}
}
