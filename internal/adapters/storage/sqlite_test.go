package storage

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
)

func newTestAdapter(t *testing.T) *SQLiteAdapter {
	t.Helper()
	adapter, err := NewSQLiteAdapter(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter
}

func TestWritesOutsideSessionBracket(t *testing.T) {
	adapter := newTestAdapter(t)

	err := adapter.RecordTransaction(time.Now(), "AA:BB", domain.DeviceAttributes{Name: "x"})
	assert.ErrorIs(t, err, ErrNoSession)

	err = adapter.RecordReport(time.Now(), 1, 1)
	assert.ErrorIs(t, err, ErrNoSession)

	_, ok := adapter.CurrentSession()
	assert.False(t, ok)
}

func TestSessionLifecycle(t *testing.T) {
	adapter := newTestAdapter(t)

	start := time.Now().Truncate(time.Second)
	id, err := adapter.BeginSession(start)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// A second open while one is live is a caller bug.
	_, err = adapter.BeginSession(start)
	assert.Error(t, err)

	current, ok := adapter.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, id, current.ID)
	assert.Nil(t, current.EndedAt)

	end := start.Add(time.Minute)
	require.NoError(t, adapter.EndSession(end))

	_, ok = adapter.CurrentSession()
	assert.False(t, ok)

	stored, err := adapter.GetSession(id)
	require.NoError(t, err)
	require.NotNil(t, stored.EndedAt)
	assert.WithinDuration(t, end, *stored.EndedAt, time.Second)

	// Ending with no live session is a no-op.
	assert.NoError(t, adapter.EndSession(end))

	// A new session can open after the previous one closed.
	id2, err := adapter.BeginSession(end)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestRecordTransactionPersistsAttributes(t *testing.T) {
	adapter := newTestAdapter(t)

	id, err := adapter.BeginSession(time.Now())
	require.NoError(t, err)

	tx := -4
	connectable := true
	attrs := domain.DeviceAttributes{
		Name:         "AirPods Pro",
		Manufacturer: "Apple",
		RSSI:         -58,
		Services:     "Apple Continuity",
		TXPower:      &tx,
		Connectable:  &connectable,
		LastSeen:     time.Now(),
	}
	require.NoError(t, adapter.RecordTransaction(time.Now(), "AA:BB:CC", attrs))

	var model TransactionModel
	require.NoError(t, adapter.db.First(&model).Error)
	assert.Equal(t, id, model.SessionID)
	assert.Equal(t, "AA:BB:CC", model.RawID)

	var decoded domain.DeviceAttributes
	require.NoError(t, json.Unmarshal([]byte(model.Attributes), &decoded))
	assert.Equal(t, attrs.Name, decoded.Name)
	assert.Equal(t, attrs.RSSI, decoded.RSSI)
	require.NotNil(t, decoded.TXPower)
	assert.Equal(t, tx, *decoded.TXPower)

	count, err := adapter.CountTransactions(id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRecordAndListReports(t *testing.T) {
	adapter := newTestAdapter(t)

	id, err := adapter.BeginSession(time.Now())
	require.NoError(t, err)

	base := time.Now().Truncate(time.Second)
	require.NoError(t, adapter.RecordReport(base, 5, 3))
	require.NoError(t, adapter.RecordReport(base.Add(10*time.Second), 4, 2))
	require.NoError(t, adapter.RecordReport(base.Add(20*time.Second), 0, 0))

	reports, err := adapter.ListReports(id)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, 5, reports[0].RawActiveCount)
	assert.Equal(t, 3, reports[0].LogicalDeviceCount)
	assert.Equal(t, 0, reports[2].RawActiveCount)
	assert.Equal(t, 0, reports[2].LogicalDeviceCount, "empty ticks are recorded, not skipped")
	assert.True(t, reports[0].Timestamp.Before(reports[1].Timestamp))
}

func TestReportsAreScopedToSession(t *testing.T) {
	adapter := newTestAdapter(t)

	first, err := adapter.BeginSession(time.Now())
	require.NoError(t, err)
	require.NoError(t, adapter.RecordReport(time.Now(), 1, 1))
	require.NoError(t, adapter.EndSession(time.Now()))

	second, err := adapter.BeginSession(time.Now())
	require.NoError(t, err)
	require.NoError(t, adapter.RecordReport(time.Now(), 2, 2))
	require.NoError(t, adapter.RecordReport(time.Now(), 3, 3))

	reports, err := adapter.ListReports(first)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	reports, err = adapter.ListReports(second)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}
