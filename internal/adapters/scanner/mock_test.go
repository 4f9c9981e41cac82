package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
)

func TestMock_EmitsSightings(t *testing.T) {
	m := NewMock(time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	var got []domain.RawSighting
	deadline := time.After(2 * time.Second)
	for len(got) < 20 {
		select {
		case s := <-m.Sightings():
			got = append(got, s)
		case <-deadline:
			t.Fatalf("only %d sightings arrived before the deadline", len(got))
		}
	}

	for _, s := range got {
		assert.NotEmpty(t, s.RawID)
		assert.NotEmpty(t, s.Name, "anonymous identities carry the unknown sentinel, never an empty name")
		assert.False(t, s.Timestamp.IsZero())
	}
}

func TestMock_StableIdentities(t *testing.T) {
	// The simulated fleet is built once; raw IDs repeat across emissions so
	// the presence window can accumulate samples.
	m := NewMock(time.Millisecond, 42)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	seen := make(map[string]int)
	deadline := time.After(2 * time.Second)
	for count := 0; count < 100; count++ {
		select {
		case s := <-m.Sightings():
			seen[s.RawID]++
		case <-deadline:
			t.Fatal("sightings stalled")
		}
	}

	assert.LessOrEqual(t, len(seen), len(m.identities))
	repeated := 0
	for _, n := range seen {
		if n > 1 {
			repeated++
		}
	}
	assert.Greater(t, repeated, 0, "identities must recur")
}

func TestMock_StopClosesChannel(t *testing.T) {
	m := NewMock(time.Millisecond, 7)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	// Let it emit a little, then stop.
	time.Sleep(20 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, m.Stop(stopCtx))

	// Drain until closed.
	closed := false
	for !closed {
		select {
		case _, ok := <-m.Sightings():
			if !ok {
				closed = true
			}
		case <-time.After(time.Second):
			t.Fatal("sightings channel never closed")
		}
	}

	// Stop again is safe.
	assert.NoError(t, m.Stop(stopCtx))
}

func TestMock_DefaultInterval(t *testing.T) {
	m := NewMock(0, 0)
	assert.Equal(t, 150*time.Millisecond, m.interval)
	assert.NotEmpty(t, m.identities)
}
