package continuity_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heirloom/internal/continuity"
	"heirloom/pkg/domain"
)

type fakeTrigger struct {
	mu        sync.Mutex
	triggered map[domain.OwnerID]int
	fail      bool
}

func newFakeTrigger() *fakeTrigger {
	return &fakeTrigger{triggered: make(map[domain.OwnerID]int)}
}

func (f *fakeTrigger) EnsureTriggered(_ context.Context, id domain.OwnerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.triggered[id]++
	return nil
}

func (f *fakeTrigger) count(id domain.OwnerID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.triggered[id]
}

func runMonitor(t *testing.T, m *continuity.Monitor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestMonitorTriggersLapsedOwner(t *testing.T) {
	store := continuity.NewMemoryHeartbeatStore()
	trigger := newFakeTrigger()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := continuity.NewMonitor(store, trigger, 50*time.Millisecond, 10*time.Millisecond, logger)

	lapsed := domain.NewOwnerID()
	alive := domain.NewOwnerID()
	require.NoError(t, store.Beat(context.Background(), lapsed, time.Now().Add(-time.Minute)))
	require.NoError(t, monitor.Heartbeat(context.Background(), alive))

	runMonitor(t, monitor)

	require.Eventually(t, func() bool {
		return trigger.count(lapsed) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, trigger.count(alive))

	// The lapsed owner is forgotten so the sweep does not refire.
	_, found, err := store.LastBeat(context.Background(), lapsed)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMonitorRetriesWhenTriggerFails(t *testing.T) {
	store := continuity.NewMemoryHeartbeatStore()
	trigger := newFakeTrigger()
	trigger.fail = true
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := continuity.NewMonitor(store, trigger, 10*time.Millisecond, 10*time.Millisecond, logger)

	lapsed := domain.NewOwnerID()
	require.NoError(t, store.Beat(context.Background(), lapsed, time.Now().Add(-time.Minute)))

	runMonitor(t, monitor)
	time.Sleep(50 * time.Millisecond)

	// The heartbeat survives failed sweeps.
	_, found, err := store.LastBeat(context.Background(), lapsed)
	require.NoError(t, err)
	assert.True(t, found)

	trigger.mu.Lock()
	trigger.fail = false
	trigger.mu.Unlock()

	require.Eventually(t, func() bool {
		return trigger.count(lapsed) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHeartbeatRefreshPreventsTrigger(t *testing.T) {
	store := continuity.NewMemoryHeartbeatStore()
	trigger := newFakeTrigger()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := continuity.NewMonitor(store, trigger, 100*time.Millisecond, 10*time.Millisecond, logger)

	ownerID := domain.NewOwnerID()
	runMonitor(t, monitor)

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, monitor.Heartbeat(context.Background(), ownerID))
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, 0, trigger.count(ownerID))
}

func TestMemoryHeartbeatStoreExpired(t *testing.T) {
	store := continuity.NewMemoryHeartbeatStore()
	ctx := context.Background()
	now := time.Now()

	old := domain.NewOwnerID()
	fresh := domain.NewOwnerID()
	require.NoError(t, store.Beat(ctx, old, now.Add(-time.Hour)))
	require.NoError(t, store.Beat(ctx, fresh, now))

	expired, err := store.Expired(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, old, expired[0])
}
