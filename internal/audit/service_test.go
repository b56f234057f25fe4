package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heirloom/internal/audit"
	"heirloom/internal/platform/metrics"
	"heirloom/pkg/domain"
)

func newRecorder(t *testing.T, store audit.Store, publisher audit.Publisher) (*audit.Recorder, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewWith(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := audit.NewRecorder(store, publisher, logger, m)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = r.Close(ctx)
	})
	return r, m
}

func TestRecordPersistsWithDefaults(t *testing.T) {
	store := audit.NewMemoryStore()
	recorder, m := newRecorder(t, store, nil)

	nomineeID := domain.NewNomineeID()
	ownerID := domain.NewOwnerID()
	recorder.Record(context.Background(), audit.Entry{
		NomineeID: nomineeID,
		OwnerID:   ownerID,
		Action:    audit.ActionViewedDashboard,
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile Safari",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, recorder.Close(ctx))

	entries, err := store.ListByNominee(ctx, nomineeID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", e.ID.String())
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, audit.StatusSuccess, e.Status)
	assert.Equal(t, audit.DeviceMobile, e.DeviceClass)
	assert.Equal(t, "Unknown", e.SourceIP)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditRecorded))
}

func TestRecordNeverFailsOnStoreError(t *testing.T) {
	recorder, m := newRecorder(t, failingStore{}, nil)

	recorder.Record(context.Background(), audit.Entry{
		NomineeID: domain.NewNomineeID(),
		OwnerID:   domain.NewOwnerID(),
		Action:    audit.ActionSessionStart,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, recorder.Close(ctx))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditDropped))
}

func TestListByOwnerNewestFirst(t *testing.T) {
	store := audit.NewMemoryStore()
	recorder, _ := newRecorder(t, store, nil)

	ownerID := domain.NewOwnerID()
	nomineeID := domain.NewNomineeID()
	base := time.Now().Add(-time.Hour)
	for i, action := range []audit.Action{audit.ActionSessionStart, audit.ActionViewedDashboard, audit.ActionSessionEnd} {
		recorder.Record(context.Background(), audit.Entry{
			NomineeID: nomineeID,
			OwnerID:   ownerID,
			Action:    action,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, recorder.Close(ctx))

	entries, err := recorder.ListByOwner(ctx, ownerID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionSessionEnd, entries[0].Action)
	assert.Equal(t, audit.ActionViewedDashboard, entries[1].Action)
}

func TestRecordAfterCloseDropsWithoutPanic(t *testing.T) {
	store := audit.NewMemoryStore()
	recorder, m := newRecorder(t, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, recorder.Close(ctx))

	recorder.Record(context.Background(), audit.Entry{
		NomineeID: domain.NewNomineeID(),
		Action:    audit.ActionSessionEnd,
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditDropped))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.AuditRecorded))
}

func TestRecordRacingCloseDoesNotPanic(t *testing.T) {
	store := audit.NewMemoryStore()
	recorder, _ := newRecorder(t, store, nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Record(context.Background(), audit.Entry{
				NomineeID: domain.NewNomineeID(),
				Action:    audit.ActionSessionEnd,
			})
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, recorder.Close(ctx))
	wg.Wait()
}

func TestParseClientAction(t *testing.T) {
	for _, allowed := range []string{"VIEWED_ASSET", "DOWNLOADED_ASSET", "VIEWED_NOTE", "DOWNLOADED_NOTE", "SESSION_END"} {
		_, ok := audit.ParseClientAction(allowed)
		assert.True(t, ok, allowed)
	}
	for _, denied := range []string{"SESSION_START", "FAILED_ACCESS_ATTEMPT", "VIEWED_DASHBOARD", "DROP_TABLES", ""} {
		_, ok := audit.ParseClientAction(denied)
		assert.False(t, ok, denied)
	}
}

type failingStore struct{}

func (failingStore) Insert(context.Context, audit.Entry) error { return errors.New("disk on fire") }
func (failingStore) ListByNominee(context.Context, domain.NomineeID, int) ([]audit.Entry, error) {
	return nil, nil
}
func (failingStore) ListByOwner(context.Context, domain.OwnerID, int) ([]audit.Entry, error) {
	return nil, nil
}
func (failingStore) Health(context.Context) error { return nil }
