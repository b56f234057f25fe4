package access_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heirloom/internal/access"
	"heirloom/internal/audit"
	"heirloom/internal/nominee"
	"heirloom/internal/owner"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/platform/middleware"
	"heirloom/internal/session"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

type fixture struct {
	svc        *access.Service
	owners     *owner.Service
	nominees   *nominee.Service
	auditStore *audit.MemoryStore
	recorder   *audit.Recorder
	sessions   *session.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())

	owners := owner.NewService(owner.NewMemoryStore(), logger, m)
	nominees := nominee.NewService(nominee.NewMemoryStore(), logger, m)
	sessions := session.NewIssuer("access-service-test-key", time.Hour, 7*24*time.Hour)
	auditStore := audit.NewMemoryStore()
	recorder := audit.NewRecorder(auditStore, nil, logger, m)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = recorder.Close(ctx)
	})

	return &fixture{
		svc:        access.NewService(owners, nominees, sessions, recorder, logger, m),
		owners:     owners,
		nominees:   nominees,
		auditStore: auditStore,
		recorder:   recorder,
		sessions:   sessions,
	}
}

func (f *fixture) registerOwner(t *testing.T) owner.Owner {
	t.Helper()
	o, err := f.owners.Register(context.Background(), "owner@example.com", "Alex Owner", "correct horse battery")
	require.NoError(t, err)
	return o
}

func (f *fixture) designate(t *testing.T, o owner.Owner) nominee.Record {
	t.Helper()
	rec, err := f.nominees.Create(context.Background(), o.ID, "heir@example.com", "Jordan Heir", domain.RelationshipFamily)
	require.NoError(t, err)
	return rec
}

func (f *fixture) activate(t *testing.T, rec nominee.Record) nominee.Record {
	t.Helper()
	ctx := context.Background()
	pending, err := f.nominees.SubmitProof(ctx, rec, "uploads/cert.pdf", "cert.pdf")
	require.NoError(t, err)
	active, err := f.nominees.Approve(ctx, pending.ID)
	require.NoError(t, err)
	return active
}

func drainAudit(t *testing.T, f *fixture) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.recorder.Close(ctx))
}

func TestEvaluateInactiveNoTrigger(t *testing.T) {
	f := newFixture(t)
	o := f.registerOwner(t)
	rec := f.designate(t, o)

	ev, err := f.svc.Evaluate(context.Background(), rec.Email, rec.ReferenceCode)
	require.NoError(t, err)
	assert.False(t, ev.Decision.CanAccess)
	assert.Equal(t, domain.ActionWaitForContinuityTrigger, ev.Decision.RequiredAction)
}

func TestEvaluateInactiveAfterTrigger(t *testing.T) {
	f := newFixture(t)
	o := f.registerOwner(t)
	rec := f.designate(t, o)
	_, err := f.owners.TriggerContinuity(context.Background(), o.ID)
	require.NoError(t, err)

	ev, err := f.svc.Evaluate(context.Background(), rec.Email, rec.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUploadDeathCertificate, ev.Decision.RequiredAction)
}

func TestEvaluateBadCredentials(t *testing.T) {
	f := newFixture(t)
	o := f.registerOwner(t)
	rec := f.designate(t, o)

	_, err := f.svc.Evaluate(context.Background(), "stranger@example.com", rec.ReferenceCode)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	_, err = f.svc.Evaluate(context.Background(), rec.Email, domain.ReferenceCode("BEN-0000-0000"))
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestLoginGrantsSessionAndAuditsStart(t *testing.T) {
	f := newFixture(t)
	o := f.registerOwner(t)
	rec := f.activate(t, f.designate(t, o))
	// Approval triggered continuity through the workflow in production; the
	// raw service does not, so trigger explicitly.
	require.NoError(t, f.owners.EnsureTriggered(context.Background(), o.ID))

	ctx := middleware.WithClientMetadata(context.Background(), "203.0.113.9",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile Safari")
	res, err := f.svc.Login(ctx, rec.Email, rec.ReferenceCode)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, 5*time.Second)

	claims, err := f.sessions.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, rec.ID.String(), claims.SubjectID)
	assert.Equal(t, o.ID.String(), claims.OwnerID)

	drainAudit(t, f)
	entries, err := f.auditStore.ListByNominee(context.Background(), rec.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionSessionStart, entries[0].Action)
	assert.Equal(t, audit.StatusSuccess, entries[0].Status)
	assert.Equal(t, "203.0.113.9", entries[0].SourceIP)
	assert.Equal(t, audit.DeviceMobile, entries[0].DeviceClass)
}

func TestLoginDeniedIsAuditedAsBlocked(t *testing.T) {
	f := newFixture(t)
	o := f.registerOwner(t)
	rec := f.activate(t, f.designate(t, o))
	// Continuity not triggered: ACTIVE nominee must still be denied.

	_, err := f.svc.Login(context.Background(), rec.Email, rec.ReferenceCode)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	drainAudit(t, f)
	entries, err := f.auditStore.ListByNominee(context.Background(), rec.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionFailedAccessAttempt, entries[0].Action)
	assert.Equal(t, audit.StatusBlocked, entries[0].Status)
	assert.Contains(t, entries[0].Detail, "continuity")
}
