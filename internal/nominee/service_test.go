package nominee_test

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"heirloom/internal/nominee"
	"heirloom/internal/nominee/mocks"
	"heirloom/internal/platform/metrics"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

func newTestService(t *testing.T) (*nominee.Service, *nominee.MemoryStore) {
	t.Helper()
	store := nominee.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := nominee.NewService(store, logger, metrics.NewWith(prometheus.NewRegistry()))
	return svc, store
}

func TestCreateAssignsReferenceCode(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := domain.NewOwnerID()

	rec, err := svc.Create(context.Background(), ownerID, "Heir@Example.com", "Jordan Heir", domain.RelationshipFamily)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInactive, rec.Status)
	assert.Equal(t, "heir@example.com", rec.Email)
	assert.Regexp(t, regexp.MustCompile(`^BEN-[A-Z0-9]{4}-[A-Z0-9]{4}$`), rec.ReferenceCode.String())
}

func TestCreateEnforcesUniqueEmailPerOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := domain.NewOwnerID()
	ctx := context.Background()

	_, err := svc.Create(ctx, ownerID, "heir@example.com", "Jordan", domain.RelationshipFamily)
	require.NoError(t, err)

	_, err = svc.Create(ctx, ownerID, "HEIR@example.com", "Jordan Again", domain.RelationshipFriend)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))

	// The same email under a different owner is fine.
	_, err = svc.Create(ctx, domain.NewOwnerID(), "heir@example.com", "Jordan", domain.RelationshipFamily)
	assert.NoError(t, err)
}

func TestCreateEnforcesOwnerLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := domain.NewOwnerID()
	ctx := context.Background()

	_, err := svc.Create(ctx, ownerID, "first@example.com", "First", domain.RelationshipFamily)
	require.NoError(t, err)
	_, err = svc.Create(ctx, ownerID, "second@example.com", "Second", domain.RelationshipFriend)
	require.NoError(t, err)

	_, err = svc.Create(ctx, ownerID, "third@example.com", "Third", domain.RelationshipOther)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Contains(t, err.Error(), "maximum number of nominees")
}

func TestCreateRetriesOnReferenceCodeCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := nominee.NewService(store, logger, metrics.NewWith(prometheus.NewRegistry()))

	gomock.InOrder(
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nominee.ErrDuplicateCode),
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
	)

	_, err := svc.Create(context.Background(), domain.NewOwnerID(), "heir@example.com", "Jordan", domain.RelationshipFamily)
	assert.NoError(t, err)
}

func TestFindByCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec, err := svc.Create(ctx, domain.NewOwnerID(), "heir@example.com", "Jordan", domain.RelationshipFamily)
	require.NoError(t, err)

	found, err := svc.FindByCredentials(ctx, "HEIR@example.com", rec.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)

	_, err = svc.FindByCredentials(ctx, "someone-else@example.com", rec.ReferenceCode)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	_, err = svc.FindByCredentials(ctx, "heir@example.com", domain.ReferenceCode("BEN-ZZZZ-ZZZZ"))
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestSubmitProofLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec, err := svc.Create(ctx, domain.NewOwnerID(), "heir@example.com", "Jordan", domain.RelationshipFamily)
	require.NoError(t, err)

	pending, err := svc.SubmitProof(ctx, rec, "uploads/cert.pdf", "cert.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingVerification, pending.Status)

	// A second submission over the in-flight review fails on state.
	_, err = svc.SubmitProof(ctx, rec, "uploads/other.pdf", "other.pdf")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
}

func TestConcurrentSubmitProofHasOneWinner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec, err := svc.Create(ctx, domain.NewOwnerID(), "heir@example.com", "Jordan", domain.RelationshipFamily)
	require.NoError(t, err)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitProof(ctx, rec, "uploads/cert.pdf", "cert.pdf")
		}(i)
	}
	wg.Wait()

	var winners int
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
		}
	}
	assert.Equal(t, 1, winners)

	final, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingVerification, final.Status)
}

func TestApproveAndReject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, domain.NewOwnerID(), "heir@example.com", "Jordan", domain.RelationshipFamily)
	require.NoError(t, err)

	// Approving before any proof was submitted is a state error.
	_, err = svc.Approve(ctx, rec.ID)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
	assert.Contains(t, err.Error(), domain.StatusInactive.String())

	pending, err := svc.SubmitProof(ctx, rec, "uploads/cert.pdf", "cert.pdf")
	require.NoError(t, err)

	active, err := svc.Approve(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, active.Status)
	assert.NotNil(t, active.VerifiedAt)

	// ACTIVE is terminal.
	_, err = svc.Reject(ctx, pending.ID, "too late")
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
}

func TestRejectKeepsReason(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, domain.NewOwnerID(), "heir@example.com", "Jordan", domain.RelationshipFamily)
	require.NoError(t, err)
	pending, err := svc.SubmitProof(ctx, rec, "uploads/cert.pdf", "cert.pdf")
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, pending.ID, "document illegible")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, "document illegible", rejected.RejectionReason)

	_, err = svc.Approve(ctx, pending.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
}

func TestGetUnknownNominee(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), domain.NewNomineeID())
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
