//go:build integration

package nominee_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"heirloom/internal/nominee"
	"heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *nominee.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = nominee.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "nominees", "owners")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) insertOwner() domain.OwnerID {
	id := domain.NewOwnerID()
	_, err := s.postgres.DB.ExecContext(context.Background(), `
		INSERT INTO owners (id, email, full_name, password_hash)
		VALUES ($1, $2, 'Test Owner', 'x')
	`, uuid.UUID(id), id.String()+"@example.com")
	s.Require().NoError(err)
	return id
}

func (s *PostgresStoreSuite) newRecord(ownerID domain.OwnerID, email string) nominee.Record {
	code, err := domain.NewReferenceCode()
	s.Require().NoError(err)
	return nominee.Record{
		ID:            domain.NewNomineeID(),
		OwnerID:       ownerID,
		Email:         email,
		DisplayName:   "Jordan Heir",
		Relationship:  domain.RelationshipFamily,
		ReferenceCode: code,
		Status:        domain.StatusInactive,
		CreatedAt:     time.Now().UTC(),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	ownerID := s.insertOwner()
	rec := s.newRecord(ownerID, "heir@example.com")

	s.Require().NoError(s.store.Create(ctx, rec))

	byID, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.ReferenceCode, byID.ReferenceCode)
	s.Equal(domain.StatusInactive, byID.Status)

	byCode, err := s.store.FindByReferenceCode(ctx, rec.ReferenceCode)
	s.Require().NoError(err)
	s.Equal(rec.ID, byCode.ID)
}

func (s *PostgresStoreSuite) TestCreateConflicts() {
	ctx := context.Background()
	ownerID := s.insertOwner()

	first := s.newRecord(ownerID, "heir@example.com")
	s.Require().NoError(s.store.Create(ctx, first))

	dupEmail := s.newRecord(ownerID, "heir@example.com")
	s.ErrorIs(s.store.Create(ctx, dupEmail), nominee.ErrDuplicateEmail)

	dupCode := s.newRecord(ownerID, "other@example.com")
	dupCode.ReferenceCode = first.ReferenceCode
	s.ErrorIs(s.store.Create(ctx, dupCode), nominee.ErrDuplicateCode)

	s.Require().NoError(s.store.Create(ctx, s.newRecord(ownerID, "second@example.com")))
	s.ErrorIs(s.store.Create(ctx, s.newRecord(ownerID, "third@example.com")), nominee.ErrOwnerLimit)
}

func (s *PostgresStoreSuite) TestCreateUnknownOwner() {
	rec := s.newRecord(domain.NewOwnerID(), "heir@example.com")
	s.ErrorIs(s.store.Create(context.Background(), rec), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentCreateRespectsOwnerLimit() {
	ctx := context.Background()
	ownerID := s.insertOwner()
	const goroutines = 10

	var wg sync.WaitGroup
	var created atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := s.newRecord(ownerID, uuid.NewString()+"@example.com")
			if s.store.Create(ctx, rec) == nil {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(2), created.Load())
}

func (s *PostgresStoreSuite) TestSwapIsConditionalOnStatus() {
	ctx := context.Background()
	ownerID := s.insertOwner()
	rec := s.newRecord(ownerID, "heir@example.com")
	s.Require().NoError(s.store.Create(ctx, rec))

	pending, err := rec.WithProof("uploads/cert.pdf", "cert.pdf", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Swap(ctx, domain.StatusInactive, pending))

	// The guard no longer matches once the first swap landed.
	s.ErrorIs(s.store.Swap(ctx, domain.StatusInactive, pending), sentinel.ErrStaleStatus)

	stored, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPendingVerification, stored.Status)
	s.Equal("cert.pdf", stored.ProofDocumentName)
}

func (s *PostgresStoreSuite) TestConcurrentSwapOneWinner() {
	ctx := context.Background()
	ownerID := s.insertOwner()
	rec := s.newRecord(ownerID, "heir@example.com")
	s.Require().NoError(s.store.Create(ctx, rec))

	pending, err := rec.WithProof("uploads/cert.pdf", "cert.pdf", time.Now().UTC())
	s.Require().NoError(err)

	const goroutines = 10
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.store.Swap(ctx, domain.StatusInactive, pending) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *PostgresStoreSuite) TestSwapUnknownRecord() {
	rec := s.newRecord(domain.NewOwnerID(), "heir@example.com")
	s.ErrorIs(s.store.Swap(context.Background(), domain.StatusInactive, rec), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByOwnerOrdersByCreation() {
	ctx := context.Background()
	ownerID := s.insertOwner()

	first := s.newRecord(ownerID, "first@example.com")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	s.Require().NoError(s.store.Create(ctx, first))

	second := s.newRecord(ownerID, "second@example.com")
	s.Require().NoError(s.store.Create(ctx, second))

	recs, err := s.store.ListByOwner(ctx, ownerID)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(first.ID, recs[0].ID)
	s.Equal(second.ID, recs[1].ID)
}
