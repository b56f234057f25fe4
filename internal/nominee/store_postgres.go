package nominee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
)

// PostgresStore persists nominee records in PostgreSQL. Pure I/O; state
// transitions belong to the models and the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a record inside a transaction that locks the owner row
// first, so the per-owner cap holds under concurrent inserts. Unique
// constraints cover email and reference code duplicates.
func (s *PostgresStore) Create(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create nominee: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM owners WHERE id = $1 FOR UPDATE`, uuid.UUID(rec.OwnerID)).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock owner: %w", err)
	}

	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM nominees WHERE owner_id = $1`, uuid.UUID(rec.OwnerID)).Scan(&count)
	if err != nil {
		return fmt.Errorf("count nominees: %w", err)
	}
	if count >= maxNomineesPerOwner {
		return ErrOwnerLimit
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO nominees (id, owner_id, email, display_name, relationship, reference_code,
			status, proof_document_ref, proof_document_name, verified_at, rejected_at, rejection_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		uuid.UUID(rec.ID), uuid.UUID(rec.OwnerID), strings.ToLower(rec.Email), rec.DisplayName,
		rec.Relationship.String(), rec.ReferenceCode.String(), rec.Status.String(),
		rec.ProofDocumentRef, rec.ProofDocumentName, rec.VerifiedAt, rec.RejectedAt,
		rec.RejectionReason, rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "reference_code") {
				return ErrDuplicateCode
			}
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert nominee: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create nominee: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.NomineeID) (Record, error) {
	return scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE id = $1`, uuid.UUID(id)))
}

func (s *PostgresStore) FindByReferenceCode(ctx context.Context, code domain.ReferenceCode) (Record, error) {
	return scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE reference_code = $1`, code.String()))
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID domain.OwnerID) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+` WHERE owner_id = $1 ORDER BY created_at`, uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list nominees: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list nominees: %w", err)
	}
	return out, nil
}

// Swap writes the updated snapshot only while the stored status still equals
// expected. Zero rows means a concurrent transition won; the caller decides
// how to report that.
func (s *PostgresStore) Swap(ctx context.Context, expected domain.NomineeStatus, updated Record) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE nominees
		SET status = $3, proof_document_ref = $4, proof_document_name = $5,
			verified_at = $6, rejected_at = $7, rejection_reason = $8
		WHERE id = $1 AND status = $2
	`,
		uuid.UUID(updated.ID), expected.String(), updated.Status.String(),
		updated.ProofDocumentRef, updated.ProofDocumentName,
		updated.VerifiedAt, updated.RejectedAt, updated.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("swap nominee status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap nominee rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := s.FindByID(ctx, updated.ID); err != nil {
			return err
		}
		return sentinel.ErrStaleStatus
	}
	return nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const selectRecord = `
	SELECT id, owner_id, email, display_name, relationship, reference_code,
		status, proof_document_ref, proof_document_name, verified_at, rejected_at, rejection_reason, created_at
	FROM nominees`

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (Record, error) {
	var (
		rec          Record
		id, ownerID  uuid.UUID
		relationship string
		refCode      string
		status       string
		proofRef     sql.NullString
		proofName    sql.NullString
		verifiedAt   sql.NullTime
		rejectedAt   sql.NullTime
		rejectReason sql.NullString
	)
	err := row.Scan(&id, &ownerID, &rec.Email, &rec.DisplayName, &relationship, &refCode,
		&status, &proofRef, &proofName, &verifiedAt, &rejectedAt, &rejectReason, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("scan nominee: %w", err)
	}
	rec.ID = domain.NomineeID(id)
	rec.OwnerID = domain.OwnerID(ownerID)
	rec.Relationship = domain.RelationshipKind(relationship)
	rec.ReferenceCode = domain.ReferenceCode(refCode)
	rec.Status = domain.NomineeStatus(status)
	rec.ProofDocumentRef = proofRef.String
	rec.ProofDocumentName = proofName.String
	rec.RejectionReason = rejectReason.String
	if verifiedAt.Valid {
		t := verifiedAt.Time
		rec.VerifiedAt = &t
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time
		rec.RejectedAt = &t
	}
	return rec, nil
}
