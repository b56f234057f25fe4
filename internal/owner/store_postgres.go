package owner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
)

// PostgresStore persists owners in PostgreSQL. Pure I/O; business rules
// belong in the service layer.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, o Owner) error {
	query := `
		INSERT INTO owners (id, email, full_name, password_hash, continuity_triggered, triggered_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(o.ID), o.Email, o.FullName, o.PasswordHash,
		o.ContinuityTriggered, o.TriggeredAt, o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert owner: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.OwnerID) (Owner, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, password_hash, continuity_triggered, triggered_at, created_at
		FROM owners WHERE id = $1
	`, uuid.UUID(id)))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (Owner, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, password_hash, continuity_triggered, triggered_at, created_at
		FROM owners WHERE LOWER(email) = LOWER($1)
	`, email))
}

// TriggerContinuity flips the one-way flag with a conditional UPDATE so
// concurrent triggers apply at most once.
func (s *PostgresStore) TriggerContinuity(ctx context.Context, id domain.OwnerID, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE owners SET continuity_triggered = TRUE, triggered_at = $2
		WHERE id = $1 AND NOT continuity_triggered
	`, uuid.UUID(id), at)
	if err != nil {
		return false, fmt.Errorf("trigger continuity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("trigger continuity rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish "already triggered" from "no such owner".
		if _, err := s.FindByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (Owner, error) {
	var (
		o   Owner
		id  uuid.UUID
		at  sql.NullTime
		cat time.Time
	)
	err := row.Scan(&id, &o.Email, &o.FullName, &o.PasswordHash, &o.ContinuityTriggered, &at, &cat)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Owner{}, sentinel.ErrNotFound
		}
		return Owner{}, fmt.Errorf("scan owner: %w", err)
	}
	o.ID = domain.OwnerID(id)
	o.CreatedAt = cat
	if at.Valid {
		t := at.Time
		o.TriggeredAt = &t
	}
	return o, nil
}
