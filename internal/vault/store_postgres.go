package vault

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"heirloom/pkg/domain"
)

// PostgresStore persists assets and notes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveAsset(ctx context.Context, a DigitalAsset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, owner_id, name, category, description, status,
			release_condition, map_file_ref, encryption_key_hash, fragment_count, released_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		a.ID, uuid.UUID(a.OwnerID), a.Name, string(a.Category), a.Description, string(a.Status),
		string(a.ReleaseCondition), a.MapFileRef, a.EncryptionKeyHash, a.FragmentCount, a.ReleasedAt, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAssetsByOwner(ctx context.Context, ownerID domain.OwnerID) ([]DigitalAsset, error) {
	return s.listAssets(ctx, `owner_id = $1`, uuid.UUID(ownerID))
}

func (s *PostgresStore) ListReleasedAssets(ctx context.Context, ownerID domain.OwnerID) ([]DigitalAsset, error) {
	return s.listAssets(ctx, `owner_id = $1 AND status = 'RELEASED'`, uuid.UUID(ownerID))
}

// ReleaseAssets flips matching LOCKED assets to RELEASED in one conditional
// UPDATE, so repeated continuity triggers cannot double-release.
func (s *PostgresStore) ReleaseAssets(ctx context.Context, ownerID domain.OwnerID, at time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE assets
		SET status = 'RELEASED', released_at = $2
		WHERE owner_id = $1
		  AND status = 'LOCKED'
		  AND release_condition IN ('ON_DEATH', 'ON_INCAPACITY')
	`, uuid.UUID(ownerID), at)
	if err != nil {
		return 0, fmt.Errorf("release assets: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release assets rows affected: %w", err)
	}
	return int(rows), nil
}

func (s *PostgresStore) listAssets(ctx context.Context, where string, arg any) ([]DigitalAsset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, category, description, status,
			release_condition, map_file_ref, encryption_key_hash, fragment_count, released_at, created_at
		FROM assets
		WHERE `+where+`
		ORDER BY created_at
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []DigitalAsset
	for rows.Next() {
		var (
			a          DigitalAsset
			ownerID    uuid.UUID
			category   string
			status     string
			condition  string
			releasedAt sql.NullTime
		)
		err := rows.Scan(&a.ID, &ownerID, &a.Name, &category, &a.Description, &status,
			&condition, &a.MapFileRef, &a.EncryptionKeyHash, &a.FragmentCount, &releasedAt, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.OwnerID = domain.OwnerID(ownerID)
		a.Category = AssetCategory(category)
		a.Status = AssetStatus(status)
		a.ReleaseCondition = ReleaseCondition(condition)
		if releasedAt.Valid {
			t := releasedAt.Time
			a.ReleasedAt = &t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveNote(ctx context.Context, n LegacyNote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO legacy_notes (id, owner_id, title, content, visibility, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, uuid.UUID(n.OwnerID), n.Title, n.Content, string(n.Visibility), n.Category, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotesByOwner(ctx context.Context, ownerID domain.OwnerID) ([]LegacyNote, error) {
	return s.listNotes(ctx, `owner_id = $1`, uuid.UUID(ownerID))
}

func (s *PostgresStore) ListNomineeVisibleNotes(ctx context.Context, ownerID domain.OwnerID) ([]LegacyNote, error) {
	return s.listNotes(ctx, `owner_id = $1 AND visibility IN ('NOMINEE', 'PUBLIC')`, uuid.UUID(ownerID))
}

func (s *PostgresStore) listNotes(ctx context.Context, where string, arg any) ([]LegacyNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, content, visibility, category, created_at
		FROM legacy_notes
		WHERE `+where+`
		ORDER BY created_at
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []LegacyNote
	for rows.Next() {
		var (
			n          LegacyNote
			ownerID    uuid.UUID
			visibility string
		)
		if err := rows.Scan(&n.ID, &ownerID, &n.Title, &n.Content, &visibility, &n.Category, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.OwnerID = domain.OwnerID(ownerID)
		n.Visibility = NoteVisibility(visibility)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
