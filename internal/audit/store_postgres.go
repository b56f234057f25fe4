package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"heirloom/pkg/domain"
)

// PostgresStore persists audit entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, nominee_id, owner_id, action, detail, subject_ref,
			source_ip, user_agent, device_class, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		e.ID, uuid.UUID(e.NomineeID), uuid.UUID(e.OwnerID), string(e.Action), e.Detail,
		e.SubjectRef, e.SourceIP, e.UserAgent, string(e.DeviceClass), string(e.Status), e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByNominee(ctx context.Context, nomineeID domain.NomineeID, limit int) ([]Entry, error) {
	return s.list(ctx, `nominee_id = $1`, uuid.UUID(nomineeID), limit)
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID domain.OwnerID, limit int) ([]Entry, error) {
	return s.list(ctx, `owner_id = $1`, uuid.UUID(ownerID), limit)
}

func (s *PostgresStore) list(ctx context.Context, where string, arg any, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nominee_id, owner_id, action, detail, subject_ref,
			source_ip, user_agent, device_class, status, timestamp
		FROM audit_events
		WHERE `+where+`
		ORDER BY timestamp DESC
		LIMIT $2
	`, arg, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			nomineeID, ownID  uuid.UUID
			action, device    string
			status            string
			detail, subjectRef sql.NullString
		)
		err := rows.Scan(&e.ID, &nomineeID, &ownID, &action, &detail, &subjectRef,
			&e.SourceIP, &e.UserAgent, &device, &status, &e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.NomineeID = domain.NomineeID(nomineeID)
		e.OwnerID = domain.OwnerID(ownID)
		e.Action = Action(action)
		e.DeviceClass = DeviceClass(device)
		e.Status = Status(status)
		e.Detail = detail.String
		e.SubjectRef = subjectRef.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
