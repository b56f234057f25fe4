// Package vault manages encrypted digital assets and legacy notes. The
// plaintext of an asset only ever exists in the upload temp file; the
// external engine fragments and encrypts it before anything persists.
package vault

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

var tracer = otel.Tracer("heirloom/vault")

// Service orchestrates uploads, notes and the continuity release.
type Service struct {
	store  Store
	engine Engine
	logger *slog.Logger
}

func NewService(store Store, engine Engine, logger *slog.Logger) *Service {
	return &Service{store: store, engine: engine, logger: logger}
}

// Upload encrypts the file at tempPath through the engine and records the
// resulting asset as LOCKED. The temp file is removed regardless of outcome.
func (s *Service) Upload(ctx context.Context, ownerID domain.OwnerID, tempPath, name string, category AssetCategory, description string) (DigitalAsset, error) {
	ctx, span := tracer.Start(ctx, "vault.Upload", trace.WithAttributes(
		attribute.String("owner_id", ownerID.String()),
		attribute.String("asset.category", string(category)),
	))
	defer span.End()
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			s.logger.WarnContext(ctx, "upload temp file not removed", "path", tempPath, "error", err)
		}
	}()

	result, err := s.engine.Encrypt(ctx, tempPath, ownerID)
	if err != nil {
		span.RecordError(err)
		return DigitalAsset{}, dErrors.Wrap(dErrors.CodeInternal, "encryption failed", err)
	}

	asset := DigitalAsset{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Name:              name,
		Category:          category,
		Description:       description,
		Status:            AssetLocked,
		ReleaseCondition:  ReleaseOnDeath,
		MapFileRef:        result.MapFile,
		EncryptionKeyHash: result.EncryptionKeyHash,
		FragmentCount:     result.FragmentCount,
		CreatedAt:         time.Now(),
	}
	if err := s.store.SaveAsset(ctx, asset); err != nil {
		span.RecordError(err)
		return DigitalAsset{}, dErrors.Wrap(dErrors.CodeInternal, "failed to save asset", err)
	}

	s.logger.InfoContext(ctx, "asset secured",
		"asset_id", asset.ID.String(),
		"owner_id", ownerID.String(),
		"fragments", result.FragmentCount,
	)
	return asset, nil
}

// CreateNote stores a legacy note.
func (s *Service) CreateNote(ctx context.Context, ownerID domain.OwnerID, title, content string, visibility NoteVisibility, category string) (LegacyNote, error) {
	if title == "" || content == "" {
		return LegacyNote{}, dErrors.New(dErrors.CodeInvalidInput, "title and content are required")
	}
	if category == "" {
		category = "Personal"
	}
	note := LegacyNote{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Title:      title,
		Content:    content,
		Visibility: visibility,
		Category:   category,
		CreatedAt:  time.Now(),
	}
	if err := s.store.SaveNote(ctx, note); err != nil {
		return LegacyNote{}, dErrors.Wrap(dErrors.CodeInternal, "failed to save note", err)
	}
	return note, nil
}

// ListAssets returns all of an owner's assets, whatever their status.
func (s *Service) ListAssets(ctx context.Context, ownerID domain.OwnerID) ([]DigitalAsset, error) {
	assets, err := s.store.ListAssetsByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list assets", err)
	}
	return assets, nil
}

// ListNotes returns all of an owner's notes, including private ones.
func (s *Service) ListNotes(ctx context.Context, ownerID domain.OwnerID) ([]LegacyNote, error) {
	notes, err := s.store.ListNotesByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list notes", err)
	}
	return notes, nil
}

// NomineeView returns what a granted nominee may see: released assets and
// notes marked for nominees or the public.
func (s *Service) NomineeView(ctx context.Context, ownerID domain.OwnerID) ([]DigitalAsset, []LegacyNote, error) {
	assets, err := s.store.ListReleasedAssets(ctx, ownerID)
	if err != nil {
		return nil, nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list released assets", err)
	}
	notes, err := s.store.ListNomineeVisibleNotes(ctx, ownerID)
	if err != nil {
		return nil, nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list notes", err)
	}
	return assets, notes, nil
}

// ReleaseForOwner releases held assets after a continuity trigger. Plugged
// into the owner service as its release hook.
func (s *Service) ReleaseForOwner(ctx context.Context, ownerID domain.OwnerID, at time.Time) error {
	released, err := s.store.ReleaseAssets(ctx, ownerID, at)
	if err != nil {
		return err
	}
	if released > 0 {
		s.logger.InfoContext(ctx, "assets released", "owner_id", ownerID.String(), "count", released)
	}
	return nil
}
