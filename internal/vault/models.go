package vault

import (
	"time"

	"github.com/google/uuid"

	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

// AssetStatus is the release lifecycle of a stored asset.
type AssetStatus string

const (
	AssetLocked   AssetStatus = "LOCKED"
	AssetPending  AssetStatus = "PENDING"
	AssetReleased AssetStatus = "RELEASED"
)

// ReleaseCondition names the event that unlocks an asset.
type ReleaseCondition string

const (
	ReleaseOnDeath      ReleaseCondition = "ON_DEATH"
	ReleaseOnIncapacity ReleaseCondition = "ON_INCAPACITY"
	ReleaseOnRequest    ReleaseCondition = "ON_REQUEST"
	ReleaseManual       ReleaseCondition = "MANUAL"
)

// AssetCategory groups assets for the dashboard.
type AssetCategory string

const (
	CategoryLegal     AssetCategory = "Legal"
	CategoryFinancial AssetCategory = "Financial"
	CategoryPersonal  AssetCategory = "Personal"
	CategoryMedia     AssetCategory = "Media"
	CategoryOther     AssetCategory = "Other"
)

var validCategories = map[AssetCategory]bool{
	CategoryLegal: true, CategoryFinancial: true, CategoryPersonal: true,
	CategoryMedia: true, CategoryOther: true,
}

// ParseAssetCategory validates a category, defaulting empty input to Other.
func ParseAssetCategory(s string) (AssetCategory, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := AssetCategory(s)
	if !validCategories[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid asset category")
	}
	return c, nil
}

// DigitalAsset is an encrypted file in an owner's vault. The plaintext never
// persists; MapFileRef points at the fragment map the engine produced.
type DigitalAsset struct {
	ID                uuid.UUID
	OwnerID           domain.OwnerID
	Name              string
	Category          AssetCategory
	Description       string
	Status            AssetStatus
	ReleaseCondition  ReleaseCondition
	MapFileRef        string
	EncryptionKeyHash string
	FragmentCount     int
	ReleasedAt        *time.Time
	CreatedAt         time.Time
}

// NoteVisibility controls who may read a legacy note.
type NoteVisibility string

const (
	NotePrivate NoteVisibility = "PRIVATE"
	NoteNominee NoteVisibility = "NOMINEE"
	NotePublic  NoteVisibility = "PUBLIC"
)

var validVisibilities = map[NoteVisibility]bool{
	NotePrivate: true, NoteNominee: true, NotePublic: true,
}

// ParseNoteVisibility validates a visibility, defaulting empty input to PRIVATE.
func ParseNoteVisibility(s string) (NoteVisibility, error) {
	if s == "" {
		return NotePrivate, nil
	}
	v := NoteVisibility(s)
	if !validVisibilities[v] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid note visibility")
	}
	return v, nil
}

// LegacyNote is a written message an owner leaves behind. Nominees see notes
// whose visibility is NOMINEE or PUBLIC once access is granted.
type LegacyNote struct {
	ID         uuid.UUID
	OwnerID    domain.OwnerID
	Title      string
	Content    string
	Visibility NoteVisibility
	Category   string
	CreatedAt  time.Time
}
