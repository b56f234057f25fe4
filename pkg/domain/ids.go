// Package domain holds value primitives shared across bounded contexts.
// Values are parsed at trust boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// OwnerID identifies an account owner.
type OwnerID uuid.UUID

// NomineeID identifies a designated beneficiary.
type NomineeID uuid.UUID

// NewOwnerID mints a random owner ID.
func NewOwnerID() OwnerID { return OwnerID(uuid.New()) }

// NewNomineeID mints a random nominee ID.
func NewNomineeID() NomineeID { return NomineeID(uuid.New()) }

// ParseOwnerID constructs an OwnerID from external input.
func ParseOwnerID(s string) (OwnerID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OwnerID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid owner id")
	}
	return OwnerID(u), nil
}

// ParseNomineeID constructs a NomineeID from external input.
func ParseNomineeID(s string) (NomineeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NomineeID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid nominee id")
	}
	return NomineeID(u), nil
}

func (id OwnerID) String() string { return uuid.UUID(id).String() }
func (id OwnerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id NomineeID) String() string { return uuid.UUID(id).String() }
func (id NomineeID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
