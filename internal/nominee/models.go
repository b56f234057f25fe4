package nominee

import (
	"time"

	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

// Record is a designated beneficiary of one owner.
//
// Invariants: ReferenceCode is immutable and globally unique; an owner has at
// most two records; no two records under one owner share an email; records
// are never deleted (audit retention).
type Record struct {
	ID                domain.NomineeID
	OwnerID           domain.OwnerID
	Email             string
	DisplayName       string
	Relationship      domain.RelationshipKind
	ReferenceCode     domain.ReferenceCode
	Status            domain.NomineeStatus
	ProofDocumentRef  string
	ProofDocumentName string
	VerifiedAt        *time.Time
	RejectedAt        *time.Time
	RejectionReason   string
	CreatedAt         time.Time
}

// defaultRejectionReason is stored when a reviewer gives no reason.
const defaultRejectionReason = "Document verification failed"

// The transition methods below are pure: each produces a new snapshot and
// leaves the receiver untouched. Persistence applies the snapshot through a
// compare-and-swap on the prior status, so two racing transitions yield
// exactly one winner.

// WithProof moves INACTIVE → PENDING_VERIFICATION. Any other current status
// is a state error; re-submission over an in-flight review is not permitted.
func (r Record) WithProof(documentRef, documentName string, now time.Time) (Record, error) {
	switch r.Status {
	case domain.StatusInactive:
		next := r
		next.Status = domain.StatusPendingVerification
		next.ProofDocumentRef = documentRef
		next.ProofDocumentName = documentName
		return next, nil
	case domain.StatusPendingVerification:
		return Record{}, dErrors.New(dErrors.CodeInvalidState,
			"a document is already under review (current status PENDING_VERIFICATION)")
	case domain.StatusActive:
		return Record{}, dErrors.New(dErrors.CodeInvalidState,
			"nominee already verified (current status ACTIVE)")
	case domain.StatusRejected:
		return Record{}, dErrors.New(dErrors.CodeInvalidState,
			"application rejected, contact support (current status REJECTED)")
	default:
		return Record{}, dErrors.New(dErrors.CodeInvalidState,
			"cannot submit proof (current status "+r.Status.String()+")")
	}
}

// Approved moves PENDING_VERIFICATION → ACTIVE.
func (r Record) Approved(now time.Time) (Record, error) {
	if r.Status != domain.StatusPendingVerification {
		return Record{}, dErrors.New(dErrors.CodeInvalidState,
			"cannot approve nominee (current status "+r.Status.String()+")")
	}
	next := r
	next.Status = domain.StatusActive
	next.VerifiedAt = &now
	return next, nil
}

// Rejected moves PENDING_VERIFICATION → REJECTED. An empty reason is
// replaced with the default.
func (r Record) Rejected(reason string, now time.Time) (Record, error) {
	if r.Status != domain.StatusPendingVerification {
		return Record{}, dErrors.New(dErrors.CodeInvalidState,
			"cannot reject nominee (current status "+r.Status.String()+")")
	}
	if reason == "" {
		reason = defaultRejectionReason
	}
	next := r
	next.Status = domain.StatusRejected
	next.RejectedAt = &now
	next.RejectionReason = reason
	return next, nil
}
