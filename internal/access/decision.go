// Package access holds the decision engine that gates nominee entry to a
// vault. The engine is a pure function over two snapshots, the nominee
// record and the owner's continuity flag, so every outcome is reproducible
// from its inputs.
package access

import (
	"heirloom/internal/nominee"
	"heirloom/internal/owner"
	"heirloom/pkg/domain"
)

// Decision is the outcome of evaluating one nominee against one owner.
// CanAccess is true only in the single granting row of the table; every
// other combination denies with a prescribed next step.
type Decision struct {
	CanAccess      bool
	Message        string
	RequiredAction domain.RequiredAction
}

// Decide evaluates the access table. It is total: any status outside the
// known lifecycle denies with CONTACT_SUPPORT rather than failing.
func Decide(o owner.Owner, rec nominee.Record) Decision {
	switch {
	case rec.Status == domain.StatusInactive && !o.ContinuityTriggered:
		return Decision{
			Message:        "Access not activated. Owner continuity access has not been triggered.",
			RequiredAction: domain.ActionWaitForContinuityTrigger,
		}
	case rec.Status == domain.StatusInactive && o.ContinuityTriggered:
		return Decision{
			Message:        "Continuity access activated. Please upload death certificate for verification.",
			RequiredAction: domain.ActionUploadDeathCertificate,
		}
	case rec.Status == domain.StatusPendingVerification:
		return Decision{
			Message:        "Verification in progress. Your death certificate is under review. Please wait for approval.",
			RequiredAction: domain.ActionWaitForVerification,
		}
	case rec.Status == domain.StatusRejected:
		reason := rec.RejectionReason
		if reason == "" {
			reason = "Document verification failed"
		}
		return Decision{
			Message:        "Access permanently denied. Reason: " + reason + ". Please contact support.",
			RequiredAction: domain.ActionContactSupport,
		}
	case rec.Status == domain.StatusActive && o.ContinuityTriggered:
		return Decision{
			CanAccess:      true,
			Message:        "Access granted. You may proceed to login.",
			RequiredAction: domain.ActionProceedToLogin,
		}
	case rec.Status == domain.StatusActive && !o.ContinuityTriggered:
		return Decision{
			Message:        "Nominee activated but owner continuity access has not been triggered yet.",
			RequiredAction: domain.ActionWaitForContinuityTrigger,
		}
	default:
		return Decision{
			Message:        "Access denied. Invalid system state.",
			RequiredAction: domain.ActionContactSupport,
		}
	}
}
