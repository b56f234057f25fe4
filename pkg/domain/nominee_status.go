package domain

// NomineeStatus is the verification lifecycle state of a nominee record.
//
// The machine is fixed: INACTIVE → PENDING_VERIFICATION → ACTIVE | REJECTED.
// ACTIVE and REJECTED are terminal; no transition leaves them.
type NomineeStatus string

const (
	StatusInactive            NomineeStatus = "INACTIVE"
	StatusPendingVerification NomineeStatus = "PENDING_VERIFICATION"
	StatusActive              NomineeStatus = "ACTIVE"
	StatusRejected            NomineeStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is defined from s.
func (s NomineeStatus) IsTerminal() bool {
	return s == StatusActive || s == StatusRejected
}

func (s NomineeStatus) String() string { return string(s) }

// RequiredAction is the next step the decision engine prescribes to a
// nominee. The enum values are part of the API contract.
type RequiredAction string

const (
	ActionWaitForContinuityTrigger RequiredAction = "WAIT_FOR_CONTINUITY_TRIGGER"
	ActionUploadDeathCertificate   RequiredAction = "UPLOAD_DEATH_CERTIFICATE"
	ActionWaitForVerification      RequiredAction = "WAIT_FOR_VERIFICATION"
	ActionContactSupport           RequiredAction = "CONTACT_SUPPORT"
	ActionProceedToLogin           RequiredAction = "PROCEED_TO_LOGIN"
)

func (a RequiredAction) String() string { return string(a) }
