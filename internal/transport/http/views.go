package httptransport

import (
	"time"

	"heirloom/internal/access"
	"heirloom/internal/audit"
	"heirloom/internal/nominee"
	"heirloom/internal/owner"
	"heirloom/internal/vault"
)

// ownerView is the public shape of an owner account. The password hash and
// internal timestamps never leave the service.
type ownerView struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	FullName            string     `json:"full_name"`
	ContinuityTriggered bool       `json:"continuity_triggered"`
	TriggeredAt         *time.Time `json:"triggered_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func fromOwner(o owner.Owner) ownerView {
	return ownerView{
		ID:                  o.ID.String(),
		Email:               o.Email,
		FullName:            o.FullName,
		ContinuityTriggered: o.ContinuityTriggered,
		TriggeredAt:         o.TriggeredAt,
		CreatedAt:           o.CreatedAt,
	}
}

type nomineeView struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	Email             string     `json:"email"`
	DisplayName       string     `json:"display_name"`
	Relationship      string     `json:"relationship"`
	ReferenceCode     string     `json:"reference_code"`
	Status            string     `json:"status"`
	ProofDocumentName string     `json:"proof_document_name,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func fromNominee(rec nominee.Record) nomineeView {
	return nomineeView{
		ID:                rec.ID.String(),
		OwnerID:           rec.OwnerID.String(),
		Email:             rec.Email,
		DisplayName:       rec.DisplayName,
		Relationship:      rec.Relationship.String(),
		ReferenceCode:     rec.ReferenceCode.String(),
		Status:            rec.Status.String(),
		ProofDocumentName: rec.ProofDocumentName,
		VerifiedAt:        rec.VerifiedAt,
		RejectedAt:        rec.RejectedAt,
		RejectionReason:   rec.RejectionReason,
		CreatedAt:         rec.CreatedAt,
	}
}

func fromNominees(recs []nominee.Record) []nomineeView {
	views := make([]nomineeView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, fromNominee(rec))
	}
	return views
}

type decisionView struct {
	CanAccess      bool   `json:"can_access"`
	Message        string `json:"message"`
	RequiredAction string `json:"required_action"`
	NomineeStatus  string `json:"nominee_status"`
}

func fromEvaluation(ev access.Evaluation) decisionView {
	return decisionView{
		CanAccess:      ev.Decision.CanAccess,
		Message:        ev.Decision.Message,
		RequiredAction: ev.Decision.RequiredAction.String(),
		NomineeStatus:  ev.Nominee.Status.String(),
	}
}

type assetView struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Category         string     `json:"category"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	ReleaseCondition string     `json:"release_condition"`
	FragmentCount    int        `json:"fragment_count"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func fromAsset(a vault.DigitalAsset) assetView {
	return assetView{
		ID:               a.ID.String(),
		Name:             a.Name,
		Category:         string(a.Category),
		Description:      a.Description,
		Status:           string(a.Status),
		ReleaseCondition: string(a.ReleaseCondition),
		FragmentCount:    a.FragmentCount,
		ReleasedAt:       a.ReleasedAt,
		CreatedAt:        a.CreatedAt,
	}
}

func fromAssets(assets []vault.DigitalAsset) []assetView {
	views := make([]assetView, 0, len(assets))
	for _, a := range assets {
		views = append(views, fromAsset(a))
	}
	return views
}

type noteView struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Visibility string    `json:"visibility"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

func fromNote(n vault.LegacyNote) noteView {
	return noteView{
		ID:         n.ID.String(),
		Title:      n.Title,
		Content:    n.Content,
		Visibility: string(n.Visibility),
		Category:   n.Category,
		CreatedAt:  n.CreatedAt,
	}
}

func fromNotes(notes []vault.LegacyNote) []noteView {
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, fromNote(n))
	}
	return views
}

type auditView struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	Detail      string    `json:"detail,omitempty"`
	SubjectRef  string    `json:"subject_ref,omitempty"`
	SourceIP    string    `json:"source_ip"`
	DeviceClass string    `json:"device_class"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

func fromAuditEntries(entries []audit.Entry) []auditView {
	views := make([]auditView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditView{
			ID:          e.ID.String(),
			Action:      string(e.Action),
			Detail:      e.Detail,
			SubjectRef:  e.SubjectRef,
			SourceIP:    e.SourceIP,
			DeviceClass: string(e.DeviceClass),
			Status:      string(e.Status),
			Timestamp:   e.Timestamp,
		})
	}
	return views
}
