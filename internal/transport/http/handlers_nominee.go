package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"

	"heirloom/internal/access"
	"heirloom/internal/audit"
	"heirloom/internal/platform/middleware"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

const dashboardTrailLimit = 50

type nomineeCreateRequest struct {
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	Relationship string `json:"relationship"`
}

// HandleNomineeCreate handles POST /nominee for the authenticated owner.
func (h *Handler) HandleNomineeCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[nomineeCreateRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if !govalidator.IsEmail(req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "a valid email is required"))
		return
	}
	if req.DisplayName == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "display_name is required"))
		return
	}
	relationship, err := domain.ParseRelationshipKind(req.Relationship)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject"))
		return
	}

	rec, err := h.nominees.Create(ctx, ownerID, req.Email, req.DisplayName, relationship)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "nominee created",
		"request_id", middleware.GetRequestID(ctx),
		"owner_id", ownerID.String(),
		"nominee_id", rec.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, fromNominee(rec))
}

// HandleNomineeList handles GET /nominee for the authenticated owner.
func (h *Handler) HandleNomineeList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject"))
		return
	}
	recs, err := h.nominees.List(ctx, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"nominees": fromNominees(recs)})
}

type credentialsRequest struct {
	Email         string `json:"email"`
	ReferenceCode string `json:"reference_code"`
}

func (req credentialsRequest) parse() (string, domain.ReferenceCode, error) {
	if req.Email == "" {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	code, err := domain.ParseReferenceCode(req.ReferenceCode)
	if err != nil {
		return "", "", err
	}
	return req.Email, code, nil
}

// HandleNomineeValidate handles POST /nominee/validate. It runs the decision
// engine without issuing a session or changing any state.
func (h *Handler) HandleNomineeValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[credentialsRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	email, code, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ev, err := h.access.Evaluate(ctx, email, code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromEvaluation(ev))
}

type nomineeSessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Message   string      `json:"message"`
	Nominee   nomineeView `json:"nominee"`
}

// HandleNomineeLogin handles POST /nominee/login. A denied decision is
// audited by the access service before the forbidden response goes out.
func (h *Handler) HandleNomineeLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[credentialsRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	email, code, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.access.Login(ctx, email, code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nomineeSessionResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Message:   result.Evaluation.Decision.Message,
		Nominee:   fromNominee(result.Evaluation.Nominee),
	})
}

type proofRequest struct {
	Email         string `json:"email"`
	ReferenceCode string `json:"reference_code"`
	DocumentRef   string `json:"document_ref"`
	DocumentName  string `json:"document_name"`
}

type proofResponse struct {
	Message string      `json:"message"`
	Nominee nomineeView `json:"nominee"`
}

// HandleNomineeProof handles POST /nominee/proof. The nominee authenticates
// with email and reference code; a session is not required at this stage.
func (h *Handler) HandleNomineeProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[proofRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	email, code, err := credentialsRequest{Email: req.Email, ReferenceCode: req.ReferenceCode}.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.DocumentRef == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "document_ref is required"))
		return
	}

	rec, err := h.nominees.FindByCredentials(ctx, email, code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.verification.SubmitProof(ctx, rec, req.DocumentRef, req.DocumentName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proofResponse{
		Message: "Death certificate uploaded successfully. Verification in progress.",
		Nominee: fromNominee(updated),
	})
}

type reviewRequest struct {
	NomineeID string `json:"nominee_id"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason"`
}

// HandleNomineeReview handles POST /nominee/review behind the admin key.
func (h *Handler) HandleNomineeReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[reviewRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	id, err := domain.ParseNomineeID(req.NomineeID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid nominee_id"))
		return
	}

	var rec nomineeView
	switch req.Decision {
	case "APPROVE":
		updated, err := h.verification.Approve(ctx, id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		rec = fromNominee(updated)
	case "REJECT":
		updated, err := h.verification.Reject(ctx, id, req.Reason)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		rec = fromNominee(updated)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "decision must be APPROVE or REJECT"))
		return
	}

	h.logger.InfoContext(ctx, "nominee reviewed",
		"request_id", middleware.GetRequestID(ctx),
		"nominee_id", id.String(),
		"decision", req.Decision,
	)
	httputil.WriteJSON(w, http.StatusOK, rec)
}

type dashboardResponse struct {
	Nominee    nomineeView `json:"nominee"`
	OwnerName  string      `json:"owner_name"`
	Assets     []assetView `json:"assets"`
	Notes      []noteView  `json:"notes"`
	AuditTrail []auditView `json:"audit_trail"`
}

// HandleNomineeDashboard handles GET /nominee/dashboard. The decision is
// re-evaluated on every view so a rejection or data fix after session issue
// takes effect immediately.
func (h *Handler) HandleNomineeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nomineeID, ownerID, err := nomineeSubject(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.nominees.Get(ctx, nomineeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.owners.Get(ctx, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if d := access.Decide(o, rec); !d.CanAccess {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, d.Message))
		return
	}

	assets, notes, err := h.vault.NomineeView(ctx, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	trail, err := h.audit.ListByNominee(ctx, nomineeID, dashboardTrailLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(ctx, audit.Entry{
		NomineeID: nomineeID,
		OwnerID:   ownerID,
		Action:    audit.ActionViewedDashboard,
		SourceIP:  middleware.GetClientIP(ctx),
		UserAgent: middleware.GetUserAgent(ctx),
	})

	httputil.WriteJSON(w, http.StatusOK, dashboardResponse{
		Nominee:    fromNominee(rec),
		OwnerName:  o.FullName,
		Assets:     fromAssets(assets),
		Notes:      fromNotes(notes),
		AuditTrail: fromAuditEntries(trail),
	})
}

type auditReportRequest struct {
	Action     string `json:"action"`
	Detail     string `json:"detail"`
	SubjectRef string `json:"subject_ref"`
}

// HandleNomineeAudit handles POST /nominee/audit, the client-reported leg of
// the audit trail. Only a fixed subset of actions is accepted.
func (h *Handler) HandleNomineeAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[auditReportRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	action, ok := audit.ParseClientAction(req.Action)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unsupported audit action"))
		return
	}
	nomineeID, ownerID, err := nomineeSubject(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(ctx, audit.Entry{
		NomineeID:  nomineeID,
		OwnerID:    ownerID,
		Action:     action,
		Detail:     req.Detail,
		SubjectRef: req.SubjectRef,
		SourceIP:   middleware.GetClientIP(ctx),
		UserAgent:  middleware.GetUserAgent(ctx),
	})
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// nomineeSubject resolves the authenticated nominee and governing owner
// from the session claims.
func nomineeSubject(ctx context.Context) (domain.NomineeID, domain.OwnerID, error) {
	nomineeID, err := domain.ParseNomineeID(middleware.GetSubjectID(ctx))
	if err != nil {
		return domain.NomineeID{}, domain.OwnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject")
	}
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		return domain.NomineeID{}, domain.OwnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject")
	}
	return nomineeID, ownerID, nil
}
