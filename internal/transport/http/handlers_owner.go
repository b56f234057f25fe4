package httptransport

import (
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"

	"heirloom/internal/platform/middleware"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

const minPasswordLength = 8

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

func (req registerRequest) validate() error {
	if !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if req.FullName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "full_name is required")
	}
	if len(req.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	return nil
}

// HandleOwnerRegister handles POST /owner/register.
func (h *Handler) HandleOwnerRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[registerRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	o, err := h.owners.Register(ctx, req.Email, req.FullName, req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "owner registration failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "owner registered",
		"request_id", middleware.GetRequestID(ctx),
		"owner_id", o.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, fromOwner(o))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Owner     ownerView `json:"owner"`
}

// HandleOwnerLogin handles POST /owner/login.
func (h *Handler) HandleOwnerLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[loginRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	o, err := h.owners.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	token, expiresAt, err := h.sessions.IssueOwnerSession(o.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "issuing owner session failed",
			"request_id", middleware.GetRequestID(ctx),
			"owner_id", o.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.SessionsIssued.WithLabelValues("owner").Inc()

	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Owner:     fromOwner(o),
	})
}

// HandleContinuityTrigger handles POST /owner/continuity/trigger. The flag is
// one-way; a second trigger is a conflict.
func (h *Handler) HandleContinuityTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject"))
		return
	}

	o, err := h.owners.TriggerContinuity(ctx, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromOwner(o))
}

type heartbeatResponse struct {
	RecordedAt time.Time `json:"recorded_at"`
}

// HandleHeartbeat handles POST /owner/heartbeat, refreshing the dead-man's
// switch for the authenticated owner.
func (h *Handler) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject"))
		return
	}

	if err := h.continuity.Heartbeat(ctx, ownerID); err != nil {
		h.logger.ErrorContext(ctx, "recording heartbeat failed",
			"request_id", middleware.GetRequestID(ctx),
			"owner_id", ownerID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, heartbeatResponse{RecordedAt: time.Now()})
}
