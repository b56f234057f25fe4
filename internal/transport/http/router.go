// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services and encode; business rules stay out of this package.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"heirloom/internal/access"
	"heirloom/internal/audit"
	"heirloom/internal/continuity"
	"heirloom/internal/nominee"
	"heirloom/internal/owner"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/platform/middleware"
	"heirloom/internal/session"
	"heirloom/internal/vault"
	"heirloom/internal/verification"
	"heirloom/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

// Handler wires every endpoint to its domain service.
type Handler struct {
	owners       *owner.Service
	nominees     *nominee.Service
	access       *access.Service
	verification *verification.Workflow
	vault        *vault.Service
	continuity   *continuity.Monitor
	audit        *audit.Recorder
	sessions     *session.Issuer
	logger       *slog.Logger
	metrics      *metrics.Metrics

	adminKey  string
	uploadDir string
	health    map[string]HealthCheck
}

// Deps collects the handler's dependencies. All services are required;
// AdminKey may be empty, which disables the review route.
type Deps struct {
	Owners       *owner.Service
	Nominees     *nominee.Service
	Access       *access.Service
	Verification *verification.Workflow
	Vault        *vault.Service
	Continuity   *continuity.Monitor
	Audit        *audit.Recorder
	Sessions     *session.Issuer
	Logger       *slog.Logger
	Metrics      *metrics.Metrics

	AdminKey  string
	UploadDir string
	Health    map[string]HealthCheck
}

// New constructs the HTTP handler set.
func New(d Deps) *Handler {
	return &Handler{
		owners:       d.Owners,
		nominees:     d.Nominees,
		access:       d.Access,
		verification: d.Verification,
		vault:        d.Vault,
		continuity:   d.Continuity,
		audit:        d.Audit,
		sessions:     d.Sessions,
		logger:       d.Logger,
		metrics:      d.Metrics,
		adminKey:     d.AdminKey,
		uploadDir:    d.UploadDir,
		health:       d.Health,
	}
}

// Router builds the full route table with the shared middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Latency(h.metrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/owner/register", h.HandleOwnerRegister)
	r.Post("/owner/login", h.HandleOwnerLogin)

	// Owner-facing resources.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(middleware.KindOwner, h.sessions, h.logger))
		r.Post("/owner/continuity/trigger", h.HandleContinuityTrigger)
		r.Post("/owner/heartbeat", h.HandleHeartbeat)
		r.Post("/nominee", h.HandleNomineeCreate)
		r.Get("/nominee", h.HandleNomineeList)
		r.Post("/vault/assets", h.HandleAssetUpload)
		r.Get("/vault/assets", h.HandleAssetList)
		r.Post("/vault/notes", h.HandleNoteCreate)
		r.Get("/vault/notes", h.HandleNoteList)
	})

	// Credential-based nominee flow, no session required.
	r.Post("/nominee/validate", h.HandleNomineeValidate)
	r.Post("/nominee/login", h.HandleNomineeLogin)
	r.Post("/nominee/proof", h.HandleNomineeProof)

	r.With(middleware.RequireAdminKey(h.adminKey, h.logger)).
		Post("/nominee/review", h.HandleNomineeReview)

	// Nominee-facing resources behind a granted session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(middleware.KindNominee, h.sessions, h.logger))
		r.Get("/nominee/dashboard", h.HandleNomineeDashboard)
		r.Post("/nominee/audit", h.HandleNomineeAudit)
	})

	return r
}

// HandleHealth reports liveness of the backing stores.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			h.logger.ErrorContext(ctx, "health check failed",
				"check", name,
				"error", err,
				"request_id", middleware.GetRequestID(ctx),
			)
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	httputil.WriteJSON(w, status, body)
}
