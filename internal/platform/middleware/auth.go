package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// SessionKind distinguishes owner and nominee credentials.
type SessionKind string

const (
	KindOwner   SessionKind = "owner"
	KindNominee SessionKind = "nominee"
)

// SessionClaims is the validated content of a session credential, shaped for
// the transport layer so middleware does not depend on the token package.
type SessionClaims struct {
	SubjectID string
	OwnerID   string
	Kind      SessionKind
}

// SessionValidator checks signature and expiry of a session credential.
// It deliberately does not re-run the access decision: a credential minted
// while access was valid stays valid for its full TTL.
type SessionValidator interface {
	Validate(tokenString string) (*SessionClaims, error)
}

type contextKeySubjectID struct{}
type contextKeyOwnerID struct{}
type contextKeySessionKind struct{}

// GetSubjectID retrieves the authenticated subject id (owner or nominee).
func GetSubjectID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeySubjectID{}).(string); ok {
		return v
	}
	return ""
}

// GetOwnerID retrieves the owner id governing this session.
func GetOwnerID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyOwnerID{}).(string); ok {
		return v
	}
	return ""
}

// GetSessionKind retrieves the credential kind.
func GetSessionKind(ctx context.Context) SessionKind {
	if v, ok := ctx.Value(contextKeySessionKind{}).(SessionKind); ok {
		return v
	}
	return ""
}

// WithSession injects session claims into a context.
// Useful for handler tests that don't run the middleware chain.
func WithSession(ctx context.Context, claims SessionClaims) context.Context {
	ctx = context.WithValue(ctx, contextKeySubjectID{}, claims.SubjectID)
	ctx = context.WithValue(ctx, contextKeyOwnerID{}, claims.OwnerID)
	return context.WithValue(ctx, contextKeySessionKind{}, claims.Kind)
}

// RequireSession validates the Bearer credential and enforces its kind.
// Wrong kind with a valid credential is 403, everything else 401.
func RequireSession(kind SessionKind, validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if claims.Kind != kind {
				logger.WarnContext(ctx, "forbidden - wrong credential kind",
					"want", string(kind),
					"got", string(claims.Kind),
					"request_id", GetRequestID(ctx),
				)
				writeAuthError(w, http.StatusForbidden, "Credential kind not allowed for this resource")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, *claims)))
		})
	}
}

// RequireAdminKey guards reviewer endpoints with a static key from config.
// An empty configured key disables the route entirely.
func RequireAdminKey(key string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Admin-Key")
			if key == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				logger.WarnContext(r.Context(), "forbidden - admin key rejected",
					"request_id", GetRequestID(r.Context()),
				)
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	code := "unauthorized"
	if status == http.StatusForbidden {
		code = "forbidden"
	}
	_, _ = w.Write([]byte(`{"error":"` + code + `","error_description":"` + desc + `"}`))
}
