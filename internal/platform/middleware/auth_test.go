package middleware_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heirloom/internal/platform/middleware"
)

type stubValidator struct {
	claims *middleware.SessionClaims
	err    error
}

func (v stubValidator) Validate(string) (*middleware.SessionClaims, error) {
	return v.claims, v.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// claimsCapture records what the guarded handler saw in its context.
type claimsCapture struct {
	subjectID string
	ownerID   string
	kind      middleware.SessionKind
	called    bool
}

func (c *claimsCapture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.subjectID = middleware.GetSubjectID(r.Context())
		c.ownerID = middleware.GetOwnerID(r.Context())
		c.kind = middleware.GetSessionKind(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireSessionInjectsClaims(t *testing.T) {
	validator := stubValidator{claims: &middleware.SessionClaims{
		SubjectID: "nominee-1",
		OwnerID:   "owner-1",
		Kind:      middleware.KindNominee,
	}}
	capture := &claimsCapture{}
	guarded := middleware.RequireSession(middleware.KindNominee, validator, discardLogger())(capture.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, capture.called)
	assert.Equal(t, "nominee-1", capture.subjectID)
	assert.Equal(t, "owner-1", capture.ownerID)
	assert.Equal(t, middleware.KindNominee, capture.kind)
}

func TestRequireSessionMissingToken(t *testing.T) {
	capture := &claimsCapture{}
	guarded := middleware.RequireSession(middleware.KindOwner, stubValidator{}, discardLogger())(capture.handler())

	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, capture.called)
}

func TestRequireSessionInvalidToken(t *testing.T) {
	validator := stubValidator{err: errors.New("signature mismatch")}
	capture := &claimsCapture{}
	guarded := middleware.RequireSession(middleware.KindOwner, validator, discardLogger())(capture.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, capture.called)
}

func TestRequireSessionWrongKindIsForbidden(t *testing.T) {
	validator := stubValidator{claims: &middleware.SessionClaims{
		SubjectID: "owner-1",
		OwnerID:   "owner-1",
		Kind:      middleware.KindOwner,
	}}
	capture := &claimsCapture{}
	guarded := middleware.RequireSession(middleware.KindNominee, validator, discardLogger())(capture.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer owner-token")
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, capture.called)
}

func TestRequireAdminKey(t *testing.T) {
	capture := &claimsCapture{}
	guarded := middleware.RequireAdminKey("review-key", discardLogger())(capture.handler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Admin-Key", "review-key")
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminKeyDisabledWhenUnset(t *testing.T) {
	capture := &claimsCapture{}
	guarded := middleware.RequireAdminKey("", discardLogger())(capture.handler())

	// An empty configured key rejects everything, even an empty header.
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, capture.called)
}
