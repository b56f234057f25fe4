// Package session mints and validates the bearer credentials the HTTP layer
// hands out after a granted access decision or an owner login.
//
// Credentials are stateless HS256 tokens. There is no revocation list; a
// token stays valid for its full TTL even if the subject's state changes
// afterwards, which the short nominee TTL bounds.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"heirloom/internal/platform/middleware"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

const issuerName = "heirloom"

// Claims carried by every session token. Kind tells the middleware which
// route groups the credential may enter.
type Claims struct {
	SubjectID string `json:"sub_id"`
	OwnerID   string `json:"owner_id"`
	Kind      string `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer signs and validates session tokens.
type Issuer struct {
	signingKey []byte
	nomineeTTL time.Duration
	ownerTTL   time.Duration
}

func NewIssuer(signingKey string, nomineeTTL, ownerTTL time.Duration) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		nomineeTTL: nomineeTTL,
		ownerTTL:   ownerTTL,
	}
}

// IssueNomineeSession mints a short-lived credential for a nominee whose
// access decision granted entry. Returns the token and its expiry.
func (i *Issuer) IssueNomineeSession(nomineeID domain.NomineeID, ownerID domain.OwnerID) (string, time.Time, error) {
	return i.issue(nomineeID.String(), ownerID.String(), string(middleware.KindNominee), i.nomineeTTL)
}

// IssueOwnerSession mints a credential for an authenticated owner. The
// subject and owner ids coincide.
func (i *Issuer) IssueOwnerSession(ownerID domain.OwnerID) (string, time.Time, error) {
	return i.issue(ownerID.String(), ownerID.String(), string(middleware.KindOwner), i.ownerTTL)
}

func (i *Issuer) issue(subjectID, ownerID, kind string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID: subjectID,
		OwnerID:   ownerID,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuerName,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(dErrors.CodeInternal, "failed to sign session token", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature and expiry and returns the claims shaped for
// the auth middleware.
func (i *Issuer) Validate(tokenString string) (*middleware.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	kind := middleware.SessionKind(claims.Kind)
	if kind != middleware.KindOwner && kind != middleware.KindNominee {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &middleware.SessionClaims{
		SubjectID: claims.SubjectID,
		OwnerID:   claims.OwnerID,
		Kind:      kind,
	}, nil
}
