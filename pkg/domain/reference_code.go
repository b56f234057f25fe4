package domain

import (
	"crypto/rand"
	"regexp"
	"strings"

	dErrors "heirloom/pkg/domain-errors"
)

// ReferenceCode is the unguessable identifier a nominee presents alongside
// their email. Format: BEN-XXXX-XXXX over the uppercase alphanumeric set.
// Immutable and globally unique once assigned.
type ReferenceCode string

const referenceCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var referenceCodePattern = regexp.MustCompile(`^BEN-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// NewReferenceCode mints a cryptographically random reference code.
// Uniqueness is enforced by the store; callers retry on collision.
func NewReferenceCode() (ReferenceCode, error) {
	// Bytes at or above the largest multiple of the alphabet size are
	// discarded so every character is drawn uniformly.
	const limit = byte(256 - 256%len(referenceCodeChars))
	chars := make([]byte, 0, 8)
	buf := make([]byte, 16)
	for len(chars) < 8 {
		if _, err := rand.Read(buf); err != nil {
			return "", dErrors.Wrap(dErrors.CodeInternal, "generate reference code", err)
		}
		for _, b := range buf {
			if b >= limit || len(chars) == 8 {
				continue
			}
			chars = append(chars, referenceCodeChars[int(b)%len(referenceCodeChars)])
		}
	}
	return ReferenceCode("BEN-" + string(chars[:4]) + "-" + string(chars[4:])), nil
}

// ParseReferenceCode validates external input. Lowercase input is accepted and
// normalized; any other deviation from BEN-XXXX-XXXX is rejected.
func ParseReferenceCode(s string) (ReferenceCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if !referenceCodePattern.MatchString(normalized) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid reference code format")
	}
	return ReferenceCode(normalized), nil
}

func (c ReferenceCode) String() string { return string(c) }
