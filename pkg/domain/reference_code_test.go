package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heirloom/pkg/domain"
)

func TestNewReferenceCodeFormat(t *testing.T) {
	seen := make(map[domain.ReferenceCode]bool)
	for range 500 {
		code, err := domain.NewReferenceCode()
		require.NoError(t, err)

		parsed, err := domain.ParseReferenceCode(code.String())
		require.NoError(t, err, code)
		assert.Equal(t, code, parsed)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestNewReferenceCodeUsesFullAlphabet(t *testing.T) {
	// Every alphabet character should appear across enough draws. A biased
	// generator that over-selects the low end of the set would still pass,
	// but one that cannot reach part of the alphabet fails loudly.
	counts := make(map[byte]int)
	for range 2000 {
		code, err := domain.NewReferenceCode()
		require.NoError(t, err)
		for _, c := range []byte(code.String()[4:]) {
			if c == '-' {
				continue
			}
			counts[c]++
		}
	}
	assert.Len(t, counts, 36)
}

func TestParseReferenceCode(t *testing.T) {
	parsed, err := domain.ParseReferenceCode("  ben-ab12-cd34 ")
	require.NoError(t, err)
	assert.Equal(t, "BEN-AB12-CD34", parsed.String())

	for _, invalid := range []string{
		"",
		"AB12-CD34",
		"BEN-AB12",
		"BEN-AB12-CD345",
		"BEN-AB!2-CD34",
		"XXX-AB12-CD34",
	} {
		_, err := domain.ParseReferenceCode(invalid)
		assert.Error(t, err, invalid)
	}
}
