package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReferralCode_Shape(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := GenerateReferralCode()
		assert.Len(t, code, ReferralCodeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(referralAlphabet, ch),
				"unexpected character %q in code %s", ch, code)
		}
	}
}

func TestGenerateReferralCode_Varies(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		seen[GenerateReferralCode()] = struct{}{}
	}
	// 100 draws from a 36^6 space colliding down to a handful would mean
	// the generator is broken
	assert.Greater(t, len(seen), 90)
}
