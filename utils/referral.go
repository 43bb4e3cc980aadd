package utils

import (
	"math/rand"
)

const (
	referralAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ReferralCodeLength = 6
)

// GenerateReferralCode returns a 6-character code drawn uniformly from
// [A-Z0-9]. The code space is 36^6, so collisions are checked but
// effectively never happen. Non-cryptographic randomness is fine here; the
// code is an identifier, not a secret.
func GenerateReferralCode() string {
	code := make([]byte, ReferralCodeLength)
	for i := range code {
		code[i] = referralAlphabet[rand.Intn(len(referralAlphabet))]
	}
	return string(code)
}
