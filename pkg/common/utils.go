package common

import (
	"math/rand"
	"time"
)

const codeCharacters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReferralCode returns an 8-character shareable code for a partner.
// Uniqueness is enforced by the partners.referral_code index; callers retry
// on collision.
func GenerateReferralCode() string {
	return randomCode(8)
}

func randomCode(n int) string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	result := make([]byte, n)
	for i := range result {
		result[i] = codeCharacters[r.Intn(len(codeCharacters))]
	}
	return string(result)
}
