package service

import (
	"math/rand"
	"strings"
)

// examCodeAlphabet is the fixed alphabet exam codes are drawn from.
const examCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	examCodeGroups    = 3
	examCodeGroupSize = 4
)

// GenerateExamCode returns a candidate exam code in the form
// XXXX-XXXX-XXXX drawn from the uppercase-alphanumeric alphabet.
// Uniqueness is the caller's concern; the creation path retries against
// the repository's unique constraint on collision.
func GenerateExamCode(r *rand.Rand) string {
	var b strings.Builder
	b.Grow(examCodeGroups*examCodeGroupSize + examCodeGroups - 1)
	for g := 0; g < examCodeGroups; g++ {
		if g > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < examCodeGroupSize; i++ {
			b.WriteByte(examCodeAlphabet[r.Intn(len(examCodeAlphabet))])
		}
	}
	return b.String()
}
