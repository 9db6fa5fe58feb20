package service

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateExamCodeFormat(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	pattern := regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

	for i := 0; i < 100; i++ {
		code := GenerateExamCode(r)
		assert.Regexp(t, pattern, code)
		assert.Len(t, code, 14)
	}
}

func TestGenerateExamCodeUsesFixedAlphabet(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		code := GenerateExamCode(r)
		for _, ch := range strings.ReplaceAll(code, "-", "") {
			assert.Contains(t, examCodeAlphabet, string(ch))
		}
	}
}
