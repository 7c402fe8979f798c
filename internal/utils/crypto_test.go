// internal/utils/crypto_test.go
package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^SL-\d{8}-[A-HJ-NP-Z2-9]{6}$`)

	for i := 0; i < 50; i++ {
		number, err := GenerateOrderNumber()
		assert.NoError(t, err)
		assert.Regexp(t, pattern, number)
	}
}

func TestGenerateOrderNumberVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number, err := GenerateOrderNumber()
		assert.NoError(t, err)
		seen[number] = true
	}
	// 32^6 suffixes; 100 draws colliding entirely would mean a broken RNG.
	assert.Greater(t, len(seen), 90)
}

func TestGenerateRandomString(t *testing.T) {
	s, err := GenerateRandomString(32)
	assert.NoError(t, err)
	assert.Len(t, s, 32)

	other, err := GenerateRandomString(32)
	assert.NoError(t, err)
	assert.NotEqual(t, s, other)
}

func TestHashStringDeterministic(t *testing.T) {
	assert.Equal(t, HashString("storelink"), HashString("storelink"))
	assert.NotEqual(t, HashString("storelink"), HashString("storelink2"))
	assert.Len(t, HashString("x"), 64)
}
