// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type passwordFixture struct {
	Password string `validate:"strong_password"`
}

type slugFixture struct {
	Slug string `validate:"slug"`
}

func TestStrongPasswordValidation(t *testing.T) {
	valid := []string{"Secur3Pass!", "Aa1!aaaa", "xY9#longerpassword"}
	for _, p := range valid {
		assert.NoError(t, ValidateStruct(passwordFixture{Password: p}), p)
	}

	invalid := []string{
		"alllowercase1!", // no uppercase
		"ALLUPPERCASE1!", // no lowercase
		"NoNumbers!!",    // no digit
		"NoSpecial123",   // no symbol
		"Ab1!",           // too short
	}
	for _, p := range invalid {
		assert.Error(t, ValidateStruct(passwordFixture{Password: p}), p)
	}
}

func TestSlugValidation(t *testing.T) {
	valid := []string{"my-shop", "shop123", "a-b-c", "abc"}
	for _, s := range valid {
		assert.NoError(t, ValidateStruct(slugFixture{Slug: s}), s)
	}

	invalid := []string{
		"ab",          // too short
		"My-Shop",     // uppercase
		"-leading",    // leading hyphen
		"trailing-",   // trailing hyphen
		"double--dash",
		"under_score",
		"spaced slug",
	}
	for _, s := range invalid {
		assert.Error(t, ValidateStruct(slugFixture{Slug: s}), s)
	}
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(slugFixture{Slug: "X"})
	assert.Error(t, err)

	errs := GetValidationErrors(err)
	assert.Len(t, errs, 1)
	assert.Equal(t, "slug", errs[0].Field)
	assert.Equal(t, "slug", errs[0].Tag)
	assert.NotEmpty(t, errs[0].Message)
}
