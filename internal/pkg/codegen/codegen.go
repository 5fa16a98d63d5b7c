// Package codegen produces the short identifiers shared between parents and
// students: 5-character family codes and STU-prefixed student codes. Codes are
// random, checked against current storage before use, and claimed under a
// unique constraint that stays authoritative under concurrent creations.
package codegen

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/emre/famlink/internal/pkg/apperrors"
)

const (
	familyCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	familyCodeLength   = 5

	studentCodePrefix = "STU"
	studentCodeDigits = 5

	// DefaultMaxAttempts bounds the retry-until-unique loop. With 36^5
	// family codes the bound is effectively never hit, but the 10^5 student
	// code space can fill up and the loop must not spin forever.
	DefaultMaxAttempts = 100
)

// FamilyCode returns a random 5-character code drawn from A-Z and 0-9.
func FamilyCode() string {
	b := make([]byte, familyCodeLength)
	for i := range b {
		b[i] = familyCodeAlphabet[rand.IntN(len(familyCodeAlphabet))]
	}
	return string(b)
}

// StudentCode returns a random code of the form STU followed by 5 digits.
func StudentCode() string {
	return fmt.Sprintf("%s%05d", studentCodePrefix, rand.IntN(100000))
}

// ExistsFunc reports whether a candidate code is already claimed in storage.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Claim generates candidates with gen until exists reports one free, up to
// maxAttempts (DefaultMaxAttempts when <= 0). The existence check is a fast
// path only; callers must still treat the storage unique constraint as the
// source of truth and retry on a duplicate-key insert failure.
func Claim(ctx context.Context, maxAttempts int, gen func() string, exists ExistsFunc) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code := gen()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("error checking code availability: %w", err)
		}
		if !taken {
			return code, nil
		}
	}

	return "", apperrors.ErrCodeSpaceExhausted
}
