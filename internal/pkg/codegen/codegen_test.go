package codegen

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emre/famlink/internal/pkg/apperrors"
)

func TestFamilyCodeFormat(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := FamilyCode()
		assert.Len(t, code, 5)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(familyCodeAlphabet, ch), "unexpected character %q in %q", ch, code)
		}
	}
}

func TestStudentCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^STU\d{5}$`)
	for i := 0; i < 1000; i++ {
		assert.Regexp(t, pattern, StudentCode())
	}
}

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the first free code", func(t *testing.T) {
		code, err := Claim(ctx, 0, FamilyCode, func(ctx context.Context, code string) (bool, error) {
			return false, nil
		})
		assert.NoError(t, err)
		assert.Len(t, code, 5)
	})

	t.Run("skips taken codes until one is free", func(t *testing.T) {
		attempts := 0
		code, err := Claim(ctx, 0, FamilyCode, func(ctx context.Context, code string) (bool, error) {
			attempts++
			return attempts < 3, nil
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, code)
		assert.Equal(t, 3, attempts)
	})

	t.Run("bounded retries surface exhaustion", func(t *testing.T) {
		attempts := 0
		_, err := Claim(ctx, 10, FamilyCode, func(ctx context.Context, code string) (bool, error) {
			attempts++
			return true, nil
		})
		assert.ErrorIs(t, err, apperrors.ErrCodeSpaceExhausted)
		assert.Equal(t, 10, attempts)
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		storageErr := errors.New("connection lost")
		_, err := Claim(ctx, 0, FamilyCode, func(ctx context.Context, code string) (bool, error) {
			return false, storageErr
		})
		assert.ErrorIs(t, err, storageErr)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Claim(cancelled, 0, FamilyCode, func(ctx context.Context, code string) (bool, error) {
			return true, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
