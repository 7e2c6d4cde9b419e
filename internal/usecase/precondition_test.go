//go:build unit

package usecase_test

import (
	"testing"
	"time"

	"cart-service/internal/domain/cart"
	"cart-service/internal/pkg/config"
	"cart-service/internal/pkg/errs"
	"cart-service/internal/pkg/etag"
	"cart-service/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPreconditionGuard(t *testing.T) {
	token := cart.VersionToken{
		CartID:    uuid.MustParse("5f6d0c1a-9c3e-4e0f-8b7a-2d4e6f8a0c1b"),
		Version:   4,
		UpdatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	currentTag := etag.Compute(token.CartID, token.Version, token.UpdatedAt)
	staleTag := etag.Compute(token.CartID, token.Version-1, token.UpdatedAt)
	matching := token.Version
	stale := token.Version - 1

	tests := []struct {
		name        string
		strict      bool
		ifMatch     string
		bodyVersion *int64
		errIs       error
	}{
		{name: "matching etag", ifMatch: currentTag},
		{name: "stale etag", ifMatch: staleTag, errIs: errs.ErrPreconditionMismatch},
		{name: "matching body version", bodyVersion: &matching},
		{name: "stale body version", bodyVersion: &stale, errIs: errs.ErrPreconditionMismatch},
		{name: "etag wins over stale body version", ifMatch: currentTag, bodyVersion: &stale},
		{name: "stale etag loses despite matching body version", ifMatch: staleTag, bodyVersion: &matching, errIs: errs.ErrPreconditionMismatch},
		{name: "no precondition lenient", strict: false},
		{name: "no precondition strict", strict: true, errIs: errs.ErrPreconditionRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := usecase.NewPreconditionGuard(config.ConcurrencyConfig{StrictPrecondition: tt.strict})
			err := guard.Assert(tt.ifMatch, tt.bodyVersion, token)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
