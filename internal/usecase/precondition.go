package usecase

import (
	"cart-service/internal/domain/cart"
	"cart-service/internal/pkg/config"
	"cart-service/internal/pkg/errs"
	"cart-service/internal/pkg/etag"
)

// PreconditionGuard validates the optimistic-lock precondition a client
// supplied against the cart's current version token. It is a pure
// read-then-compare gate; the transaction itself enforces the write.
type PreconditionGuard struct {
	strict bool
}

func NewPreconditionGuard(cfg config.ConcurrencyConfig) *PreconditionGuard {
	return &PreconditionGuard{strict: cfg.StrictPrecondition}
}

// Assert accepts the precondition as either an If-Match value or an explicit
// version field; If-Match wins when both are present. With no precondition,
// strict mode rejects the write and lenient mode lets it through unguarded.
func (g *PreconditionGuard) Assert(ifMatch string, bodyVersion *int64, token cart.VersionToken) error {
	if ifMatch != "" {
		current := etag.Compute(token.CartID, token.Version, token.UpdatedAt)
		if !etag.Match(ifMatch, current) {
			return errs.ErrPreconditionMismatch
		}
		return nil
	}

	if bodyVersion != nil {
		if *bodyVersion != token.Version {
			return errs.ErrPreconditionMismatch
		}
		return nil
	}

	if g.strict {
		return errs.ErrPreconditionRequired
	}
	return nil
}
