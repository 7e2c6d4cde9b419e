package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"cart-service/internal/infra"
	"cart-service/internal/infra/db"
	"cart-service/internal/infra/uow"
	"cart-service/internal/pkg/clock"
	"cart-service/internal/pkg/config"
	"cart-service/internal/pkg/errs"
	"cart-service/internal/usecase/readmodel"

	"github.com/google/uuid"
)

const (
	StatusProcessing = "processing"
	StatusDone       = "done"
)

type BeginState int

const (
	// BeginStarted means no usable prior record existed; the caller owns the
	// mutation and must call Finish with the response it returns.
	BeginStarted BeginState = iota
	// BeginReplay means a done record with a matching request hash exists;
	// the stored response must be returned verbatim without re-executing.
	BeginReplay
	// BeginConflict means the key was reused with a different payload.
	BeginConflict
	// BeginInFlight means another caller currently holds the key.
	BeginInFlight
)

type BeginOutcome struct {
	State        BeginState
	HTTPStatus   int
	ResponseData []byte
	StoredHash   string
	RetryAfter   time.Duration
}

type IdempotencyLedger interface {
	TryInsert(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash, ownerID string, createdAt, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key string) (*readmodel.IdempotencyRecordRM, error)
	ClaimExpired(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash, ownerID string, now, expiresAt time.Time) (bool, error)
	TakeOverStale(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash, ownerID string, now, expiresAt, staleBefore time.Time) (bool, error)
	Finish(ctx context.Context, tx db.DBTX, key string, httpStatus int, responseData []byte) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// IdempotencyCoordinator drives the begin/finish lifecycle over the ledger:
// deciding whether a request starts fresh, replays a stored response,
// conflicts with an earlier payload, or must wait for an in-flight twin.
type IdempotencyCoordinator struct {
	ledger  IdempotencyLedger
	clock   clock.Clock
	cfg     config.IdempotencyConfig
	ownerID string
}

func NewIdempotencyCoordinator(ledger IdempotencyLedger, clk clock.Clock, cfg config.IdempotencyConfig) *IdempotencyCoordinator {
	hostname, _ := os.Hostname()
	return &IdempotencyCoordinator{
		ledger:  ledger,
		clock:   clk,
		cfg:     cfg,
		ownerID: fmt.Sprintf("%s#%d", hostname, os.Getpid()),
	}
}

// Begin claims the key or classifies the existing record. The loop chases
// state transitions that happen between our read and our compare-and-swap;
// after a few lost races the request is reported as in flight rather than
// spinning.
func (c *IdempotencyCoordinator) Begin(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash string) (BeginOutcome, error) {
	now := c.clock.Now()
	expiresAt := now.Add(c.cfg.TTL)

	inserted, err := c.tryInsert(ctx, key, cartID, endpoint, requestHash, now, expiresAt)
	if err != nil {
		return BeginOutcome{}, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}
	if inserted {
		return BeginOutcome{State: BeginStarted}, nil
	}

	const maxRaces = 3
	for i := 0; i < maxRaces; i++ {
		record, err := c.getRecord(ctx, key)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				// Row deleted between our insert attempt and this read
				// (expiry sweep); try inserting again.
				inserted, err = c.tryInsert(ctx, key, cartID, endpoint, requestHash, now, expiresAt)
				if err != nil {
					return BeginOutcome{}, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
				}
				if inserted {
					return BeginOutcome{State: BeginStarted}, nil
				}
				continue
			}
			return BeginOutcome{}, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
		}

		if record.ExpiresAt.Before(now) {
			claimed, err := c.claimExpired(ctx, key, cartID, endpoint, requestHash, now, expiresAt)
			if err != nil {
				return BeginOutcome{}, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
			}
			if claimed {
				return BeginOutcome{State: BeginStarted}, nil
			}
			continue
		}

		if record.Status == StatusProcessing {
			staleBefore := now.Add(-c.cfg.StaleAfter)
			if record.CreatedAt.Before(staleBefore) {
				taken, err := c.takeOverStale(ctx, key, cartID, endpoint, requestHash, now, expiresAt, staleBefore)
				if err != nil {
					return BeginOutcome{}, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
				}
				if taken {
					return BeginOutcome{State: BeginStarted}, nil
				}
				continue
			}
			return c.inFlight(), nil
		}

		// done
		if record.RequestHash != requestHash {
			return BeginOutcome{State: BeginConflict, StoredHash: record.RequestHash}, nil
		}
		httpStatus := 200
		if record.HTTPStatus != nil {
			httpStatus = int(*record.HTTPStatus)
		}
		return BeginOutcome{State: BeginReplay, HTTPStatus: httpStatus, ResponseData: record.ResponseData}, nil
	}

	// The key is under heavy contention; every CAS we tried lost.
	return c.inFlight(), nil
}

// Finish records the terminal outcome. It is only ever called by the single
// caller that received BeginStarted, normally inside the mutation's
// transaction so the response and the side effect commit together.
func (c *IdempotencyCoordinator) Finish(ctx context.Context, tx db.DBTX, key string, httpStatus int, responseData []byte) error {
	err := uow.Retry(ctx, uow.DefaultMaxRetries, func() error {
		return c.ledger.Finish(ctx, tx, key, httpStatus, responseData)
	})
	if err != nil {
		return errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}
	return nil
}

func (c *IdempotencyCoordinator) SweepExpired(ctx context.Context) (int64, error) {
	return c.ledger.DeleteExpired(ctx, c.clock.Now())
}

func (c *IdempotencyCoordinator) inFlight() BeginOutcome {
	return BeginOutcome{State: BeginInFlight, RetryAfter: c.cfg.RetryAfter}
}

func (c *IdempotencyCoordinator) tryInsert(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash string, now, expiresAt time.Time) (bool, error) {
	var inserted bool
	err := uow.Retry(ctx, uow.DefaultMaxRetries, func() error {
		var err error
		inserted, err = c.ledger.TryInsert(ctx, key, cartID, endpoint, requestHash, c.ownerID, now, expiresAt)
		return err
	})
	return inserted, err
}

func (c *IdempotencyCoordinator) getRecord(ctx context.Context, key string) (*readmodel.IdempotencyRecordRM, error) {
	var record *readmodel.IdempotencyRecordRM
	err := uow.Retry(ctx, uow.DefaultMaxRetries, func() error {
		var err error
		record, err = c.ledger.Get(ctx, key)
		if err != nil && infra.IsKind(err, infra.KindNotFound) {
			// Not transient; surfaced to the state machine as-is.
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	return record, nil
}

func (c *IdempotencyCoordinator) claimExpired(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash string, now, expiresAt time.Time) (bool, error) {
	var claimed bool
	err := uow.Retry(ctx, uow.DefaultMaxRetries, func() error {
		var err error
		claimed, err = c.ledger.ClaimExpired(ctx, key, cartID, endpoint, requestHash, c.ownerID, now, expiresAt)
		return err
	})
	return claimed, err
}

func (c *IdempotencyCoordinator) takeOverStale(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash string, now, expiresAt, staleBefore time.Time) (bool, error) {
	var taken bool
	err := uow.Retry(ctx, uow.DefaultMaxRetries, func() error {
		var err error
		taken, err = c.ledger.TakeOverStale(ctx, key, cartID, endpoint, requestHash, c.ownerID, now, expiresAt, staleBefore)
		return err
	})
	return taken, err
}
