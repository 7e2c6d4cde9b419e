package repository

import (
	"context"
	"time"

	"cart-service/internal/infra"
	"cart-service/internal/infra/db"
	"cart-service/internal/pkg/pgconv"
	"cart-service/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// IdempotencyRepository is the durable key→outcome ledger. Every
// state-changing statement here is a single atomic compare-and-swap so that
// exactly one of N racing callers can win; losers observe the terminal state
// on their next read.
type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(pool db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: pool}
}

// TryInsert creates a new processing row. Returns false without error when
// the key already exists.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash, ownerID string, createdAt, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO idempotency_keys (key, cart_id, endpoint, request_hash, status, owner_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, 'processing', $5, $6, $7)
		ON CONFLICT (key) DO NOTHING`,
		key, cartID, endpoint, requestHash, ownerID, createdAt, expiresAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*readmodel.IdempotencyRecordRM, error) {
	row := r.db.QueryRow(ctx, `
		SELECT key, cart_id, endpoint, request_hash, status, http_status, response_data, owner_id, created_at, expires_at
		FROM idempotency_keys
		WHERE key = $1`,
		key,
	)

	var rm readmodel.IdempotencyRecordRM
	var httpStatus pgtype.Int4
	err := row.Scan(&rm.Key, &rm.CartID, &rm.Endpoint, &rm.RequestHash, &rm.Status,
		&httpStatus, &rm.ResponseData, &rm.OwnerID, &rm.CreatedAt, &rm.ExpiresAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	rm.HTTPStatus = pgconv.Int32PtrFromPgtype(httpStatus)

	return &rm, nil
}

// ClaimExpired reclaims an expired row for a new request. The expiry guard
// sits inside the UPDATE predicate so only one concurrent caller wins.
func (r *IdempotencyRepository) ClaimExpired(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash, ownerID string, now, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE idempotency_keys
		SET cart_id = $2, endpoint = $3, request_hash = $4, status = 'processing',
		    http_status = NULL, response_data = NULL, owner_id = $5, created_at = $6, expires_at = $7
		WHERE key = $1 AND expires_at < $6`,
		key, cartID, endpoint, requestHash, ownerID, now, expiresAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim expired idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

// TakeOverStale recovers a processing row abandoned by a crashed worker.
// Guarded by the staleness threshold in the predicate; one winner only.
func (r *IdempotencyRepository) TakeOverStale(ctx context.Context, key string, cartID uuid.UUID, endpoint, requestHash, ownerID string, now, expiresAt, staleBefore time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE idempotency_keys
		SET cart_id = $2, endpoint = $3, request_hash = $4,
		    http_status = NULL, response_data = NULL, owner_id = $5, created_at = $6, expires_at = $7
		WHERE key = $1 AND status = 'processing' AND created_at < $8`,
		key, cartID, endpoint, requestHash, ownerID, now, expiresAt, staleBefore,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to take over stale idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Finish marks the record done with the exact response returned to the
// client. Only ever called by the single caller that won begin.
func (r *IdempotencyRepository) Finish(ctx context.Context, tx db.DBTX, key string, httpStatus int, responseData []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = 'done', http_status = $2, response_data = $3
		WHERE key = $1`,
		key, httpStatus, responseData,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to finish idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < $1`, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
