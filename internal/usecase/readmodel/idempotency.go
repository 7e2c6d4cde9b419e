package readmodel

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecordRM mirrors one ledger row.
type IdempotencyRecordRM struct {
	Key          string
	CartID       uuid.UUID
	Endpoint     string
	RequestHash  string
	Status       string
	HTTPStatus   *int32
	ResponseData []byte
	OwnerID      string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
