package readmodel

import "github.com/google/uuid"

type ProductRM struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
	Stock      int32
}
