package cart

import (
	"time"

	"github.com/google/uuid"
)

type OpType string

const (
	OpAdd    OpType = "add"
	OpUpdate OpType = "update"
	OpRemove OpType = "remove"
)

// Operation is one entry in a batch mutation request.
type Operation struct {
	Op        OpType
	ProductID *uuid.UUID
	ItemID    *uuid.UUID
	Quantity  *int32
	OptionIDs []int32
}

// Validate checks the structural shape of the operation. Stock and existence
// checks happen later against the aggregate.
func (o Operation) Validate() error {
	switch o.Op {
	case OpAdd:
		if o.ProductID == nil {
			return ErrOperationInvalid
		}
		if o.Quantity == nil || *o.Quantity < 1 {
			return ErrInvalidQuantity
		}
	case OpUpdate:
		if o.ItemID == nil {
			return ErrOperationInvalid
		}
		if o.Quantity == nil && o.OptionIDs == nil {
			return ErrOperationInvalid
		}
		if o.Quantity != nil && *o.Quantity < 1 {
			return ErrInvalidQuantity
		}
	case OpRemove:
		if o.ItemID == nil {
			return ErrOperationInvalid
		}
	default:
		return ErrOperationInvalid
	}
	return nil
}

// VersionToken is the optimistic-lock token for one cart state. The version
// increments by exactly 1 on every accepted mutation and is never reused.
type VersionToken struct {
	CartID    uuid.UUID
	Version   int64
	UpdatedAt time.Time
}

// ProductInfo is the slice of product state the aggregate needs for
// validation; the product aggregate itself lives behind a repository.
type ProductInfo struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
	Stock      int32
}
