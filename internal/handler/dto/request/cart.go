package request

import (
	"cart-service/internal/domain/cart"

	"github.com/google/uuid"
)

type AddItemRequest struct {
	ProductID      uuid.UUID `json:"product_id" binding:"required"`
	Quantity       int32     `json:"quantity" binding:"required,min=1"`
	OptionIDs      []int32   `json:"option_ids,omitempty"`
	Version        *int64    `json:"version,omitempty"`
	DeliveryMethod string    `json:"delivery_method,omitempty"`
	Destination    string    `json:"destination,omitempty"`
}

func (r AddItemRequest) ToOperation() cart.Operation {
	productID := r.ProductID
	quantity := r.Quantity
	return cart.Operation{
		Op:        cart.OpAdd,
		ProductID: &productID,
		Quantity:  &quantity,
		OptionIDs: r.OptionIDs,
	}
}

type UpdateItemRequest struct {
	Quantity       *int32  `json:"quantity,omitempty" binding:"omitempty,min=1"`
	OptionIDs      []int32 `json:"option_ids,omitempty"`
	Version        *int64  `json:"version,omitempty"`
	DeliveryMethod string  `json:"delivery_method,omitempty"`
	Destination    string  `json:"destination,omitempty"`
}

func (r UpdateItemRequest) ToOperation(itemID uuid.UUID) cart.Operation {
	return cart.Operation{
		Op:        cart.OpUpdate,
		ItemID:    &itemID,
		Quantity:  r.Quantity,
		OptionIDs: r.OptionIDs,
	}
}

type BatchOperationRequest struct {
	Op        string     `json:"op" binding:"required,oneof=add update remove"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	ItemID    *uuid.UUID `json:"item_id,omitempty"`
	Quantity  *int32     `json:"quantity,omitempty"`
	OptionIDs []int32    `json:"option_ids,omitempty"`
}

func (r BatchOperationRequest) ToOperation() cart.Operation {
	return cart.Operation{
		Op:        cart.OpType(r.Op),
		ProductID: r.ProductID,
		ItemID:    r.ItemID,
		Quantity:  r.Quantity,
		OptionIDs: r.OptionIDs,
	}
}

type BatchRequest struct {
	Atomic         bool                    `json:"atomic"`
	Operations     []BatchOperationRequest `json:"operations" binding:"required,min=1,dive"`
	Version        *int64                  `json:"version,omitempty"`
	DeliveryMethod string                  `json:"delivery_method,omitempty"`
	Destination    string                  `json:"destination,omitempty"`
}

func (r BatchRequest) ToOperations() []cart.Operation {
	ops := make([]cart.Operation, len(r.Operations))
	for i, op := range r.Operations {
		ops[i] = op.ToOperation()
	}
	return ops
}
