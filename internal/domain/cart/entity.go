package cart

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrOperationInvalid  = errors.New("invalid batch operation")
)

type Item struct {
	id             uuid.UUID
	productID      uuid.UUID
	productName    string
	quantity       int32
	unitPriceCents int64
	optionIDs      []int32
}

func NewItem(id, productID uuid.UUID, productName string, quantity int32, unitPriceCents int64, optionIDs []int32) *Item {
	return &Item{
		id:             id,
		productID:      productID,
		productName:    productName,
		quantity:       quantity,
		unitPriceCents: unitPriceCents,
		optionIDs:      normalizeOptions(optionIDs),
	}
}

func (i *Item) ID() uuid.UUID         { return i.id }
func (i *Item) ProductID() uuid.UUID  { return i.productID }
func (i *Item) ProductName() string   { return i.productName }
func (i *Item) Quantity() int32       { return i.quantity }
func (i *Item) UnitPriceCents() int64 { return i.unitPriceCents }
func (i *Item) OptionIDs() []int32    { return slices.Clone(i.optionIDs) }
func (i *Item) LineTotalCents() int64 { return int64(i.quantity) * i.unitPriceCents }

// Cart is the mutable aggregate targeted by concurrent mutation requests.
// It tracks which lines changed so the write path can persist and report
// deltas, and its version advances by exactly 1 per accepted mutation.
type Cart struct {
	id        uuid.UUID
	version   int64
	updatedAt time.Time
	items     []*Item

	changed map[uuid.UUID]struct{}
	removed map[uuid.UUID]struct{}
}

// Reconstruct rebuilds the aggregate from persisted state.
func Reconstruct(id uuid.UUID, version int64, updatedAt time.Time, items []*Item) *Cart {
	return &Cart{
		id:        id,
		version:   version,
		updatedAt: updatedAt,
		items:     items,
		changed:   make(map[uuid.UUID]struct{}),
		removed:   make(map[uuid.UUID]struct{}),
	}
}

func (c *Cart) ID() uuid.UUID        { return c.id }
func (c *Cart) Version() int64       { return c.version }
func (c *Cart) UpdatedAt() time.Time { return c.updatedAt }
func (c *Cart) Items() []*Item       { return slices.Clone(c.items) }
func (c *Cart) IsEmpty() bool        { return len(c.items) == 0 }

func (c *Cart) VersionToken() VersionToken {
	return VersionToken{CartID: c.id, Version: c.version, UpdatedAt: c.updatedAt}
}

func (c *Cart) SubtotalCents() int64 {
	var total int64
	for _, item := range c.items {
		total += item.LineTotalCents()
	}
	return total
}

func (c *Cart) TotalQuantity() int64 {
	var total int64
	for _, item := range c.items {
		total += int64(item.Quantity())
	}
	return total
}

// AddItem merges into an existing line when product and options match,
// otherwise appends a new line.
func (c *Cart) AddItem(product ProductInfo, quantity int32, optionIDs []int32) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	opts := normalizeOptions(optionIDs)

	for _, item := range c.items {
		if item.productID == product.ID && slices.Equal(item.optionIDs, opts) {
			newQuantity := item.quantity + quantity
			if newQuantity > product.Stock {
				return ErrInsufficientStock
			}
			item.quantity = newQuantity
			c.markChanged(item.id)
			return nil
		}
	}

	if quantity > product.Stock {
		return ErrInsufficientStock
	}
	item := NewItem(uuid.New(), product.ID, product.Name, quantity, product.PriceCents, opts)
	c.items = append(c.items, item)
	c.markChanged(item.id)
	return nil
}

func (c *Cart) UpdateItem(itemID uuid.UUID, quantity *int32, optionIDs []int32, stock int32) error {
	item := c.findItem(itemID)
	if item == nil {
		return ErrItemNotFound
	}
	if quantity != nil {
		if *quantity < 1 {
			return ErrInvalidQuantity
		}
		if *quantity > stock {
			return ErrInsufficientStock
		}
		item.quantity = *quantity
	}
	if optionIDs != nil {
		item.optionIDs = normalizeOptions(optionIDs)
	}
	c.markChanged(item.id)
	return nil
}

func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	idx := slices.IndexFunc(c.items, func(i *Item) bool { return i.id == itemID })
	if idx < 0 {
		return ErrItemNotFound
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	delete(c.changed, itemID)
	c.removed[itemID] = struct{}{}
	return nil
}

func (c *Cart) findItem(itemID uuid.UUID) *Item {
	for _, item := range c.items {
		if item.id == itemID {
			return item
		}
	}
	return nil
}

func (c *Cart) markChanged(itemID uuid.UUID) {
	c.changed[itemID] = struct{}{}
}

// ChangeSet is what one accepted mutation touched, used for delta responses
// and targeted persistence.
type ChangeSet struct {
	Changed []*Item
	Removed []uuid.UUID
}

func (c *Cart) Changes() ChangeSet {
	cs := ChangeSet{}
	for _, item := range c.items {
		if _, ok := c.changed[item.id]; ok {
			cs.Changed = append(cs.Changed, item)
		}
	}
	for id := range c.removed {
		cs.Removed = append(cs.Removed, id)
	}
	slices.SortFunc(cs.Removed, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return cs
}

// AdoptChanges merges a change set recorded by an earlier mutation into this
// aggregate's tracking, so a cart reloaded between independent operations can
// still report everything the sequence touched. A removal supersedes an
// earlier change of the same line.
func (c *Cart) AdoptChanges(cs ChangeSet) {
	for _, item := range cs.Changed {
		c.changed[item.ID()] = struct{}{}
	}
	for _, id := range cs.Removed {
		delete(c.changed, id)
		c.removed[id] = struct{}{}
	}
}

func (c *Cart) HasChanges() bool {
	return len(c.changed) > 0 || len(c.removed) > 0
}

// Commit advances the version by exactly 1 and returns the version the
// mutation was applied against, for the persistence-layer compare-and-swap.
func (c *Cart) Commit(now time.Time) (expectedVersion int64) {
	expectedVersion = c.version
	c.version++
	c.updatedAt = now
	return expectedVersion
}

func normalizeOptions(optionIDs []int32) []int32 {
	if len(optionIDs) == 0 {
		return []int32{}
	}
	opts := slices.Clone(optionIDs)
	slices.Sort(opts)
	return opts
}
