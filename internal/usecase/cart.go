package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cart-service/internal/domain/cart"
	"cart-service/internal/domain/delivery"
	"cart-service/internal/infra"
	"cart-service/internal/infra/db"
	"cart-service/internal/pkg/clock"
	"cart-service/internal/pkg/errs"
	"cart-service/internal/pkg/etag"
	"cart-service/internal/pkg/fingerprint"
	"cart-service/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type ResponseProfile string

const (
	ProfileFull    ResponseProfile = "cart.full"
	ProfileSummary ResponseProfile = "cart.summary"
	ProfileDelta   ResponseProfile = "cart.delta"
)

type CartRepository interface {
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*cart.Cart, error)
	Save(ctx context.Context, tx db.DBTX, c *cart.Cart, expectedVersion int64) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*readmodel.ProductRM, error)
}

type LocationPricingSource interface {
	Resolve(ctx context.Context, destination string) (*delivery.DestinationPricing, error)
}

// QuoteCache is an advisory short-TTL cache for read-path quotes. Both
// methods are best effort; a miss or failure just means a recompute.
type QuoteCache interface {
	Get(ctx context.Context, destination, methodCode string, itemQuantity int64) (*delivery.Quote, bool)
	Set(ctx context.Context, destination, methodCode string, itemQuantity int64, quote *delivery.Quote)
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx db.DBTX) error) error
}

type MutateCartInput struct {
	CartID         uuid.UUID
	IdempotencyKey string
	IfMatch        string
	BodyVersion    *int64
	Profile        ResponseProfile
	Method         string
	Path           string
	Body           map[string]any
	RouteParams    map[string]string
	Operation      cart.Operation
	DeliveryMethod string
	Destination    string
}

type MutateBatchInput struct {
	CartID         uuid.UUID
	IdempotencyKey string
	IfMatch        string
	BodyVersion    *int64
	Profile        ResponseProfile
	Method         string
	Path           string
	Body           map[string]any
	RouteParams    map[string]string
	Atomic         bool
	Operations     []cart.Operation
	DeliveryMethod string
	Destination    string
}

type QuoteDeliveryInput struct {
	CartID      uuid.UUID
	MethodCode  string
	Destination string
}

// MutationResponse carries the exact bytes returned to the client plus the
// header material. An empty Body means a bodyless response whose version and
// totals travel in headers.
type MutationResponse struct {
	Status        int
	Body          []byte
	ETag          string
	Version       int64
	SubtotalCents int64
	Replayed      bool
}

// InFlightError reports a not-yet-stale concurrent duplicate; it matches
// errs.ErrIdempotencyInFlight and carries the retry hint.
type InFlightError struct {
	RetryAfter time.Duration
}

func (e *InFlightError) Error() string { return errs.ErrIdempotencyInFlight.Error() }
func (e *InFlightError) Unwrap() error { return errs.ErrIdempotencyInFlight }

// BatchOpError localizes a failure to one operation of a batch.
type BatchOpError struct {
	Index int
	Err   error
}

func (e *BatchOpError) Error() string { return fmt.Sprintf("operation %d: %v", e.Index, e.Err) }
func (e *BatchOpError) Unwrap() error { return e.Err }

type CartUseCase interface {
	MutateCart(ctx context.Context, in MutateCartInput) (*MutationResponse, error)
	MutateBatch(ctx context.Context, in MutateBatchInput) (*MutationResponse, error)
	GetCart(ctx context.Context, cartID uuid.UUID, profile ResponseProfile) (*MutationResponse, error)
	QuoteDelivery(ctx context.Context, in QuoteDeliveryInput) (*delivery.Quote, error)
}

type cartUseCaseImpl struct {
	cartRepo        CartRepository
	productRepo     ProductRepository
	locationPricing LocationPricingSource
	idempotency     *IdempotencyCoordinator
	guard           *PreconditionGuard
	engine          *delivery.Engine
	quoteCache      QuoteCache
	txRunner        TxRunner
	db              db.DBTX
	clock           clock.Clock
}

func NewCartUseCase(
	cartRepo CartRepository,
	productRepo ProductRepository,
	locationPricing LocationPricingSource,
	idempotency *IdempotencyCoordinator,
	guard *PreconditionGuard,
	engine *delivery.Engine,
	quoteCache QuoteCache,
	txRunner TxRunner,
	dbtx db.DBTX,
	clk clock.Clock,
) CartUseCase {
	return &cartUseCaseImpl{
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		locationPricing: locationPricing,
		idempotency:     idempotency,
		guard:           guard,
		engine:          engine,
		quoteCache:      quoteCache,
		txRunner:        txRunner,
		db:              dbtx,
		clock:           clk,
	}
}

// storedResponse is the envelope persisted with the idempotency record so
// replays can reproduce both the body and the header material verbatim.
type storedResponse struct {
	ETag          string          `json:"etag"`
	Version       int64           `json:"version"`
	SubtotalCents int64           `json:"subtotal_cents"`
	Body          json.RawMessage `json:"body,omitempty"`
}

// MutateCart runs one mutation request end to end: fingerprint → idempotency
// begin → precondition check → domain mutation → pricing recompute →
// response shaping → idempotency finish.
func (u *cartUseCaseImpl) MutateCart(ctx context.Context, in MutateCartInput) (*MutationResponse, error) {
	if in.IdempotencyKey == "" {
		return nil, errs.ErrIdempotencyKeyRequired
	}
	if err := in.Operation.Validate(); err != nil {
		return nil, translateDomainErr(err)
	}

	endpoint, requestHash := fingerprint.Fingerprint(in.Method, in.Path, in.Body, in.RouteParams)
	outcome, err := u.idempotency.Begin(ctx, in.IdempotencyKey, in.CartID, endpoint, requestHash)
	if err != nil {
		return nil, err
	}
	if resp, err := shortCircuit(outcome); resp != nil || err != nil {
		return resp, err
	}

	var resp *MutationResponse
	err = u.txRunner.WithinTx(ctx, func(tx db.DBTX) error {
		cartAgg, err := u.loadCart(ctx, tx, in.CartID)
		if err != nil {
			return err
		}
		if err := u.guard.Assert(in.IfMatch, in.BodyVersion, cartAgg.VersionToken()); err != nil {
			return err
		}
		if err := u.applyOperation(ctx, cartAgg, in.Operation); err != nil {
			return err
		}
		if err := u.persist(ctx, tx, cartAgg); err != nil {
			return err
		}

		quote, err := u.writePathQuote(ctx, cartAgg, in.DeliveryMethod, in.Destination)
		if err != nil {
			return err
		}

		status := http.StatusOK
		if in.Operation.Op == cart.OpAdd {
			status = http.StatusCreated
		}
		resp, err = u.shapeResponse(cartAgg, in.Profile, quote, status)
		if err != nil {
			return err
		}

		return u.finish(ctx, tx, in.IdempotencyKey, resp)
	})
	if err != nil {
		// A processing ledger row is deliberately left behind; it becomes
		// reclaimable once the staleness window passes.
		return nil, err
	}

	return resp, nil
}

// MutateBatch applies several operations under one idempotency key.
// Atomic batches run in a single transaction and fail as a whole; otherwise
// each operation runs independently and reports its own outcome in order.
func (u *cartUseCaseImpl) MutateBatch(ctx context.Context, in MutateBatchInput) (*MutationResponse, error) {
	if in.IdempotencyKey == "" {
		return nil, errs.ErrIdempotencyKeyRequired
	}
	if len(in.Operations) == 0 {
		return nil, errs.Mark(errs.New("batch requires at least one operation"), errs.ErrValidation)
	}

	endpoint, requestHash := fingerprint.Fingerprint(in.Method, in.Path, in.Body, in.RouteParams)
	outcome, err := u.idempotency.Begin(ctx, in.IdempotencyKey, in.CartID, endpoint, requestHash)
	if err != nil {
		return nil, err
	}
	if resp, err := shortCircuit(outcome); resp != nil || err != nil {
		return resp, err
	}

	if in.Atomic {
		return u.mutateBatchAtomic(ctx, in)
	}
	return u.mutateBatchIndependent(ctx, in)
}

func (u *cartUseCaseImpl) mutateBatchAtomic(ctx context.Context, in MutateBatchInput) (*MutationResponse, error) {
	// Validation failures abort before any state is touched.
	for i, op := range in.Operations {
		if err := op.Validate(); err != nil {
			return nil, &BatchOpError{Index: i, Err: translateDomainErr(err)}
		}
	}

	var resp *MutationResponse
	err := u.txRunner.WithinTx(ctx, func(tx db.DBTX) error {
		cartAgg, err := u.loadCart(ctx, tx, in.CartID)
		if err != nil {
			return err
		}
		if err := u.guard.Assert(in.IfMatch, in.BodyVersion, cartAgg.VersionToken()); err != nil {
			return err
		}
		for i, op := range in.Operations {
			if err := u.applyOperation(ctx, cartAgg, op); err != nil {
				return &BatchOpError{Index: i, Err: err}
			}
		}
		if err := u.persist(ctx, tx, cartAgg); err != nil {
			return err
		}

		quote, err := u.writePathQuote(ctx, cartAgg, in.DeliveryMethod, in.Destination)
		if err != nil {
			return err
		}

		resp, err = u.shapeBatchResponse(cartAgg, in.Profile, quote, nil)
		if err != nil {
			return err
		}
		return u.finish(ctx, tx, in.IdempotencyKey, resp)
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (u *cartUseCaseImpl) mutateBatchIndependent(ctx context.Context, in MutateBatchInput) (*MutationResponse, error) {
	// The precondition is checked once against the state the batch started
	// from; the batch's own version bumps must not trip it.
	initial, err := u.loadCart(ctx, u.db, in.CartID)
	if err != nil {
		return nil, err
	}
	if err := u.guard.Assert(in.IfMatch, in.BodyVersion, initial.VersionToken()); err != nil {
		return nil, err
	}

	results := make([]readmodel.BatchOperationResult, len(in.Operations))
	applied := make([]cart.ChangeSet, 0, len(in.Operations))
	for i, op := range in.Operations {
		results[i] = readmodel.BatchOperationResult{Index: i, Status: "ok"}

		if err := op.Validate(); err != nil {
			results[i].Status = "failed"
			results[i].Error = err.Error()
			continue
		}

		var opChanges cart.ChangeSet
		err := u.txRunner.WithinTx(ctx, func(tx db.DBTX) error {
			cartAgg, err := u.loadCart(ctx, tx, in.CartID)
			if err != nil {
				return err
			}
			if err := u.applyOperation(ctx, cartAgg, op); err != nil {
				return err
			}
			if err := u.persist(ctx, tx, cartAgg); err != nil {
				return err
			}
			opChanges = cartAgg.Changes()
			return nil
		})
		if err != nil {
			results[i].Status = "failed"
			results[i].Error = err.Error()
			continue
		}
		applied = append(applied, opChanges)
	}

	final, err := u.loadCart(ctx, u.db, in.CartID)
	if err != nil {
		return nil, err
	}
	// The reloaded aggregate carries no change tracking of its own; replay
	// what each accepted operation touched so delta responses stay accurate.
	for _, cs := range applied {
		final.AdoptChanges(cs)
	}

	quote, err := u.writePathQuote(ctx, final, in.DeliveryMethod, in.Destination)
	if err != nil {
		return nil, err
	}

	resp, err := u.shapeBatchResponse(final, in.Profile, quote, results)
	if err != nil {
		return nil, err
	}
	if err := u.finish(ctx, u.db, in.IdempotencyKey, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (u *cartUseCaseImpl) GetCart(ctx context.Context, cartID uuid.UUID, profile ResponseProfile) (*MutationResponse, error) {
	cartAgg, err := u.loadCart(ctx, u.db, cartID)
	if err != nil {
		return nil, err
	}
	return u.shapeResponse(cartAgg, profile, nil, http.StatusOK)
}

// QuoteDelivery is the read path: cache hits are served as advisory
// speed-ups, misses recompute from the authoritative sources.
func (u *cartUseCaseImpl) QuoteDelivery(ctx context.Context, in QuoteDeliveryInput) (*delivery.Quote, error) {
	cartAgg, err := u.loadCart(ctx, u.db, in.CartID)
	if err != nil {
		return nil, err
	}
	snap := delivery.CartSnapshot{
		SubtotalCents: cartAgg.SubtotalCents(),
		ItemQuantity:  cartAgg.TotalQuantity(),
	}

	if quote, ok := u.quoteCache.Get(ctx, in.Destination, in.MethodCode, snap.ItemQuantity); ok {
		return quote, nil
	}

	quote, err := u.computeQuote(ctx, snap, in.MethodCode, in.Destination)
	if err != nil {
		return nil, err
	}

	u.quoteCache.Set(ctx, in.Destination, in.MethodCode, snap.ItemQuantity, quote)
	return quote, nil
}

func (u *cartUseCaseImpl) loadCart(ctx context.Context, dbtx db.DBTX, cartID uuid.UUID) (*cart.Cart, error) {
	cartAgg, err := u.cartRepo.FindByID(ctx, dbtx, cartID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrCartNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return cartAgg, nil
}

// translateDomainErr lifts aggregate errors into the shared sentinels the
// handler layer maps to HTTP statuses.
func translateDomainErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cart.ErrItemNotFound):
		return errs.ErrCartItemNotFound
	case errors.Is(err, cart.ErrInsufficientStock):
		return errs.ErrInsufficientStock
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrOperationInvalid):
		return errs.Mark(err, errs.ErrValidation)
	default:
		return err
	}
}

func (u *cartUseCaseImpl) applyOperation(ctx context.Context, cartAgg *cart.Cart, op cart.Operation) error {
	if err := op.Validate(); err != nil {
		return translateDomainErr(err)
	}

	switch op.Op {
	case cart.OpAdd:
		product, err := u.productRepo.FindByID(ctx, *op.ProductID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrProductNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		info := cart.ProductInfo{ID: product.ID, Name: product.Name, PriceCents: product.PriceCents, Stock: product.Stock}
		return translateDomainErr(cartAgg.AddItem(info, *op.Quantity, op.OptionIDs))

	case cart.OpUpdate:
		item := findItem(cartAgg, *op.ItemID)
		if item == nil {
			return errs.ErrCartItemNotFound
		}
		product, err := u.productRepo.FindByID(ctx, item.ProductID())
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrProductNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return translateDomainErr(cartAgg.UpdateItem(*op.ItemID, op.Quantity, op.OptionIDs, product.Stock))

	default:
		return translateDomainErr(cartAgg.RemoveItem(*op.ItemID))
	}
}

func (u *cartUseCaseImpl) persist(ctx context.Context, tx db.DBTX, cartAgg *cart.Cart) error {
	expected := cartAgg.Commit(u.clock.Now())
	if err := u.cartRepo.Save(ctx, tx, cartAgg, expected); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return errs.ErrPreconditionMismatch
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

// writePathQuote recomputes pricing authoritatively; the cache is never
// consulted inside a write.
func (u *cartUseCaseImpl) writePathQuote(ctx context.Context, cartAgg *cart.Cart, methodCode, destination string) (*delivery.Quote, error) {
	if methodCode == "" {
		return nil, nil
	}
	snap := delivery.CartSnapshot{
		SubtotalCents: cartAgg.SubtotalCents(),
		ItemQuantity:  cartAgg.TotalQuantity(),
	}
	return u.computeQuote(ctx, snap, methodCode, destination)
}

func (u *cartUseCaseImpl) computeQuote(ctx context.Context, snap delivery.CartSnapshot, methodCode, destination string) (*delivery.Quote, error) {
	dest, err := u.locationPricing.Resolve(ctx, destination)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	quote, err := u.engine.Quote(methodCode, snap, dest)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrUnknownDeliveryMethod)
	}
	return &quote, nil
}

func (u *cartUseCaseImpl) finish(ctx context.Context, tx db.DBTX, key string, resp *MutationResponse) error {
	envelope, err := json.Marshal(storedResponse{
		ETag:          resp.ETag,
		Version:       resp.Version,
		SubtotalCents: resp.SubtotalCents,
		Body:          resp.Body,
	})
	if err != nil {
		return errs.Wrap(err, "failed to encode stored response")
	}
	return u.idempotency.Finish(ctx, tx, key, resp.Status, envelope)
}

func shortCircuit(outcome BeginOutcome) (*MutationResponse, error) {
	switch outcome.State {
	case BeginReplay:
		var stored storedResponse
		if err := json.Unmarshal(outcome.ResponseData, &stored); err != nil {
			return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
		}
		return &MutationResponse{
			Status:        outcome.HTTPStatus,
			Body:          stored.Body,
			ETag:          stored.ETag,
			Version:       stored.Version,
			SubtotalCents: stored.SubtotalCents,
			Replayed:      true,
		}, nil
	case BeginConflict:
		return nil, errs.ErrIdempotencyConflict
	case BeginInFlight:
		return nil, &InFlightError{RetryAfter: outcome.RetryAfter}
	default:
		return nil, nil
	}
}

func (u *cartUseCaseImpl) shapeResponse(cartAgg *cart.Cart, profile ResponseProfile, quote *delivery.Quote, status int) (*MutationResponse, error) {
	view := viewForProfile(cartAgg, profile, quote)
	body, err := json.Marshal(view)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode cart response")
	}
	return u.withHeaders(cartAgg, &MutationResponse{Status: status, Body: body}), nil
}

// shapeBatchResponse reports per-operation outcomes for non-atomic batches.
// A batch that emptied the cart gets a bodyless response; version and totals
// surface via headers instead.
func (u *cartUseCaseImpl) shapeBatchResponse(cartAgg *cart.Cart, profile ResponseProfile, quote *delivery.Quote, results []readmodel.BatchOperationResult) (*MutationResponse, error) {
	if results == nil && cartAgg.IsEmpty() {
		return u.withHeaders(cartAgg, &MutationResponse{Status: http.StatusNoContent}), nil
	}

	var payload any = viewForProfile(cartAgg, profile, quote)
	if results != nil {
		payload = readmodel.BatchOutcomeView{Results: results, Cart: payload}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode batch response")
	}
	return u.withHeaders(cartAgg, &MutationResponse{Status: http.StatusOK, Body: body}), nil
}

func (u *cartUseCaseImpl) withHeaders(cartAgg *cart.Cart, resp *MutationResponse) *MutationResponse {
	token := cartAgg.VersionToken()
	resp.ETag = etag.Compute(token.CartID, token.Version, token.UpdatedAt)
	resp.Version = token.Version
	resp.SubtotalCents = cartAgg.SubtotalCents()
	return resp
}

func viewForProfile(cartAgg *cart.Cart, profile ResponseProfile, quote *delivery.Quote) any {
	switch profile {
	case ProfileSummary:
		return readmodel.CartSummaryView{
			ID:            cartAgg.ID(),
			Version:       cartAgg.Version(),
			UpdatedAt:     cartAgg.UpdatedAt(),
			SubtotalCents: cartAgg.SubtotalCents(),
			TotalQuantity: cartAgg.TotalQuantity(),
			ItemCount:     len(cartAgg.Items()),
			DeliveryQuote: quote,
		}
	case ProfileDelta:
		changes := cartAgg.Changes()
		changed := make([]readmodel.CartItemView, len(changes.Changed))
		for i, item := range changes.Changed {
			changed[i] = itemView(item)
		}
		removed := changes.Removed
		if removed == nil {
			removed = []uuid.UUID{}
		}
		return readmodel.CartDeltaView{
			ID:            cartAgg.ID(),
			Version:       cartAgg.Version(),
			UpdatedAt:     cartAgg.UpdatedAt(),
			SubtotalCents: cartAgg.SubtotalCents(),
			TotalQuantity: cartAgg.TotalQuantity(),
			ChangedItems:  changed,
			RemovedItems:  removed,
			DeliveryQuote: quote,
		}
	default:
		items := cartAgg.Items()
		views := make([]readmodel.CartItemView, len(items))
		for i, item := range items {
			views[i] = itemView(item)
		}
		return readmodel.CartView{
			ID:            cartAgg.ID(),
			Version:       cartAgg.Version(),
			UpdatedAt:     cartAgg.UpdatedAt(),
			SubtotalCents: cartAgg.SubtotalCents(),
			TotalQuantity: cartAgg.TotalQuantity(),
			Items:         views,
			DeliveryQuote: quote,
		}
	}
}

func itemView(item *cart.Item) readmodel.CartItemView {
	return readmodel.CartItemView{
		ID:             item.ID(),
		ProductID:      item.ProductID(),
		ProductName:    item.ProductName(),
		Quantity:       item.Quantity(),
		UnitPriceCents: item.UnitPriceCents(),
		OptionIDs:      item.OptionIDs(),
		LineTotalCents: item.LineTotalCents(),
	}
}

func findItem(cartAgg *cart.Cart, itemID uuid.UUID) *cart.Item {
	for _, item := range cartAgg.Items() {
		if item.ID() == itemID {
			return item
		}
	}
	return nil
}
