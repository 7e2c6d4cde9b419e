package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cart-service/internal/domain/cart"
	reqdto "cart-service/internal/handler/dto/request"
	"cart-service/internal/handler/httperr"
	"cart-service/internal/pkg/errs"
	"cart-service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

type CartHandler struct {
	cartUseCase usecase.CartUseCase
}

func NewCartHandler(cartUseCase usecase.CartUseCase) *CartHandler {
	return &CartHandler{
		cartUseCase: cartUseCase,
	}
}

func (h *CartHandler) AddItem(c *gin.Context) {
	cartID, ok := h.parseCartID(c)
	if !ok {
		return
	}

	var req reqdto.AddItemRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	in := usecase.MutateCartInput{
		CartID:         cartID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		IfMatch:        c.GetHeader("If-Match"),
		BodyVersion:    req.Version,
		Profile:        preferredProfile(c),
		Method:         c.Request.Method,
		Path:           c.Request.URL.Path,
		Body:           rawBodyMap(c),
		RouteParams:    routeParams(c),
		Operation:      req.ToOperation(),
		DeliveryMethod: req.DeliveryMethod,
		Destination:    req.Destination,
	}

	resp, err := h.cartUseCase.MutateCart(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	writeMutation(c, resp)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	cartID, ok := h.parseCartID(c)
	if !ok {
		return
	}
	itemID, ok := h.parseItemID(c)
	if !ok {
		return
	}

	var req reqdto.UpdateItemRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	in := usecase.MutateCartInput{
		CartID:         cartID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		IfMatch:        c.GetHeader("If-Match"),
		BodyVersion:    req.Version,
		Profile:        preferredProfile(c),
		Method:         c.Request.Method,
		Path:           c.Request.URL.Path,
		Body:           rawBodyMap(c),
		RouteParams:    routeParams(c),
		Operation:      req.ToOperation(itemID),
		DeliveryMethod: req.DeliveryMethod,
		Destination:    req.Destination,
	}

	resp, err := h.cartUseCase.MutateCart(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	writeMutation(c, resp)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	cartID, ok := h.parseCartID(c)
	if !ok {
		return
	}
	itemID, ok := h.parseItemID(c)
	if !ok {
		return
	}

	in := usecase.MutateCartInput{
		CartID:         cartID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		IfMatch:        c.GetHeader("If-Match"),
		Profile:        preferredProfile(c),
		Method:         c.Request.Method,
		Path:           c.Request.URL.Path,
		RouteParams:    routeParams(c),
		Operation:      removeOperation(itemID),
	}

	resp, err := h.cartUseCase.MutateCart(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	writeMutation(c, resp)
}

func (h *CartHandler) Batch(c *gin.Context) {
	cartID, ok := h.parseCartID(c)
	if !ok {
		return
	}

	var req reqdto.BatchRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	in := usecase.MutateBatchInput{
		CartID:         cartID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		IfMatch:        c.GetHeader("If-Match"),
		BodyVersion:    req.Version,
		Profile:        preferredProfile(c),
		Method:         c.Request.Method,
		Path:           c.Request.URL.Path,
		Body:           rawBodyMap(c),
		RouteParams:    routeParams(c),
		Atomic:         req.Atomic,
		Operations:     req.ToOperations(),
		DeliveryMethod: req.DeliveryMethod,
		Destination:    req.Destination,
	}

	resp, err := h.cartUseCase.MutateBatch(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	writeMutation(c, resp)
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cartID, ok := h.parseCartID(c)
	if !ok {
		return
	}

	resp, err := h.cartUseCase.GetCart(c.Request.Context(), cartID, preferredProfile(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	writeMutation(c, resp)
}

func (h *CartHandler) DeliveryQuote(c *gin.Context) {
	cartID, ok := h.parseCartID(c)
	if !ok {
		return
	}

	methodCode := c.Query("method")
	if methodCode == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errs.New("delivery method query parameter missing"), "Missing delivery method", nil)
		return
	}

	quote, err := h.cartUseCase.QuoteDelivery(c.Request.Context(), usecase.QuoteDeliveryInput{
		CartID:      cartID,
		MethodCode:  methodCode,
		Destination: c.Query("destination"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func (h *CartHandler) parseCartID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid cart ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *CartHandler) parseItemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *CartHandler) respondError(c *gin.Context, err error) {
	var inFlight *usecase.InFlightError
	var batchErr *usecase.BatchOpError

	if errors.As(err, &batchErr) {
		h.respondBatchError(c, batchErr)
		return
	}

	switch {
	case errors.As(err, &inFlight):
		c.Header("Retry-After", strconv.Itoa(int(inFlight.RetryAfter.Seconds())))
		httperr.AbortWithError(c, http.StatusTooManyRequests, err, "Request with this idempotency key is being processed", nil)
	case errors.Is(err, errs.ErrIdempotencyConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Idempotency key reused with a different payload", nil)
	case errors.Is(err, errs.ErrIdempotencyKeyRequired):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Idempotency-Key header is required", nil)
	case errors.Is(err, errs.ErrPreconditionMismatch):
		httperr.AbortWithError(c, http.StatusPreconditionFailed, err, "Cart was modified by another request", nil)
	case errors.Is(err, errs.ErrPreconditionRequired):
		httperr.AbortWithError(c, http.StatusPreconditionRequired, err, "If-Match header or version is required", nil)
	case errors.Is(err, errs.ErrCartNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Cart not found", nil)
	case errors.Is(err, errs.ErrProductNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Product not found", nil)
	case errors.Is(err, errs.ErrCartItemNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Cart item not found", nil)
	case errors.Is(err, errs.ErrInsufficientStock):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Insufficient stock", nil)
	case errors.Is(err, errs.ErrUnknownDeliveryMethod):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Unknown delivery method", nil)
	case errors.Is(err, errs.ErrValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

// respondBatchError maps the inner error's status but points at the failing
// operation, so atomic-batch clients know what to fix.
func (h *CartHandler) respondBatchError(c *gin.Context, batchErr *usecase.BatchOpError) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(batchErr.Err, errs.ErrProductNotFound), errors.Is(batchErr.Err, errs.ErrCartItemNotFound):
		status = http.StatusNotFound
	case errors.Is(batchErr.Err, errs.ErrInsufficientStock), errors.Is(batchErr.Err, errs.ErrValidation):
		status = http.StatusUnprocessableEntity
	}
	msg := fmt.Sprintf("Batch operation %d failed", batchErr.Index)
	httperr.AbortWithError(c, status, batchErr, msg, gin.H{"operation_index": batchErr.Index})
}

// preferredProfile reads the Prefer header, e.g. `profile="cart.summary"`.
// Unknown or absent values fall back to the full representation.
func preferredProfile(c *gin.Context) usecase.ResponseProfile {
	prefer := c.GetHeader("Prefer")
	for _, part := range strings.Split(prefer, ";") {
		part = strings.TrimSpace(part)
		value, found := strings.CutPrefix(part, "profile=")
		if !found {
			continue
		}
		switch usecase.ResponseProfile(strings.Trim(value, `"`)) {
		case usecase.ProfileSummary:
			return usecase.ProfileSummary
		case usecase.ProfileDelta:
			return usecase.ProfileDelta
		}
	}
	return usecase.ProfileFull
}

// rawBodyMap re-reads the body bytes cached by ShouldBindBodyWith so the
// fingerprint sees exactly what the client sent.
func rawBodyMap(c *gin.Context) map[string]any {
	raw, exists := c.Get(gin.BodyBytesKey)
	if !exists {
		return nil
	}
	bytes, ok := raw.([]byte)
	if !ok || len(bytes) == 0 {
		return nil
	}
	var body map[string]any
	if err := json.Unmarshal(bytes, &body); err != nil {
		return nil
	}
	return body
}

func routeParams(c *gin.Context) map[string]string {
	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}
	return params
}

func removeOperation(itemID uuid.UUID) cart.Operation {
	return cart.Operation{Op: cart.OpRemove, ItemID: &itemID}
}

func writeMutation(c *gin.Context, resp *usecase.MutationResponse) {
	c.Header("ETag", resp.ETag)
	c.Header("X-Cart-Version", strconv.FormatInt(resp.Version, 10))
	c.Header("X-Cart-Total", strconv.FormatInt(resp.SubtotalCents, 10))
	if resp.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}

	if len(resp.Body) == 0 {
		c.Status(resp.Status)
		return
	}
	c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
}
