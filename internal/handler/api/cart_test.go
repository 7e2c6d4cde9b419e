//go:build unit

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cart-service/internal/domain/delivery"
	"cart-service/internal/handler/api"
	"cart-service/internal/pkg/errs"
	"cart-service/internal/usecase"
	usecasemock "cart-service/tests/mock/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CartHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockUseCase *usecasemock.MockCartUseCase
	handler     *api.CartHandler
	cartID      uuid.UUID
	itemID      uuid.UUID
}

func TestCartHandlerSuite(t *testing.T) {
	suite.Run(t, new(CartHandlerTestSuite))
}

func (s *CartHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockUseCase = usecasemock.NewMockCartUseCase(s.mockCtrl)
	s.handler = api.NewCartHandler(s.mockUseCase)

	s.router.GET("/api/carts/:id", s.handler.GetCart)
	s.router.GET("/api/carts/:id/delivery-quote", s.handler.DeliveryQuote)
	s.router.POST("/api/carts/:id/items", s.handler.AddItem)
	s.router.PATCH("/api/carts/:id/items/:itemId", s.handler.UpdateItem)
	s.router.DELETE("/api/carts/:id/items/:itemId", s.handler.RemoveItem)
	s.router.POST("/api/carts/:id/batch", s.handler.Batch)

	s.cartID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	s.itemID = uuid.MustParse("cccccccc-0000-0000-0000-000000000001")
}

func (s *CartHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *CartHandlerTestSuite) doJSON(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *CartHandlerTestSuite) addItemBody() map[string]any {
	return map[string]any{
		"product_id": "bbbbbbbb-0000-0000-0000-000000000001",
		"quantity":   2,
	}
}

func (s *CartHandlerTestSuite) mutationResponse(status int) *usecase.MutationResponse {
	return &usecase.MutationResponse{
		Status:        status,
		Body:          []byte(`{"id":"` + s.cartID.String() + `","version":2}`),
		ETag:          `W/"` + s.cartID.String() + `-2-1740830400"`,
		Version:       2,
		SubtotalCents: 3000,
	}
}

func (s *CartHandlerTestSuite) TestAddItem() {
	s.Run("success returns 201 with version headers", func() {
		resp := s.mutationResponse(http.StatusCreated)
		s.mockUseCase.EXPECT().
			MutateCart(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in usecase.MutateCartInput) (*usecase.MutationResponse, error) {
				s.Equal(s.cartID, in.CartID)
				s.Equal("key-1", in.IdempotencyKey)
				s.Equal("POST", in.Method)
				s.NotNil(in.Body)
				s.Equal(s.cartID.String(), in.RouteParams["id"])
				return resp, nil
			})

		w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/items", s.addItemBody(), map[string]string{
			"Idempotency-Key": "key-1",
		})

		s.Equal(http.StatusCreated, w.Code)
		s.Equal(resp.ETag, w.Header().Get("ETag"))
		s.Equal("2", w.Header().Get("X-Cart-Version"))
		s.Equal("3000", w.Header().Get("X-Cart-Total"))
		s.JSONEq(string(resp.Body), w.Body.String())
	})

	s.Run("replay is flagged in headers", func() {
		resp := s.mutationResponse(http.StatusCreated)
		resp.Replayed = true
		s.mockUseCase.EXPECT().MutateCart(gomock.Any(), gomock.Any()).Return(resp, nil)

		w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/items", s.addItemBody(), map[string]string{
			"Idempotency-Key": "key-1",
		})

		s.Equal(http.StatusCreated, w.Code)
		s.Equal("true", w.Header().Get("Idempotency-Replayed"))
	})

	s.Run("invalid cart id is rejected before the usecase", func() {
		w := s.doJSON(http.MethodPost, "/api/carts/not-a-uuid/items", s.addItemBody(), nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("malformed body is rejected", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/carts/"+s.cartID.String()+"/items", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("prefer header selects the profile", func() {
		s.mockUseCase.EXPECT().
			MutateCart(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in usecase.MutateCartInput) (*usecase.MutationResponse, error) {
				s.Equal(usecase.ProfileSummary, in.Profile)
				return s.mutationResponse(http.StatusCreated), nil
			})

		w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/items", s.addItemBody(), map[string]string{
			"Idempotency-Key": "key-1",
			"Prefer":          `profile="cart.summary"`,
		})
		s.Equal(http.StatusCreated, w.Code)
	})
}

func (s *CartHandlerTestSuite) TestErrorMapping() {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "in flight", err: &usecase.InFlightError{RetryAfter: 5 * time.Second}, expectedStatus: http.StatusTooManyRequests},
		{name: "idempotency conflict", err: errs.ErrIdempotencyConflict, expectedStatus: http.StatusConflict},
		{name: "missing idempotency key", err: errs.ErrIdempotencyKeyRequired, expectedStatus: http.StatusBadRequest},
		{name: "precondition mismatch", err: errs.ErrPreconditionMismatch, expectedStatus: http.StatusPreconditionFailed},
		{name: "precondition required", err: errs.ErrPreconditionRequired, expectedStatus: http.StatusPreconditionRequired},
		{name: "cart not found", err: errs.ErrCartNotFound, expectedStatus: http.StatusNotFound},
		{name: "product not found", err: errs.ErrProductNotFound, expectedStatus: http.StatusNotFound},
		{name: "insufficient stock", err: errs.ErrInsufficientStock, expectedStatus: http.StatusUnprocessableEntity},
		{name: "validation failure", err: errs.ErrValidation, expectedStatus: http.StatusUnprocessableEntity},
		{name: "internal failure", err: errs.ErrDatabaseOperationFailed, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.mockUseCase.EXPECT().MutateCart(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/items", s.addItemBody(), map[string]string{
				"Idempotency-Key": "key-1",
			})
			s.Equal(tt.expectedStatus, w.Code)
		})
	}

	s.Run("error body uses the shared envelope", func() {
		s.mockUseCase.EXPECT().MutateCart(gomock.Any(), gomock.Any()).
			Return(nil, errs.ErrPreconditionMismatch)

		w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/items", s.addItemBody(), map[string]string{
			"Idempotency-Key": "key-1",
		})
		s.Equal(http.StatusPreconditionFailed, w.Code)
		s.JSONEq(`{"error":{"message":"Cart was modified by another request"}}`, w.Body.String())
	})

	s.Run("in flight carries retry-after", func() {
		s.mockUseCase.EXPECT().MutateCart(gomock.Any(), gomock.Any()).
			Return(nil, &usecase.InFlightError{RetryAfter: 5 * time.Second})

		w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/items", s.addItemBody(), map[string]string{
			"Idempotency-Key": "key-1",
		})
		s.Equal(http.StatusTooManyRequests, w.Code)
		s.Equal("5", w.Header().Get("Retry-After"))
	})
}

func (s *CartHandlerTestSuite) TestRemoveItem() {
	s.Run("bodyless response keeps headers", func() {
		resp := &usecase.MutationResponse{
			Status:        http.StatusNoContent,
			ETag:          `W/"tag"`,
			Version:       5,
			SubtotalCents: 0,
		}
		s.mockUseCase.EXPECT().
			MutateCart(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in usecase.MutateCartInput) (*usecase.MutationResponse, error) {
				s.Equal(s.itemID, *in.Operation.ItemID)
				return resp, nil
			})

		w := s.doJSON(http.MethodDelete, "/api/carts/"+s.cartID.String()+"/items/"+s.itemID.String(), nil, map[string]string{
			"Idempotency-Key": "key-1",
		})

		s.Equal(http.StatusNoContent, w.Code)
		s.Equal("5", w.Header().Get("X-Cart-Version"))
		s.Empty(w.Body.Bytes())
	})
}

func (s *CartHandlerTestSuite) TestBatch() {
	batchBody := map[string]any{
		"atomic": true,
		"operations": []map[string]any{
			{"op": "add", "product_id": "bbbbbbbb-0000-0000-0000-000000000001", "quantity": 1},
		},
	}

	s.Run("success", func() {
		s.mockUseCase.EXPECT().
			MutateBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in usecase.MutateBatchInput) (*usecase.MutationResponse, error) {
				s.True(in.Atomic)
				s.Len(in.Operations, 1)
				return s.mutationResponse(http.StatusOK), nil
			})

		w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/batch", batchBody, map[string]string{
			"Idempotency-Key": "key-1",
		})
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("failing operation reports its index", func() {
		s.mockUseCase.EXPECT().MutateBatch(gomock.Any(), gomock.Any()).
			Return(nil, &usecase.BatchOpError{Index: 1, Err: errs.ErrProductNotFound})

		w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/batch", batchBody, map[string]string{
			"Idempotency-Key": "key-1",
		})
		s.Equal(http.StatusNotFound, w.Code)
		s.Contains(w.Body.String(), `"operation_index":1`)
	})

	s.Run("empty operations list is rejected by binding", func() {
		w := s.doJSON(http.MethodPost, "/api/carts/"+s.cartID.String()+"/batch", map[string]any{
			"atomic":     true,
			"operations": []map[string]any{},
		}, map[string]string{"Idempotency-Key": "key-1"})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *CartHandlerTestSuite) TestGetCart() {
	s.Run("emits etag", func() {
		resp := s.mutationResponse(http.StatusOK)
		s.mockUseCase.EXPECT().GetCart(gomock.Any(), s.cartID, usecase.ProfileFull).Return(resp, nil)

		w := s.doJSON(http.MethodGet, "/api/carts/"+s.cartID.String(), nil, nil)
		s.Equal(http.StatusOK, w.Code)
		s.Equal(resp.ETag, w.Header().Get("ETag"))
	})

	s.Run("not found", func() {
		s.mockUseCase.EXPECT().GetCart(gomock.Any(), s.cartID, usecase.ProfileFull).
			Return(nil, errs.ErrCartNotFound)

		w := s.doJSON(http.MethodGet, "/api/carts/"+s.cartID.String(), nil, nil)
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *CartHandlerTestSuite) TestDeliveryQuote() {
	s.Run("success", func() {
		cost := int64(900)
		quote := &delivery.Quote{CostCents: &cost, Term: "2-3 days", Trace: map[string]any{"rule": "per_item"}}
		s.mockUseCase.EXPECT().
			QuoteDelivery(gomock.Any(), usecase.QuoteDeliveryInput{
				CartID:      s.cartID,
				MethodCode:  "courier",
				Destination: "riga",
			}).
			Return(quote, nil)

		w := s.doJSON(http.MethodGet, "/api/carts/"+s.cartID.String()+"/delivery-quote?method=courier&destination=riga", nil, nil)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"cost_cents":900`)
	})

	s.Run("missing method", func() {
		w := s.doJSON(http.MethodGet, "/api/carts/"+s.cartID.String()+"/delivery-quote", nil, nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown method", func() {
		s.mockUseCase.EXPECT().QuoteDelivery(gomock.Any(), gomock.Any()).
			Return(nil, errs.ErrUnknownDeliveryMethod)

		w := s.doJSON(http.MethodGet, "/api/carts/"+s.cartID.String()+"/delivery-quote?method=drone", nil, nil)
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})
}
