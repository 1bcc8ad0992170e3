package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/middleware"
	"alpha-clothing/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

var (
	testUserID  = uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-8091a2b3c4d5")
	testAdminID = uuid.MustParse("0a9b8c7d-6e5f-4a3b-9c1d-0e2f3a4b5c6d")
)

// staticTokens accepts a fixed set of bearer tokens
type staticTokens map[string]*service.Claims

func (s staticTokens) ValidateToken(token string) (*service.Claims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, service.ErrInvalidToken
	}
	return claims, nil
}

func testGuards() Guards {
	tokens := staticTokens{
		userToken:  {UserID: testUserID, Role: domain.RoleUser, Email: "user@example.com"},
		adminToken: {UserID: testAdminID, Role: domain.RoleAdmin, Email: "admin@example.com"},
	}
	return Guards{
		Authenticate: middleware.AuthMiddleware(tokens, zap.NewNop()),
		RequireAdmin: middleware.RequireAdmin(zap.NewNop()),
		RateLimit:    Passthrough,
	}
}

// rejectAll stands in for an exhausted rate limit
func rejectAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.RespondWithError(w, http.StatusTooManyRequests, "too many requests, please try again later")
	})
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router, guards Guards)
}

func newTestRouter(guards Guards, handlers ...routeRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		for _, h := range handlers {
			h.RegisterRoutes(r, guards)
		}
	})
	return r
}

// do sends a request. A string body is sent verbatim, anything else as JSON.
func do(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response.Error.Message
}

func validationFields(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var response struct {
		Error struct {
			Details struct {
				ValidationErrors []middleware.ValidationError `json:"validation_errors"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	fields := make([]string, 0, len(response.Error.Details.ValidationErrors))
	for _, e := range response.Error.Details.ValidationErrors {
		fields = append(fields, e.Field)
	}
	return fields
}

type addCall struct {
	userID    uuid.UUID
	productID uuid.UUID
	size      domain.Size
	quantity  int
}

type stubCartService struct {
	service.CartService

	view    *service.CartView
	result  *service.MergeResult
	err     error
	added   []addCall
	updated map[uuid.UUID]int
	removed []uuid.UUID
	cleared []uuid.UUID
	merged  []service.GuestLine
}

func newStubCartService() *stubCartService {
	return &stubCartService{updated: make(map[uuid.UUID]int)}
}

func (s *stubCartService) GetCart(_ context.Context, _ uuid.UUID) (*service.CartView, error) {
	return s.view, s.err
}

func (s *stubCartService) AddItem(_ context.Context, userID, productID uuid.UUID, size domain.Size, quantity int) error {
	if s.err != nil {
		return s.err
	}
	s.added = append(s.added, addCall{userID, productID, size, quantity})
	return nil
}

func (s *stubCartService) UpdateItemQuantity(_ context.Context, _ uuid.UUID, itemID uuid.UUID, quantity int) error {
	if s.err != nil {
		return s.err
	}
	s.updated[itemID] = quantity
	return nil
}

func (s *stubCartService) RemoveItem(_ context.Context, _ uuid.UUID, itemID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, itemID)
	return nil
}

func (s *stubCartService) ClearCart(_ context.Context, userID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = append(s.cleared, userID)
	return nil
}

func (s *stubCartService) MergeGuestCart(_ context.Context, _ uuid.UUID, lines []service.GuestLine) (*service.MergeResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.merged = lines
	return s.result, nil
}

func (s *stubCartService) Session(userID uuid.UUID) service.CartSession {
	return service.NewServerCart(s, userID)
}

type stubCheckoutService struct {
	service.CheckoutService

	summary *service.OrderSummary
	orders  []*domain.Order
	err     error
	userID  uuid.UUID
	address domain.ShippingAddress
}

func (s *stubCheckoutService) CreateOrder(_ context.Context, userID uuid.UUID, address domain.ShippingAddress) (*service.OrderSummary, error) {
	s.userID = userID
	s.address = address
	return s.summary, s.err
}

func (s *stubCheckoutService) ListOrders(_ context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	s.userID = userID
	return s.orders, s.err
}

func (s *stubCheckoutService) GetOrder(_ context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	s.userID = userID
	if s.err != nil {
		return nil, s.err
	}
	for _, o := range s.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return nil, domain.NewError(domain.KindNotFound, "order not found")
}

type stubCatalogService struct {
	service.CatalogService

	page    *service.ProductPage
	product *domain.Product
	query   service.ProductQuery
	input   service.ProductInput
	deleted uuid.UUID
	err     error
}

func (s *stubCatalogService) ListProducts(_ context.Context, query service.ProductQuery) (*service.ProductPage, error) {
	s.query = query
	return s.page, s.err
}

func (s *stubCatalogService) GetProduct(_ context.Context, _ uuid.UUID) (*domain.Product, error) {
	return s.product, s.err
}

func (s *stubCatalogService) Categories() []domain.Category {
	return domain.Categories
}

func (s *stubCatalogService) Sizes() []domain.Size {
	return domain.Sizes
}

func (s *stubCatalogService) ListAllProducts(_ context.Context) ([]*domain.Product, error) {
	return []*domain.Product{s.product}, s.err
}

func (s *stubCatalogService) CreateProduct(_ context.Context, input service.ProductInput) (*domain.Product, error) {
	s.input = input
	return s.product, s.err
}

func (s *stubCatalogService) UpdateProduct(_ context.Context, _ uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	s.input = input
	return s.product, s.err
}

func (s *stubCatalogService) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

func (s *stubCatalogService) Stats(_ context.Context) (*domain.CatalogStats, error) {
	return &domain.CatalogStats{TotalProducts: 1, TotalStock: 10}, s.err
}

type stubAuthService struct {
	service.AuthService

	user        *domain.User
	registerErr error
	loginErr    error
	refreshErr  error
	registered  []string
	revoked     string
}

func (s *stubAuthService) Register(_ context.Context, name, email, _ string) (*domain.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.registered = append(s.registered, email)
	return s.user, nil
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (string, string, *domain.User, error) {
	if s.loginErr != nil {
		return "", "", nil, s.loginErr
	}
	return "access", "refresh", s.user, nil
}

func (s *stubAuthService) Logout(_ context.Context, refreshToken string) error {
	s.revoked = refreshToken
	return nil
}

func (s *stubAuthService) RefreshToken(_ context.Context, _ string) (string, error) {
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	return "new-access", nil
}

func (s *stubAuthService) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, domain.NewError(domain.KindNotFound, "user not found")
	}
	return s.user, nil
}

type stubAdminService struct {
	service.AdminService

	orderPage *service.OrderPage
	userPage  *service.UserPage
	order     *domain.Order
	user      *domain.User
	sales     []domain.DailySales
	err       error

	status string
	period string
	role   string
	page   int
	limit  int
	actor  uuid.UUID
	target uuid.UUID
}

func (s *stubAdminService) ListOrders(_ context.Context, status string, page, limit int) (*service.OrderPage, error) {
	s.status, s.page, s.limit = status, page, limit
	return s.orderPage, s.err
}

func (s *stubAdminService) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.target = id
	return s.order, s.err
}

func (s *stubAdminService) UpdateOrderStatus(_ context.Context, id uuid.UUID, status string) (*domain.Order, error) {
	s.target, s.status = id, status
	return s.order, s.err
}

func (s *stubAdminService) OrderStats(_ context.Context) (*domain.OrderStats, error) {
	return &domain.OrderStats{TotalOrders: 3}, s.err
}

func (s *stubAdminService) SalesAnalytics(_ context.Context, period string) ([]domain.DailySales, error) {
	s.period = period
	return s.sales, s.err
}

func (s *stubAdminService) ListUsers(_ context.Context, page, limit int) (*service.UserPage, error) {
	s.page, s.limit = page, limit
	return s.userPage, s.err
}

func (s *stubAdminService) GetUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.target = id
	return s.user, s.err
}

func (s *stubAdminService) UpdateUserRole(_ context.Context, actorID, id uuid.UUID, role string) (*domain.User, error) {
	s.actor, s.target, s.role = actorID, id, role
	return s.user, s.err
}

func (s *stubAdminService) DeleteUser(_ context.Context, actorID, id uuid.UUID) error {
	s.actor, s.target = actorID, id
	return s.err
}

func (s *stubAdminService) UserStats(_ context.Context) (*domain.UserStats, error) {
	return &domain.UserStats{TotalUsers: 4, AdminCount: 1}, s.err
}
