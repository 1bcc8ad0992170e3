package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alpha-clothing/internal/config"
	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func testTokenValidator() TokenValidator {
	return service.NewAuthService(nil, nil, config.JWTConfig{Secret: testSecret, AccessExpiry: 15, RefreshExpiry: 7}, zap.NewNop())
}

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func accessClaims(userID uuid.UUID, role, email string, expiresIn time.Duration) *service.Claims {
	now := time.Now()
	return &service.Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.Error.Message
}

// Feature: clothing-storefront, Property 43: Protected endpoints reject missing tokens
func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			handler := AuthMiddleware(testTokenValidator(), zap.NewNop())(okHandler())

			req := httptest.NewRequest(method, "/api/cart/"+pathSuffix, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: clothing-storefront, Property 44: Expired tokens are rejected
func TestProperty_ExpiredTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("expired tokens are rejected with 401 token expired", prop.ForAll(
		func(role string, minutesAgo int) bool {
			handler := AuthMiddleware(testTokenValidator(), zap.NewNop())(okHandler())
			token := signToken(t, testSecret, accessClaims(uuid.New(), role, "a@example.com", -time.Duration(minutesAgo)*time.Minute))

			req := httptest.NewRequest("GET", "/api/orders", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized && errorMessage(t, w) == "token expired"
		},
		gen.OneConstOf(domain.RoleUser, domain.RoleAdmin),
		gen.IntRange(1, 600),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: clothing-storefront, Property 45: Valid tokens expose the caller's identity
func TestProperty_ValidTokensAllowProcessing(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens reach the handler with id, role and email in context", prop.ForAll(
		func(role string, email string) bool {
			userID := uuid.New()
			token := signToken(t, testSecret, accessClaims(userID, role, email, time.Hour))

			var gotID uuid.UUID
			var gotRole, gotEmail string
			handler := AuthMiddleware(testTokenValidator(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r.Context())
				gotRole, _ = GetUserRole(r.Context())
				gotEmail, _ = GetUserEmail(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/api/cart", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusOK && gotID == userID && gotRole == role && gotEmail == email
		},
		gen.OneConstOf(domain.RoleUser, domain.RoleAdmin),
		gen.RegexMatch(`[a-z]{3,8}@[a-z]{3,8}\.com`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_RejectsMalformedHeaders(t *testing.T) {
	handler := AuthMiddleware(testTokenValidator(), zap.NewNop())(okHandler())
	valid := signToken(t, testSecret, accessClaims(uuid.New(), domain.RoleUser, "a@example.com", time.Hour))

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"no scheme", valid, "invalid authorization header format"},
		{"wrong scheme", "Token " + valid, "invalid authorization header format"},
		{"empty token", "Bearer ", "invalid authorization header format"},
		{"garbage", "Bearer not.a.jwt", "invalid token"},
		{"foreign signature", "Bearer " + signToken(t, "other-secret", accessClaims(uuid.New(), domain.RoleUser, "", time.Hour)), "invalid token"},
		{"no identity", "Bearer " + signToken(t, testSecret, accessClaims(uuid.Nil, "", "", time.Hour)), "invalid token claims"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/cart", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.message, errorMessage(t, w))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(zap.NewNop())(okHandler())

	tests := []struct {
		name   string
		ctx    context.Context
		status int
	}{
		{"admin", WithIdentity(context.Background(), uuid.New(), domain.RoleAdmin, "admin@example.com"), http.StatusOK},
		{"user", WithIdentity(context.Background(), uuid.New(), domain.RoleUser, "user@example.com"), http.StatusForbidden},
		{"anonymous", context.Background(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/orders", nil).WithContext(tt.ctx)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
