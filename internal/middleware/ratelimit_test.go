package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"alpha-clothing/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func rateLimited(client redis.Cmdable, limit int) http.Handler {
	return RateLimitMiddleware(client, RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "rate_limit:test",
	}, zap.NewNop())(okHandler())
}

func send(ctx context.Context, handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/auth/login", nil).WithContext(ctx)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// Feature: clothing-storefront, Property 59: Rate limiting blocks excessive requests
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("the first limit requests pass and the rest get 429", prop.ForAll(
		func(limit int, excess int) bool {
			_, client := newTestRedis(t)
			handler := rateLimited(client, limit)

			for i := 0; i < limit; i++ {
				w := send(context.Background(), handler, "10.0.0.1:5000")
				if w.Code != http.StatusOK {
					t.Logf("FAIL: request %d rejected", i+1)
					return false
				}
				if w.Header().Get("X-RateLimit-Remaining") != strconv.Itoa(limit-i-1) {
					return false
				}
			}
			for i := 0; i < excess; i++ {
				w := send(context.Background(), handler, "10.0.0.1:5000")
				if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_CountsClientsSeparately(t *testing.T) {
	_, client := newTestRedis(t)
	handler := rateLimited(client, 1)

	assert.Equal(t, http.StatusOK, send(context.Background(), handler, "10.0.0.1:5000").Code)
	// Same IP, different port
	assert.Equal(t, http.StatusTooManyRequests, send(context.Background(), handler, "10.0.0.1:6000").Code)
	assert.Equal(t, http.StatusOK, send(context.Background(), handler, "10.0.0.2:5000").Code)

	// Authenticated callers are counted by account
	user := WithIdentity(context.Background(), uuid.New(), domain.RoleUser, "u@example.com")
	assert.Equal(t, http.StatusOK, send(user, handler, "10.0.0.1:5000").Code)
}

func TestRateLimit_WindowExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	handler := rateLimited(client, 1)

	require.Equal(t, http.StatusOK, send(context.Background(), handler, "10.0.0.1:5000").Code)
	require.Equal(t, http.StatusTooManyRequests, send(context.Background(), handler, "10.0.0.1:5000").Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, send(context.Background(), handler, "10.0.0.1:5000").Code)
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	mr, client := newTestRedis(t)
	handler := rateLimited(client, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(context.Background(), handler, "10.0.0.1:5000").Code)
	}
}
