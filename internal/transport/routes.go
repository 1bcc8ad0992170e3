package transport

import (
	"net/http"
	"strconv"

	"alpha-clothing/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Guards are the middlewares handlers mount their routes behind
type Guards struct {
	Authenticate func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
}

// Passthrough is a middleware that does nothing
func Passthrough(next http.Handler) http.Handler {
	return next
}

// currentUserID reads the authenticated caller, answering 401 when absent
func currentUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses a UUID path parameter, answering 400 when malformed
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter; absent means 0
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// pageParams reads page and limit, answering 400 when either is not a number
func pageParams(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	page, err := queryInt(r, "page")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "page must be a number")
		return 0, 0, false
	}
	limit, err = queryInt(r, "limit")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "limit must be a number")
		return 0, 0, false
	}
	return page, limit, true
}
