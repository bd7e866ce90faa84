package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/garagedesk/internal/auth"
	"github.com/gosuda/garagedesk/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// contextHandler captures the user injected by middleware.
type contextHandler struct {
	userID uuid.UUID
	called bool
}

func (h *contextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.userID, _ = middleware.UserIDFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func setUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

type problemBody struct {
	Status  int    `json:"status"`
	Detail  string `json:"detail"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) problemBody {
	t.Helper()
	var body problemBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// ===========================================================================
// 1. Context helpers
// ===========================================================================

func TestUserIDFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		want := uuid.New()
		got, ok := middleware.UserIDFromContext(middleware.WithUserID(context.Background(), want))

		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		got, ok := middleware.UserIDFromContext(context.Background())

		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("nil uuid", func(t *testing.T) {
		t.Parallel()

		_, ok := middleware.UserIDFromContext(middleware.WithUserID(context.Background(), uuid.Nil))
		assert.False(t, ok)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyUserID, "not-a-uuid")
		got, ok := middleware.UserIDFromContext(ctx)

		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, got)
	})
}

// ===========================================================================
// 2. RateLimit middleware
// ===========================================================================

func TestRateLimit_NoUserInContext_PassesThrough(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimit(t.Context(), 0.001, 1)(okHandler)
	for range 3 {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_BurstExceeded_Returns429(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	// Very low rate (effectively zero refill during the test) with burst of 2.
	handler := middleware.RateLimit(t.Context(), 0.001, 2)(okHandler)

	for i := range 2 {
		rec := serve(handler, setUser(httptest.NewRequest(http.MethodGet, "/", http.NoBody), userID))
		require.Equalf(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := serve(handler, setUser(httptest.NewRequest(http.MethodGet, "/", http.NoBody), userID))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	body := decodeProblem(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Too many requests. Please slow down.", body.Message)
}

func TestRateLimit_IndependentPerUser(t *testing.T) {
	t.Parallel()

	userA := uuid.New()
	userB := uuid.New()
	handler := middleware.RateLimit(t.Context(), 0.001, 1)(okHandler)

	require.Equal(t, http.StatusOK, serve(handler, setUser(httptest.NewRequest(http.MethodGet, "/", http.NoBody), userA)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, setUser(httptest.NewRequest(http.MethodGet, "/", http.NoBody), userA)).Code)
	assert.Equal(t, http.StatusOK, serve(handler, setUser(httptest.NewRequest(http.MethodGet, "/", http.NoBody), userB)).Code)
}

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimitByIP(t.Context(), 0.001, 1)(okHandler)

	fromIP := func(addr string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody)
		r.RemoteAddr = addr
		return r
	}

	require.Equal(t, http.StatusOK, serve(handler, fromIP("10.0.0.1:5000")).Code)
	// Same host on a different source port shares the bucket.
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, fromIP("10.0.0.1:5001")).Code)
	assert.Equal(t, http.StatusOK, serve(handler, fromIP("10.0.0.2:5000")).Code)
}

// ===========================================================================
// 3. Auth middleware
// ===========================================================================

const testJWTSecret = "test-jwt-secret-for-middleware-tests"

func TestAuth_ValidToken_PopulatesContext(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	token, err := auth.IssueToken(testJWTSecret, userID, 15*time.Minute)
	require.NoError(t, err)

	capture := &contextHandler{}
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := serve(middleware.Auth(testJWTSecret)(capture), req)

	require.True(t, capture.called, "inner handler must be called")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, capture.userID)
}

func TestAuth_Rejects(t *testing.T) {
	t.Parallel()

	expired, err := auth.IssueToken(testJWTSecret, uuid.New(), -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.IssueToken("some-other-secret-of-enough-length!!", uuid.New(), time.Minute)
	require.NoError(t, err)
	nilUser, err := auth.IssueToken(testJWTSecret, uuid.Nil, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"garbage", "Bearer totally.invalid.token"},
		{"expired", "Bearer " + expired},
		{"wrong secret", "Bearer " + foreign},
		{"nil user", "Bearer " + nilUser},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"bare token", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			capture := &contextHandler{}
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := serve(middleware.Auth(testJWTSecret)(capture), req)

			assert.False(t, capture.called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			body := decodeProblem(t, rec)
			assert.Equal(t, http.StatusUnauthorized, body.Status)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, body.Message, body.Detail)
		})
	}
}

func TestAuth_BearerIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueToken(testJWTSecret, uuid.New(), time.Minute)
	require.NoError(t, err)

	for _, scheme := range []string{"Bearer ", "bearer ", "BEARER "} {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set("Authorization", scheme+token)
		assert.Equal(t, http.StatusOK, serve(middleware.Auth(testJWTSecret)(okHandler), req).Code, scheme)
	}
}

// ===========================================================================
// 4. RequestLogger
// ===========================================================================

// Not parallel: swaps the global logger.
func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("hi")) })
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	serve(r, httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "/ok", first["path"])
	assert.EqualValues(t, 200, first["status"])
	assert.EqualValues(t, 2, first["bytes"])
	assert.NotEmpty(t, first["request_id"])

	assert.Equal(t, "error", second["level"])
	assert.EqualValues(t, 502, second["status"])
}
