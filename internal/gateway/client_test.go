package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/garagedesk/internal/gateway"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func staticToken(tok string) gateway.TokenSource {
	return gateway.TokenFunc(func(context.Context) (string, error) { return tok, nil })
}

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNew_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	c, err := gateway.New("")
	require.Error(t, err)
	assert.Nil(t, c)
}

// ---------------------------------------------------------------------------
// Headers
// ---------------------------------------------------------------------------

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	t.Run("anonymous sends json headers only", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		c, err := gateway.New(srv.URL, gateway.WithTokenSource(staticToken("tok")))
		require.NoError(t, err)
		require.NoError(t, c.Get(t.Context(), gateway.PathHealth, gateway.Anonymous, nil))
	})

	t.Run("authenticated adds bearer token", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]string{})
		})

		c, err := gateway.New(srv.URL+"/", gateway.WithTokenSource(staticToken("tok-123")))
		require.NoError(t, err)
		require.NoError(t, c.Get(t.Context(), gateway.PathMe, gateway.Authenticated, nil))
	})

	t.Run("authenticated without token fails before sending", func(t *testing.T) {
		t.Parallel()

		called := false
		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})

		c, err := gateway.New(srv.URL, gateway.WithTokenSource(staticToken("")))
		require.NoError(t, err)

		err = c.Get(t.Context(), gateway.PathMe, gateway.Authenticated, nil)
		require.ErrorIs(t, err, gateway.ErrNoToken)
		assert.False(t, called)
	})

	t.Run("token source error is wrapped", func(t *testing.T) {
		t.Parallel()

		ts := gateway.TokenFunc(func(context.Context) (string, error) { return "", errors.New("store offline") })
		c, err := gateway.New("http://127.0.0.1:1", gateway.WithTokenSource(ts))
		require.NoError(t, err)

		err = c.Get(t.Context(), gateway.PathMe, gateway.Authenticated, nil)
		require.ErrorIs(t, err, gateway.ErrNoToken)
		assert.Contains(t, err.Error(), "store offline")
	})
}

// ---------------------------------------------------------------------------
// Verbs and bodies
// ---------------------------------------------------------------------------

func TestClient_Verbs(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, map[string]string{"method": r.Method, "path": r.URL.Path, "body": string(body)})
	})

	c, err := gateway.New(srv.URL)
	require.NoError(t, err)

	type echo struct {
		Method string `json:"method"`
		Path   string `json:"path"`
		Body   string `json:"body"`
	}

	ctx := t.Context()
	var out echo

	require.NoError(t, c.Post(ctx, "/things", gateway.Anonymous, map[string]int{"n": 1}, &out))
	assert.Equal(t, echo{Method: http.MethodPost, Path: "/things", Body: `{"n":1}`}, out)

	require.NoError(t, c.Put(ctx, "/things/1", gateway.Anonymous, map[string]int{"n": 2}, &out))
	assert.Equal(t, http.MethodPut, out.Method)

	require.NoError(t, c.Patch(ctx, "/things/1", gateway.Anonymous, map[string]int{"n": 3}, &out))
	assert.Equal(t, http.MethodPatch, out.Method)

	require.NoError(t, c.Delete(ctx, "/things/1", gateway.Anonymous, &out))
	assert.Equal(t, http.MethodDelete, out.Method)
	assert.Empty(t, out.Body)
}

// ---------------------------------------------------------------------------
// Response strategies
// ---------------------------------------------------------------------------

func TestClient_EnvelopeStrategy(t *testing.T) {
	t.Parallel()

	t.Run("failure status still returns the body", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Invalid email or password"})
		})
		c, err := gateway.New(srv.URL)
		require.NoError(t, err)

		var out envelope
		err = c.Post(t.Context(), gateway.PathLogin, gateway.Anonymous, map[string]string{}, &out)
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "Invalid email or password", out.Message)
	})

	t.Run("empty failure body becomes an error", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		c, err := gateway.New(srv.URL)
		require.NoError(t, err)

		var out envelope
		err = c.Post(t.Context(), gateway.PathRegister, gateway.Anonymous, nil, &out)
		var apiErr *gateway.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	})

	t.Run("non json body is a network error", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		})
		c, err := gateway.New(srv.URL)
		require.NoError(t, err)

		var out envelope
		err = c.Post(t.Context(), gateway.PathForgotPassword, gateway.Anonymous, nil, &out)
		require.ErrorIs(t, err, gateway.ErrNetwork)
	})
}

func TestClient_StatusStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "envelope message", status: http.StatusConflict, body: `{"success":false,"message":"GST already registered"}`, wantMsg: "GST already registered"},
		{name: "problem detail", status: http.StatusUnprocessableEntity, body: `{"title":"Unprocessable Entity","status":422,"detail":"validation failed"}`, wantMsg: "validation failed"},
		{name: "error field", status: http.StatusBadRequest, body: `{"error":"bad input"}`, wantMsg: "bad input"},
		{name: "plain text falls back to status", status: http.StatusInternalServerError, body: "boom", wantMsg: "Request failed with status 500"},
		{name: "empty body falls back to status", status: http.StatusNotFound, body: "", wantMsg: "Request failed with status 404"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			c, err := gateway.New(srv.URL, gateway.WithTokenSource(staticToken("t")))
			require.NoError(t, err)

			var out map[string]any
			err = c.Post(t.Context(), gateway.PathOnboardingComplete, gateway.Authenticated, map[string]any{}, &out)

			var apiErr *gateway.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.wantMsg, apiErr.Error())
			assert.Nil(t, out)
		})
	}

	t.Run("success with empty body", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		c, err := gateway.New(srv.URL)
		require.NoError(t, err)

		var out map[string]any
		require.NoError(t, c.Delete(t.Context(), "/staff/1", gateway.Anonymous, &out))
	})

	t.Run("malformed success body is a network error", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{truncated"))
		})
		c, err := gateway.New(srv.URL)
		require.NoError(t, err)

		var out map[string]any
		err = c.Get(t.Context(), gateway.PathHealth, gateway.Anonymous, &out)
		require.ErrorIs(t, err, gateway.ErrNetwork)
	})
}

func TestClient_CustomPolicy(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "nope"})
	})

	c, err := gateway.New(srv.URL, gateway.WithPolicy(gateway.Policy{"/custom": gateway.StrategyEnvelope}))
	require.NoError(t, err)

	var out envelope
	require.NoError(t, c.Post(t.Context(), "/custom", gateway.Anonymous, nil, &out))
	assert.Equal(t, "nope", out.Message)

	// Login is no longer in the table, so it follows the status strategy.
	err = c.Post(t.Context(), gateway.PathLogin, gateway.Anonymous, nil, &out)
	var apiErr *gateway.Error
	require.ErrorAs(t, err, &apiErr)
}

// ---------------------------------------------------------------------------
// Transport failures and cancellation
// ---------------------------------------------------------------------------

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := gateway.New(url)
	require.NoError(t, err)

	err = c.Get(t.Context(), gateway.PathHealth, gateway.Anonymous, nil)
	require.ErrorIs(t, err, gateway.ErrNetwork)
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	c, err := gateway.New(srv.URL, gateway.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	err = c.Get(t.Context(), gateway.PathHealth, gateway.Anonymous, nil)
	require.ErrorIs(t, err, gateway.ErrNetwork)
}

func TestClient_TimeoutWithCustomHTTPClient(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name string
		opts func(hc *http.Client) []gateway.Option
	}{
		{"timeout first", func(hc *http.Client) []gateway.Option {
			return []gateway.Option{gateway.WithTimeout(20 * time.Millisecond), gateway.WithHTTPClient(hc)}
		}},
		{"client first", func(hc *http.Client) []gateway.Option {
			return []gateway.Option{gateway.WithHTTPClient(hc), gateway.WithTimeout(20 * time.Millisecond)}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hc := &http.Client{}
			c, err := gateway.New(srv.URL, tt.opts(hc)...)
			require.NoError(t, err)

			err = c.Get(t.Context(), gateway.PathHealth, gateway.Anonymous, nil)
			require.ErrorIs(t, err, gateway.ErrNetwork)
			assert.Zero(t, hc.Timeout, "caller's client is not modified")
		})
	}
}

func TestNew_NilHTTPClient(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	c, err := gateway.New(srv.URL, gateway.WithHTTPClient(nil), gateway.WithTimeout(time.Second))
	require.NoError(t, err)
	require.NoError(t, c.Get(t.Context(), gateway.PathHealth, gateway.Anonymous, nil))
}

func TestClient_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c, err := gateway.New(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err = c.Get(ctx, gateway.PathHealth, gateway.Anonymous, nil)
	require.ErrorIs(t, err, gateway.ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_RateLimit(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// One token, refilled every 10 seconds: the second call must wait
	// longer than the context allows.
	c, err := gateway.New(srv.URL, gateway.WithRateLimit(0.1, 1))
	require.NoError(t, err)

	require.NoError(t, c.Get(t.Context(), gateway.PathHealth, gateway.Anonymous, nil))

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	err = c.Get(ctx, gateway.PathHealth, gateway.Anonymous, nil)
	require.ErrorIs(t, err, gateway.ErrNetwork)
}
