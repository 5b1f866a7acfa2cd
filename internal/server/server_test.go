package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func oauthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "http://example.com/authorize", TokenURL: tokenURL},
		RedirectURL:  "http://127.0.0.1:3000/callback",
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("exchanges the code", func(t *testing.T) {
		tokens := newTokenServer(t, http.StatusOK)
		h := NewOAuthHandler(oauthConfig(tokens.URL), "xyz")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		token, err := h.Wait(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
	})

	t.Run("rejects a bad state", func(t *testing.T) {
		h := NewOAuthHandler(oauthConfig("http://unused"), "xyz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=nope&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if _, err := h.Wait(context.Background(), nil); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("reports provider errors", func(t *testing.T) {
		h := NewOAuthHandler(oauthConfig("http://unused"), "xyz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&error=access_denied", nil))

		_, err := h.Wait(context.Background(), nil)
		if !errors.Is(err, shared.ErrAuthFailed) || !strings.Contains(err.Error(), "access_denied") {
			t.Errorf("expected access_denied auth error, got %v", err)
		}
	})

	t.Run("reports exchange failures", func(t *testing.T) {
		tokens := newTokenServer(t, http.StatusUnauthorized)
		h := NewOAuthHandler(oauthConfig(tokens.URL), "xyz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if _, err := h.Wait(context.Background(), nil); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("processes a single callback", func(t *testing.T) {
		tokens := newTokenServer(t, http.StatusOK)
		h := NewOAuthHandler(oauthConfig(tokens.URL), "xyz")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}
	})

	t.Run("Wait times out", func(t *testing.T) {
		h := NewOAuthHandler(oauthConfig("http://unused"), "xyz")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if _, err := h.Wait(ctx, nil); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Wait reports server errors", func(t *testing.T) {
		h := NewOAuthHandler(oauthConfig("http://unused"), "xyz")
		errs := make(chan error, 1)
		errs <- errors.New("boom")

		if _, err := h.Wait(context.Background(), errs); err == nil || !strings.Contains(err.Error(), "boom") {
			t.Errorf("expected server error, got %v", err)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("applies middleware in order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("registers handler routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(NewOAuthHandler(oauthConfig("http://unused"), "xyz"))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=bad", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 from oauth handler, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("LoggingMiddleware", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback", nil))

		out := buf.String()
		if !strings.Contains(out, "path=/callback") || !strings.Contains(out, "status=418") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("RecoverMiddleware", func(t *testing.T) {
		logger := shared.NewLogger(io.Discard)
		h := RecoverMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestServer(t *testing.T) {
	t.Run("serves and shuts down", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "pong")
		}))

		srv := New("127.0.0.1:0", router, shared.NewLogger(io.Discard))
		errs, err := srv.Start()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Fatalf("shutdown failed: %v", err)
		}

		if err, ok := <-errs; ok {
			t.Errorf("expected closed error channel, got %v", err)
		}
	})

	t.Run("reports bind errors", func(t *testing.T) {
		bad := New("256.0.0.1:1", http.NotFoundHandler(), shared.NewLogger(io.Discard))
		if _, err := bad.Start(); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
