package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/pkg/ctxutil"
)

//go:generate moq -out authenticator_mock_test.go -pkg middleware . authenticator

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func encargada() *domain.User {
	return &domain.User{ID: "u2", Username: "encargada", Name: "Encargada", Role: domain.RoleUser}
}

func TestAuth_ValidToken(t *testing.T) {
	auth := &authenticatorMock{
		AuthenticateFunc: func(ctx context.Context, token string) (*domain.User, error) {
			if token == "good" {
				return encargada(), nil
			}
			return nil, domain.ErrUnauthorized
		},
	}

	var got ctxutil.Actor
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ctxutil.ActorFromCtx(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	Auth(auth, discard)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	want := ctxutil.Actor{UserID: "u2", Username: "encargada", Name: "Encargada", Role: "user"}
	if got != want {
		t.Errorf("actor = %+v, want %+v", got, want)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	auth := &authenticatorMock{
		AuthenticateFunc: func(ctx context.Context, token string) (*domain.User, error) {
			return nil, domain.ErrUnauthorized
		},
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for an invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	Auth(auth, discard)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuth_Anonymous(t *testing.T) {
	headers := map[string]string{
		"no header":    "",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"empty bearer": "Bearer ",
	}
	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			auth := &authenticatorMock{}
			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if _, ok := ctxutil.ActorFromCtx(r.Context()); ok {
					t.Error("expected no actor for an anonymous request")
				}
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			Auth(auth, discard)(handler).ServeHTTP(httptest.NewRecorder(), req)

			if !called {
				t.Error("expected handler to be called")
			}
			if n := len(auth.AuthenticateCalls()); n != 0 {
				t.Errorf("Authenticate called %d times", n)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req = req.WithContext(ctxutil.WithActor(req.Context(), ctxutil.Actor{UserID: "u1"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("signed in: expected %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	if err := RequireAdmin(ctx); err != domain.ErrUnauthorized {
		t.Errorf("anonymous: got %v", err)
	}
	if err := RequireAdmin(ctxutil.WithActor(ctx, ctxutil.Actor{UserID: "u2", Role: "user"})); err != domain.ErrForbidden {
		t.Errorf("manager: got %v", err)
	}
	if err := RequireAdmin(ctxutil.WithActor(ctx, ctxutil.Actor{UserID: "u1", Role: "admin"})); err != nil {
		t.Errorf("admin: got %v", err)
	}
}
