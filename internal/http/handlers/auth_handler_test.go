package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kuberai/go-gold-backend/internal/domain"
	"github.com/kuberai/go-gold-backend/internal/services"
)

type fakeAuthService struct {
	user *domain.User
	err  error
}

func (f *fakeAuthService) Signup(context.Context, string, string, string) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeAuthService) Login(context.Context, string, string) (*domain.User, error) {
	return f.user, f.err
}

func newAuthRouter(svc AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc, nil, nil, nil)
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestSignupHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := newAuthRouter(&fakeAuthService{user: &domain.User{Email: "a@b.c"}})
		w, body := postJSON(t, r, "/signup", `{"email":"a@b.c","password":"pw","name":"A"}`)
		if w.Code != http.StatusOK || body["message"] != "Account created successfully" {
			t.Fatalf("signup = %d %v", w.Code, body)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		r := newAuthRouter(&fakeAuthService{})
		w, body := postJSON(t, r, "/signup", `{"email":"a@b.c"}`)
		if w.Code != http.StatusBadRequest || body["message"] != "All fields are required" {
			t.Fatalf("signup = %d %v", w.Code, body)
		}
	})

	t.Run("email taken", func(t *testing.T) {
		r := newAuthRouter(&fakeAuthService{err: services.ErrEmailTaken})
		w, body := postJSON(t, r, "/signup", `{"email":"a@b.c","password":"pw","name":"A"}`)
		if w.Code != http.StatusBadRequest || body["code"] != ErrCodeSignupFailed {
			t.Fatalf("signup = %d %v", w.Code, body)
		}
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("success rounds balance", func(t *testing.T) {
		r := newAuthRouter(&fakeAuthService{user: &domain.User{
			Email: "a@b.c", Name: "A", GoldBalance: 0.123456789,
		}})
		w, body := postJSON(t, r, "/login", `{"email":"a@b.c","password":"pw"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("login = %d %v", w.Code, body)
		}
		if body["message"] != "Login successful" || body["goldBalance"] != 0.12346 {
			t.Fatalf("login body = %v", body)
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		r := newAuthRouter(&fakeAuthService{err: services.ErrInvalidCredentials})
		w, body := postJSON(t, r, "/login", `{"email":"a@b.c","password":"pw"}`)
		if w.Code != http.StatusUnauthorized || body["code"] != ErrCodeUnauthorized {
			t.Fatalf("login = %d %v", w.Code, body)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		r := newAuthRouter(&fakeAuthService{})
		w, _ := postJSON(t, r, "/login", `{`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("login = %d, want 400", w.Code)
		}
	})
}
