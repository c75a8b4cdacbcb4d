package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidgq/ecom-api/internal/auth"
	"github.com/davidgq/ecom-api/internal/user"
)

// stubUserRepo implements user.Repository in memory with the unique
// email/username behavior of the real table.
type stubUserRepo struct {
	users []*user.User
}

func (s *stubUserRepo) Create(ctx context.Context, u *user.User) error {
	for _, ex := range s.users {
		if ex.Email == u.Email || ex.Username == u.Username {
			return user.ErrAlreadyExist
		}
	}
	cp := *u
	s.users = append(s.users, &cp)
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *stubUserRepo) UpdateRole(ctx context.Context, id string, role user.Role) (*user.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			u.Role = role
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_HappyPath_PasswordNeverStoredPlaintext(t *testing.T) {
	repo := &stubUserRepo{}
	r := gin.New()
	r.POST("/register", registerHandler(repo))

	w := postJSON(r, "/register", `{"email":"alice@example.com","username":"alice","password":"alicepw1","full_name":"Alice A"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var got user.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.Role != user.RoleCustomer || !got.IsActive {
		t.Fatalf("new user must be an active customer: %+v", got)
	}
	if strings.Contains(w.Body.String(), "alicepw1") {
		t.Fatalf("response leaks the password: %s", w.Body.String())
	}

	stored, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored.HashedPassword == "alicepw1" {
		t.Fatalf("plaintext password stored")
	}
	if !auth.CheckPassword(stored.HashedPassword, "alicepw1") {
		t.Fatalf("stored hash does not verify")
	}
}

func TestRegister_DuplicateEmail_Conflict(t *testing.T) {
	repo := &stubUserRepo{}
	r := gin.New()
	r.POST("/register", registerHandler(repo))

	if w := postJSON(r, "/register", `{"email":"alice@example.com","username":"alice","password":"alicepw1"}`); w.Code != http.StatusOK {
		t.Fatalf("first register: status=%d body=%s", w.Code, w.Body.String())
	}
	// same email, different username
	w := postJSON(r, "/register", `{"email":"alice@example.com","username":"alice2","password":"alicepw1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: status=%d body=%s (esperaba 400)", w.Code, w.Body.String())
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	repo := &stubUserRepo{}
	r := gin.New()
	r.POST("/register", registerHandler(repo))

	cases := []string{
		`{"email":"not-an-email","username":"alice","password":"alicepw1"}`,
		`{"email":"alice@example.com","username":"alice","password":"short"}`,
		`{"email":"alice@example.com","password":"alicepw1"}`,
	}
	for _, body := range cases {
		if w := postJSON(r, "/register", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body=%s status=%d (esperaba 400)", body, w.Code)
		}
	}
	if len(repo.users) != 0 {
		t.Fatalf("invalid registration persisted a user")
	}
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestToken_IssueAndResolve(t *testing.T) {
	repo := &stubUserRepo{}
	svc := auth.NewService(repo, "test-secret")

	hash, _ := auth.HashPassword("alicepw1")
	_ = repo.Create(context.Background(), &user.User{
		ID: "u-1", Email: "alice@example.com", Username: "alice",
		HashedPassword: hash, IsActive: true, Role: user.RoleCustomer,
	})

	r := gin.New()
	r.POST("/token", tokenHandler(svc, 30*time.Minute))

	w := postForm(r, "/token", url.Values{"username": {"alice"}, "password": {"alicepw1"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var tok tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if tok.TokenType != "bearer" || tok.AccessToken == "" {
		t.Fatalf("unexpected token response: %+v", tok)
	}

	id, err := svc.ResolveToken(context.Background(), tok.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not resolve: %v", err)
	}
	if id.UserID != "u-1" {
		t.Fatalf("token subject=%s, esperaba u-1", id.UserID)
	}
}

func TestToken_BadCredentials_GenericUnauthorized(t *testing.T) {
	repo := &stubUserRepo{}
	svc := auth.NewService(repo, "test-secret")

	hash, _ := auth.HashPassword("alicepw1")
	_ = repo.Create(context.Background(), &user.User{
		ID: "u-1", Email: "alice@example.com", Username: "alice",
		HashedPassword: hash, IsActive: true, Role: user.RoleCustomer,
	})

	r := gin.New()
	r.POST("/token", tokenHandler(svc, 30*time.Minute))

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrongpw99"}},
		{"username": {"nobody"}, "password": {"alicepw1"}},
	} {
		w := postForm(r, "/token", form)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status=%d body=%s (esperaba 401)", w.Code, w.Body.String())
		}
		if w.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("missing WWW-Authenticate header")
		}
	}
}
