package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accounthub/internal/auth"
	"accounthub/internal/config"
	"accounthub/internal/model"
	"accounthub/internal/store"
	"accounthub/internal/token"

	"github.com/gin-gonic/gin"
)

type mockAuthService struct {
	loginFunc       func(ctx context.Context, username, password string) (*token.LoginTokens, error)
	registerFunc    func(ctx context.Context, username, email, password, confirmPassword string) (string, error)
	verifyEmailFunc func(ctx context.Context, tokenStr string) (*model.User, error)
	forgetFunc      func(ctx context.Context, email string) error
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*token.LoginTokens, error) {
	return m.loginFunc(ctx, username, password)
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password, confirmPassword string) (string, error) {
	return m.registerFunc(ctx, username, email, password, confirmPassword)
}

func (m *mockAuthService) VerifyEmail(ctx context.Context, tokenStr string) (*model.User, error) {
	return m.verifyEmailFunc(ctx, tokenStr)
}

func (m *mockAuthService) ForgetPassword(ctx context.Context, email string) error {
	return m.forgetFunc(ctx, email)
}

type mockUserStore struct {
	findByIDFunc func(ctx context.Context, id uint) (*model.User, error)
	listPageFunc func(ctx context.Context, page, limit int) (*store.Page, error)
	createFunc   func(ctx context.Context, user *model.User) error
	updateFunc   func(ctx context.Context, id uint, updates map[string]interface{}) (*model.User, error)
	deleteFunc   func(ctx context.Context, id uint) error
}

func (m *mockUserStore) Create(ctx context.Context, user *model.User) error {
	return m.createFunc(ctx, user)
}

func (m *mockUserStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, store.ErrNotFound
}

func (m *mockUserStore) ListPage(ctx context.Context, page, limit int) (*store.Page, error) {
	return m.listPageFunc(ctx, page, limit)
}

func (m *mockUserStore) UpdateByID(ctx context.Context, id uint, updates map[string]interface{}) (*model.User, error) {
	return m.updateFunc(ctx, id, updates)
}

func (m *mockUserStore) DeleteByID(ctx context.Context, id uint) error {
	return m.deleteFunc(ctx, id)
}

func testTokenService() *token.Service {
	return token.NewService(&config.TokenConfig{
		AccessSecret:   "test-access-secret",
		RefreshSecret:  "test-refresh-secret",
		RegisterSecret: "test-register-secret",
		AccessTTL:      time.Minute,
		RefreshTTL:     time.Hour,
		RegisterTTL:    time.Minute,
	})
}

func newTestServer(authSvc AuthService, users UserStore) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		cfg:     &config.Config{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		router:  gin.New(),
		tokens:  testTokenService(),
		authSvc: authSvc,
		users:   users,
	}
	s.registerRoutes()
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHandleLogin_OK(t *testing.T) {
	authSvc := &mockAuthService{
		loginFunc: func(ctx context.Context, username, password string) (*token.LoginTokens, error) {
			return &token.LoginTokens{AccessToken: "access", RefreshToken: "refresh"}, nil
		},
	}
	s := newTestServer(authSvc, &mockUserStore{})

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "harumi",
		"password": "password123",
	}, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["accessToken"] != "access" || body["refreshToken"] != "refresh" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleLogin_NotVerified(t *testing.T) {
	authSvc := &mockAuthService{
		loginFunc: func(ctx context.Context, username, password string) (*token.LoginTokens, error) {
			return nil, auth.ErrNotVerified
		},
	}
	s := newTestServer(authSvc, &mockUserStore{})

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "harumi",
		"password": "password123",
	}, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["message"] != "user is not verified" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleLogin_WrongPasswordHidesAccount(t *testing.T) {
	authSvc := &mockAuthService{
		loginFunc: func(ctx context.Context, username, password string) (*token.LoginTokens, error) {
			return nil, auth.ErrInvalidCredentials
		},
	}
	s := newTestServer(authSvc, &mockUserStore{})

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "harumi",
		"password": "wrong",
	}, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["message"] != "User not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleLogin_Validation(t *testing.T) {
	s := newTestServer(&mockAuthService{}, &mockUserStore{})

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "harumi",
	}, "")

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "Error Validation" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	fieldErrors, ok := body["error"].(map[string]interface{})
	if !ok || fieldErrors["password"] == nil {
		t.Fatalf("expected password field error, got %v", body["error"])
	}
}

func TestHandleRegister_Created(t *testing.T) {
	authSvc := &mockAuthService{
		registerFunc: func(ctx context.Context, username, email, password, confirmPassword string) (string, error) {
			return "register-token", nil
		},
	}
	s := newTestServer(authSvc, &mockUserStore{})

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":        "harumi",
		"email":           "harumi@gmail.com",
		"password":        "password123",
		"confirmPassword": "password123",
	}, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["message"] != "register success" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleRegister_PasswordMismatch(t *testing.T) {
	authSvc := &mockAuthService{
		registerFunc: func(ctx context.Context, username, email, password, confirmPassword string) (string, error) {
			return "", auth.ErrPasswordMismatch
		},
	}
	s := newTestServer(authSvc, &mockUserStore{})

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":        "harumi",
		"email":           "harumi@gmail.com",
		"password":        "password123",
		"confirmPassword": "password456",
	}, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["message"] != "password and confirm password not match" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleRegister_Duplicate(t *testing.T) {
	authSvc := &mockAuthService{
		registerFunc: func(ctx context.Context, username, email, password, confirmPassword string) (string, error) {
			return "", &store.DuplicateKeyError{Field: "email"}
		},
	}
	s := newTestServer(authSvc, &mockUserStore{})

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":        "harumi",
		"email":           "harumi@gmail.com",
		"password":        "password123",
		"confirmPassword": "password123",
	}, "")

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := decodeBody(t, w)
	fieldErrors, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected field errors, got %v", body["error"])
	}
	messages, ok := fieldErrors["email"].([]interface{})
	if !ok || len(messages) != 1 || messages[0] != "email must be unique" {
		t.Fatalf("unexpected email errors: %v", fieldErrors["email"])
	}
}

func TestHandleVerifyEmail(t *testing.T) {
	authSvc := &mockAuthService{
		verifyEmailFunc: func(ctx context.Context, tokenStr string) (*model.User, error) {
			switch tokenStr {
			case "valid":
				return &model.User{ID: 1, Username: "harumi", IsVerified: true}, nil
			case "expired":
				return nil, token.ErrTokenExpired
			case "used":
				return nil, auth.ErrAlreadyVerified
			default:
				return nil, token.ErrTokenInvalid
			}
		},
	}
	s := newTestServer(authSvc, &mockUserStore{})

	w := doJSON(t, s, http.MethodPut, "/api/v1/auth/email-verification/valid", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["message"] != "User email verified successfully." {
		t.Fatalf("unexpected body: %v", body)
	}

	w = doJSON(t, s, http.MethodPut, "/api/v1/auth/email-verification/expired", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["message"] != "Token expired" {
		t.Fatalf("unexpected body: %v", body)
	}

	w = doJSON(t, s, http.MethodPut, "/api/v1/auth/email-verification/used", nil, "")
	if body := decodeBody(t, w); body["message"] != "user already verified" {
		t.Fatalf("unexpected body: %v", body)
	}

	w = doJSON(t, s, http.MethodPut, "/api/v1/auth/email-verification/garbage", nil, "")
	if body := decodeBody(t, w); body["message"] != "invalid token" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleForgetPassword(t *testing.T) {
	authSvc := &mockAuthService{
		forgetFunc: func(ctx context.Context, email string) error {
			switch email {
			case "missing@gmail.com":
				return auth.ErrUserNotFound
			case "inactive@gmail.com":
				return auth.ErrNotActive
			default:
				return nil
			}
		},
	}
	s := newTestServer(authSvc, &mockUserStore{})

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/forget-password", map[string]string{"email": "harumi@gmail.com"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["message"] != "Email has been sent." {
		t.Fatalf("unexpected body: %v", body)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/auth/forget-password", map[string]string{"email": "missing@gmail.com"}, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/auth/forget-password", map[string]string{"email": "inactive@gmail.com"}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["message"] != "user is not active" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestUserRoutes_PermissionGate(t *testing.T) {
	adminUser := &model.User{ID: 1, Username: "root", Role: model.RoleAdmin, IsVerified: true, IsActive: true}
	normalUser := &model.User{ID: 2, Username: "harumi", Role: model.RoleUser, IsVerified: true, IsActive: true}

	users := &mockUserStore{
		findByIDFunc: func(ctx context.Context, id uint) (*model.User, error) {
			switch id {
			case 1:
				return adminUser, nil
			case 2:
				return normalUser, nil
			default:
				return nil, store.ErrNotFound
			}
		},
		listPageFunc: func(ctx context.Context, page, limit int) (*store.Page, error) {
			return &store.Page{CurrentPage: page, TotalPages: 1, TotalItems: 2, Data: []model.User{*adminUser, *normalUser}}, nil
		},
	}
	s := newTestServer(&mockAuthService{}, users)

	adminTokens, err := s.tokens.IssueLoginTokens(adminUser)
	if err != nil {
		t.Fatalf("issue admin tokens: %v", err)
	}
	userTokens, err := s.tokens.IssueLoginTokens(normalUser)
	if err != nil {
		t.Fatalf("issue user tokens: %v", err)
	}

	// 未认证访问受保护路由
	w := doJSON(t, s, http.MethodGet, "/api/v1/user", nil, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for anonymous, got %d", w.Code)
	}

	// user 与 admin 都可以看列表
	w = doJSON(t, s, http.MethodGet, "/api/v1/user", nil, userTokens.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for user role, got %d", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/user", nil, adminTokens.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", w.Code)
	}

	// profile 仅限 admin
	w = doJSON(t, s, http.MethodGet, "/api/v1/user/profile", nil, userTokens.AccessToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role on profile, got %d", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/user/profile", nil, adminTokens.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin on profile, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["username"] != "root" {
		t.Fatalf("unexpected profile body: %v", body)
	}

	// refresh token 不能当 access token 用
	w = doJSON(t, s, http.MethodGet, "/api/v1/user", nil, adminTokens.RefreshToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with refresh token, got %d", w.Code)
	}
}

func TestHandleGetUser_Public(t *testing.T) {
	users := &mockUserStore{
		findByIDFunc: func(ctx context.Context, id uint) (*model.User, error) {
			if id == 2 {
				return &model.User{ID: 2, Username: "harumi", Role: model.RoleUser}, nil
			}
			return nil, store.ErrNotFound
		},
	}
	s := newTestServer(&mockAuthService{}, users)

	w := doJSON(t, s, http.MethodGet, "/api/v1/user/2", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["username"] != "harumi" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body := decodeBody(t, w); body["password"] != nil {
		t.Fatalf("password must not be serialized")
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/user/99", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/user/not-a-number", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
