package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/escribo/planos-web/config"
	"github.com/escribo/planos-web/internal/middleware"
	"github.com/escribo/planos-web/internal/models"
	"github.com/escribo/planos-web/internal/web"
	"github.com/escribo/planos-web/pkg/logger"
	"github.com/escribo/planos-web/pkg/supabase"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)

	if err := logger.Initialize(logger.Config{Level: "debug", Environment: "test"}); err != nil {
		panic(err)
	}
}

var testSessionConfig = config.SessionConfig{
	Secret:      "0123456789abcdef0123456789abcdef",
	CookieName:  "escribo_session",
	MaxAgeHours: 1,
}

// MockAuthService is a mock implementation of services.AuthServiceInterface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, form *models.LoginForm) (*models.Session, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, form *models.RegisterForm) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

func (m *MockAuthService) Logout(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, accessToken string) (*supabase.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supabase.User), args.Error(1)
}

// newTestRouter returns an engine with templates, cookie sessions and a /seed
// route that stores session
func newTestRouter(session *models.Session) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(web.MustTemplates())
	router.Use(middleware.SessionsMiddleware(testSessionConfig.CookieName, middleware.NewSessionStore(testSessionConfig)))
	router.GET("/seed", func(c *gin.Context) {
		_ = middleware.SaveSession(c, session)
		c.Status(http.StatusNoContent)
	})
	return router
}

func seed(t *testing.T, router *gin.Engine) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/seed", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	return w.Result().Cookies()
}

func postForm(router *gin.Engine, path string, values url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func activeSession() *models.Session {
	return &models.Session{UserID: "user-1", Email: "prof@escola.com", AccessToken: "tok", ExpiresAt: 1700000000}
}
