package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/escribo/planos-web/internal/middleware"
	"github.com/escribo/planos-web/internal/models"
	"github.com/escribo/planos-web/internal/services"
	"github.com/escribo/planos-web/pkg/supabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"
)

func TestAuthHandler_LoginSuccess(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Login", mock.Anything, &models.LoginForm{Email: "prof@escola.com", Password: "secret1"}).
		Return(activeSession(), nil).Once()

	handler := NewAuthHandler(svc)
	router := newTestRouter(nil)
	router.POST("/login", handler.Login)

	w := postForm(router, "/login", url.Values{"email": {"prof@escola.com"}, "password": {"secret1"}}, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, GeneratorPath, w.Header().Get("Location"))
	assert.NotEmpty(t, w.Result().Cookies())
	svc.AssertExpectations(t)
}

func TestAuthHandler_LoginFailure(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Login", mock.Anything, mock.Anything).
		Return(nil, errors.Join(services.ErrLoginFailed, supabase.ErrInvalidCredentials)).Once()

	handler := NewAuthHandler(svc)
	router := newTestRouter(nil)
	router.POST("/login", handler.Login)

	w := postForm(router, "/login", url.Values{"email": {"prof@escola.com"}, "password": {"wrong"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Falha na autenticação. Verifique suas credenciais e confirme seu e-mail.")
}

func TestAuthHandler_LoginValidation(t *testing.T) {
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc)
	router := newTestRouter(nil)
	router.POST("/login", handler.Login)

	w := postForm(router, "/login", url.Values{"email": {"not-an-email"}, "password": {"x"}}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Formato de e-mail inválido")
	svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestAuthHandler_LoginPageRedirectsWithSession(t *testing.T) {
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc)
	router := newTestRouter(activeSession())
	router.GET("/login", handler.LoginPage)

	w := get(router, "/login", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/login"`)

	w = get(router, "/login", seed(t, router))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, GeneratorPath, w.Header().Get("Location"))
}

func TestAuthHandler_RegisterMismatchSkipsProvider(t *testing.T) {
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc)
	router := newTestRouter(nil)
	router.POST("/register", handler.Register)

	w := postForm(router, "/register", url.Values{
		"email":           {"prof@escola.com"},
		"password":        {"abc123"},
		"confirmPassword": {"xyz789"},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "As senhas não coincidem!")
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestAuthHandler_RegisterSuccessClearsForm(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Register", mock.Anything, mock.Anything).Return(nil).Once()

	handler := NewAuthHandler(svc)
	router := newTestRouter(nil)
	router.POST("/register", handler.Register)

	w := postForm(router, "/register", url.Values{
		"email":           {"prof@escola.com"},
		"password":        {"abc123"},
		"confirmPassword": {"abc123"},
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Registro bem-sucedido! Verifique sua caixa de entrada (e spam) para confirmar seu e-mail.")
	assert.NotContains(t, w.Body.String(), "prof@escola.com")
}

func TestAuthHandler_RegisterProviderMessage(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Register", mock.Anything, mock.Anything).
		Return(&supabase.APIError{StatusCode: 422, Message: "User already registered"}).Once()

	handler := NewAuthHandler(svc)
	router := newTestRouter(nil)
	router.POST("/register", handler.Register)

	w := postForm(router, "/register", url.Values{
		"email":           {"prof@escola.com"},
		"password":        {"abc123"},
		"confirmPassword": {"abc123"},
	}, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "User already registered")
}

func TestAuthHandler_LogoutAlwaysRedirects(t *testing.T) {
	for _, signOutErr := range []error{nil, errors.New("provider down")} {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, mock.Anything).Return(signOutErr).Once()

		handler := NewAuthHandler(svc)
		r := newTestRouter(activeSession())
		r.POST("/logout", handler.Logout)

		w := postForm(r, "/logout", url.Values{}, seed(t, r))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		svc.AssertCalled(t, "Logout", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s != nil && s.AccessToken == "tok"
		}))
	}
}

func TestAuthHandler_LogoutWithoutSession(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Logout", mock.Anything, (*models.Session)(nil)).Return(nil).Once()

	handler := NewAuthHandler(svc)
	router := newTestRouter(nil)
	router.POST("/logout", handler.Logout)

	w := postForm(router, "/logout", url.Values{}, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	svc.AssertExpectations(t)
}

func TestAuthHandler_RateLimitedPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := new(MockAuthService)
	svc.On("Login", mock.Anything, mock.Anything).
		Return(nil, errors.Join(services.ErrLoginFailed, supabase.ErrInvalidCredentials)).Once()

	handler := NewAuthHandler(svc)
	limiter := middleware.NewRateLimiter(ctx, rate.Every(time.Hour), 1)
	router := newTestRouter(nil)
	router.POST("/login", limiter.MiddlewareWith(handler.LoginRateLimited), handler.Login)
	router.POST("/register", limiter.MiddlewareWith(handler.RegisterRateLimited), handler.Register)

	form := url.Values{"email": {"prof@escola.com"}, "password": {"errada"}}
	assert.Equal(t, http.StatusUnauthorized, postForm(router, "/login", form, nil).Code)

	for _, path := range []string{"/login", "/register"} {
		w := postForm(router, path, form, nil)

		assert.Equal(t, http.StatusTooManyRequests, w.Code, path)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html", path)
		assert.Contains(t, w.Body.String(), `class="error"`, path)
		assert.Contains(t, w.Body.String(), middleware.MsgTooManyRequests, path)
		assert.Contains(t, w.Body.String(), `value="prof@escola.com"`, path)
	}
	svc.AssertExpectations(t)
}
