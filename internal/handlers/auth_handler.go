package handlers

import (
	"errors"
	"net/http"

	"github.com/escribo/planos-web/internal/middleware"
	"github.com/escribo/planos-web/internal/models"
	"github.com/escribo/planos-web/internal/services"
	"github.com/escribo/planos-web/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	loginTemplate    = "login.html"
	registerTemplate = "register.html"

	// GeneratorPath is where a successful login lands
	GeneratorPath = "/gerador"
)

// AuthHandler serves the login, registration and logout flows
type AuthHandler struct {
	service services.AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service services.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// LoginPage handles GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if middleware.ReadSession(c) != nil {
		c.Redirect(http.StatusFound, GeneratorPath)
		return
	}
	c.HTML(http.StatusOK, loginTemplate, models.AuthPage{Title: "Entrar"})
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var form models.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		attachError(c, err)
		c.HTML(http.StatusBadRequest, loginTemplate, models.AuthPage{
			Title: "Entrar",
			Email: form.Email,
			Error: FirstValidationMessage(err, services.MsgLoginFailed),
		})
		return
	}

	session, err := h.service.Login(c.Request.Context(), &form)
	if err != nil {
		attachError(c, err)
		c.HTML(http.StatusUnauthorized, loginTemplate, models.AuthPage{
			Title: "Entrar",
			Email: form.Email,
			Error: services.MsgLoginFailed,
		})
		return
	}

	if err := middleware.SaveSession(c, session); err != nil {
		logger.LogError(err, "Failed to store session", zap.String("user_id", session.UserID))
		attachError(c, err)
		c.HTML(http.StatusInternalServerError, loginTemplate, models.AuthPage{
			Title: "Entrar",
			Email: form.Email,
			Error: services.MsgLoginFailed,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, GeneratorPath)
}

// LoginRateLimited renders the login page for a throttled POST /login
func (h *AuthHandler) LoginRateLimited(c *gin.Context) {
	c.HTML(http.StatusTooManyRequests, loginTemplate, models.AuthPage{
		Title: "Entrar",
		Email: c.PostForm("email"),
		Error: middleware.MsgTooManyRequests,
	})
}

// RegisterPage handles GET /register
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, registerTemplate, models.AuthPage{Title: "Criar conta"})
}

// Register handles POST /register. Mismatched passwords are reported before
// anything else and never reach the provider.
func (h *AuthHandler) Register(c *gin.Context) {
	var form models.RegisterForm
	bindErr := c.ShouldBind(&form)

	if form.Password != form.ConfirmPassword {
		attachError(c, services.ErrPasswordMismatch)
		c.HTML(http.StatusBadRequest, registerTemplate, models.AuthPage{
			Title: "Criar conta",
			Email: form.Email,
			Error: services.MsgPasswordMismatch,
		})
		return
	}

	if bindErr != nil {
		attachError(c, bindErr)
		c.HTML(http.StatusBadRequest, registerTemplate, models.AuthPage{
			Title: "Criar conta",
			Email: form.Email,
			Error: FirstValidationMessage(bindErr, services.MsgRegistrationFallback),
		})
		return
	}

	if err := h.service.Register(c.Request.Context(), &form); err != nil {
		attachError(c, err)
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrPasswordMismatch) {
			status = http.StatusBadRequest
		}
		c.HTML(status, registerTemplate, models.AuthPage{
			Title: "Criar conta",
			Email: form.Email,
			Error: services.RegistrationMessage(err),
		})
		return
	}

	c.HTML(http.StatusOK, registerTemplate, models.AuthPage{
		Title:   "Criar conta",
		Success: services.MsgRegistrationSuccess,
	})
}

// RegisterRateLimited renders the registration page for a throttled POST /register
func (h *AuthHandler) RegisterRateLimited(c *gin.Context) {
	c.HTML(http.StatusTooManyRequests, registerTemplate, models.AuthPage{
		Title: "Criar conta",
		Email: c.PostForm("email"),
		Error: middleware.MsgTooManyRequests,
	})
}

// Logout handles POST /logout. It always ends on the login page.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.ReadSession(c)

	if err := h.service.Logout(c.Request.Context(), session); err != nil {
		logger.Warn("Sign out failed", zap.Error(err))
		attachError(c, err)
	}

	if err := middleware.ClearSession(c); err != nil {
		attachError(c, err)
	}

	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}
