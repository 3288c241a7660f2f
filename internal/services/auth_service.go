package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/escribo/planos-web/internal/cache"
	"github.com/escribo/planos-web/internal/models"
	apperrors "github.com/escribo/planos-web/pkg/errors"
	"github.com/escribo/planos-web/pkg/jwt"
	"github.com/escribo/planos-web/pkg/logger"
	"github.com/escribo/planos-web/pkg/metrics"
	"github.com/escribo/planos-web/pkg/supabase"
	"go.uber.org/zap"
)

const (
	MsgLoginFailed          = "Falha na autenticação. Verifique suas credenciais e confirme seu e-mail."
	MsgPasswordMismatch     = "As senhas não coincidem!"
	MsgRegistrationSuccess  = "Registro bem-sucedido! Verifique sua caixa de entrada (e spam) para confirmar seu e-mail."
	MsgRegistrationFallback = "Falha no registro. O e-mail pode já estar em uso ou a senha é muito curta."
)

var (
	ErrLoginFailed      = errors.New("login failed")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrSessionInvalid   = errors.New("session rejected")
)

// AuthService wraps the auth provider for the web flows
type AuthService struct {
	provider  supabase.AuthClient
	inspector *jwt.Inspector
	users     *cache.UserCache
}

// NewAuthService creates a new AuthService
func NewAuthService(provider supabase.AuthClient, inspector *jwt.Inspector, users *cache.UserCache) *AuthService {
	return &AuthService{
		provider:  provider,
		inspector: inspector,
		users:     users,
	}
}

// Login signs in with e-mail and password and builds the cookie session
func (s *AuthService) Login(ctx context.Context, form *models.LoginForm) (*models.Session, error) {
	email := strings.TrimSpace(form.Email)

	result, err := s.provider.SignInWithPassword(ctx, email, form.Password)
	if err != nil {
		metrics.UserLogins.WithLabelValues("failed").Inc()
		logger.Warn("Login failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	session := &models.Session{
		Email:        email,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	}
	if result.User != nil {
		session.UserID = result.User.ID
		if result.User.Email != "" {
			session.Email = result.User.Email
		}
	}

	if claims, err := s.inspector.Inspect(result.AccessToken); err == nil {
		if session.UserID == "" {
			session.UserID = claims.Subject
		}
		if session.ExpiresAt == 0 && claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Unix()
		}
	}
	if session.ExpiresAt == 0 && result.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second).Unix()
	}

	if !session.Present() {
		metrics.UserLogins.WithLabelValues("failed").Inc()
		logger.Error("Provider session lacks user id or token", zap.String("email", email))
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, apperrors.InternalError("incomplete provider session"))
	}

	if result.User != nil {
		ttl := time.Duration(0)
		if session.ExpiresAt > 0 {
			ttl = time.Until(time.Unix(session.ExpiresAt, 0))
		}
		s.users.Set(session.AccessToken, result.User, ttl)
	}

	metrics.UserLogins.WithLabelValues("success").Inc()
	logger.Info("User logged in", zap.String("user_id", session.UserID))

	return session, nil
}

// Register validates the form locally and creates the account. The provider
// is never called when the passwords differ.
func (s *AuthService) Register(ctx context.Context, form *models.RegisterForm) error {
	if form.Password != form.ConfirmPassword {
		metrics.UserRegistrations.WithLabelValues("password_mismatch").Inc()
		return ErrPasswordMismatch
	}

	email := strings.TrimSpace(form.Email)
	result, err := s.provider.SignUp(ctx, email, form.Password)
	if err != nil {
		metrics.UserRegistrations.WithLabelValues("failed").Inc()
		logger.Warn("Registration failed", zap.String("email", email), zap.Error(err))
		return err
	}

	metrics.UserRegistrations.WithLabelValues("success").Inc()
	fields := []zap.Field{zap.Bool("needs_confirmation", result.NeedsConfirmation())}
	if result.User != nil {
		fields = append(fields, zap.String("user_id", result.User.ID))
	}
	logger.Info("User registered", fields...)

	return nil
}

// Logout revokes the provider session. The caller clears the cookie whatever
// the outcome.
func (s *AuthService) Logout(ctx context.Context, session *models.Session) error {
	if session == nil || session.AccessToken == "" {
		return nil
	}

	s.users.Invalidate(session.AccessToken)

	if err := s.provider.SignOut(ctx, session.AccessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	logger.Info("User logged out", zap.String("user_id", session.UserID))
	return nil
}

// CurrentUser resolves the provider user behind an access token
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*supabase.User, error) {
	if accessToken == "" {
		return nil, apperrors.UnauthorizedError("missing access token")
	}

	claims, err := s.inspector.Inspect(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	if user, found := s.users.Get(accessToken); found {
		return user, nil
	}

	user, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, apperrors.UnauthorizedError("provider returned no user id"))
	}

	ttl := time.Duration(0)
	if exp := claims.ExpiresAtTime(); !exp.IsZero() {
		ttl = time.Until(exp)
	}
	s.users.Set(accessToken, user, ttl)

	return user, nil
}

// ProviderMessage returns the provider's own error text, if any
func ProviderMessage(err error) string {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// RegistrationMessage maps a Register error to the text shown on the page
func RegistrationMessage(err error) string {
	if errors.Is(err, ErrPasswordMismatch) {
		return MsgPasswordMismatch
	}
	if msg := ProviderMessage(err); msg != "" {
		return msg
	}
	return MsgRegistrationFallback
}
