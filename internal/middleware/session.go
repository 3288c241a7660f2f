package middleware

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"

	"github.com/escribo/planos-web/config"
	"github.com/escribo/planos-web/internal/models"
	"github.com/escribo/planos-web/pkg/metrics"
	"github.com/escribo/planos-web/pkg/supabase"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	// SessionContextKey is the key used to store the session in the gin context
	SessionContextKey = "user_session"

	// LoginPath is where unauthenticated page loads are sent
	LoginPath = "/login"

	keyUserID       = "user_id"
	keyEmail        = "email"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
)

var (
	ErrSessionNotFound = errors.New("session not found in context")
	ErrInvalidSession  = errors.New("invalid session type")
)

// UserResolver looks up the provider user behind an access token
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// NewSessionStore creates the signed and encrypted cookie store
func NewSessionStore(cfg config.SessionConfig) cookie.Store {
	encryptionKey := sha256.Sum256([]byte(cfg.Secret))
	store := cookie.NewStore([]byte(cfg.Secret), encryptionKey[:])
	store.Options(sessions.Options{
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   cfg.MaxAgeHours * 3600,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// SessionsMiddleware attaches the cookie session to every request
func SessionsMiddleware(cookieName string, store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(cookieName, store)
}

// SaveSession writes the user session into the cookie
func SaveSession(c *gin.Context, session *models.Session) error {
	s := sessions.Default(c)
	s.Set(keyUserID, session.UserID)
	s.Set(keyEmail, session.Email)
	s.Set(keyAccessToken, session.AccessToken)
	s.Set(keyRefreshToken, session.RefreshToken)
	s.Set(keyExpiresAt, session.ExpiresAt)
	if err := s.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ClearSession empties the cookie session
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ReadSession returns the stored session or nil when none is present
func ReadSession(c *gin.Context) *models.Session {
	s := sessions.Default(c)
	session := &models.Session{
		UserID:       stringValue(s.Get(keyUserID)),
		Email:        stringValue(s.Get(keyEmail)),
		AccessToken:  stringValue(s.Get(keyAccessToken)),
		RefreshToken: stringValue(s.Get(keyRefreshToken)),
	}
	if exp, ok := s.Get(keyExpiresAt).(int64); ok {
		session.ExpiresAt = exp
	}
	if !session.Present() {
		return nil
	}
	return session
}

// LoadSession copies the cookie session into the context without asking the
// provider. The session may be absent.
func LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session := ReadSession(c); session != nil {
			c.Set(SessionContextKey, session)
		}
		c.Next()
	}
}

// RequireSession gates page loads: without a session accepted by the provider
// the request is redirected to the login page
func RequireSession(users UserResolver) gin.HandlerFunc {
	return guard(users, func(c *gin.Context) {
		c.Redirect(http.StatusFound, LoginPath)
	})
}

// RequireAPISession is RequireSession for JSON clients
func RequireAPISession(users UserResolver) gin.HandlerFunc {
	return guard(users, func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
	})
}

func guard(users UserResolver, reject func(c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := ReadSession(c)
		if session == nil {
			metrics.SessionGuardChecks.WithLabelValues("no_session").Inc()
			reject(c)
			c.Abort()
			return
		}

		user, err := users.CurrentUser(c.Request.Context(), session.AccessToken)
		if err != nil || user == nil || user.ID == "" {
			if err != nil {
				_ = c.Error(fmt.Errorf("session rejected: %w", err)) //nolint:errcheck
			}
			if clearErr := ClearSession(c); clearErr != nil {
				_ = c.Error(clearErr) //nolint:errcheck
			}
			metrics.SessionGuardChecks.WithLabelValues("rejected").Inc()
			reject(c)
			c.Abort()
			return
		}

		// The provider's answer is authoritative for the user id
		if session.UserID != user.ID || (session.Email == "" && user.Email != "") {
			session.UserID = user.ID
			if session.Email == "" {
				session.Email = user.Email
			}
			if err := SaveSession(c, session); err != nil {
				_ = c.Error(err) //nolint:errcheck
			}
		}

		metrics.SessionGuardChecks.WithLabelValues("ok").Inc()
		c.Set(SessionContextKey, session)
		c.Next()
	}
}

// GetSession extracts the session from context
func GetSession(c *gin.Context) (*models.Session, error) {
	val, exists := c.Get(SessionContextKey)
	if !exists {
		return nil, ErrSessionNotFound
	}

	session, ok := val.(*models.Session)
	if !ok {
		return nil, ErrInvalidSession
	}

	return session, nil
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
