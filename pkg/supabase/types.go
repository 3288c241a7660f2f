package supabase

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotConfigured      = errors.New("auth provider not configured")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUnauthorized       = errors.New("access token rejected by auth provider")
)

// User is the subset of the provider's user object this service reads
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Role             string `json:"role,omitempty"`
	EmailConfirmedAt string `json:"email_confirmed_at,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// Session is the token response returned by a successful sign-in
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// SignUpResult holds either a session (auto-confirmed accounts) or just the
// created user when e-mail confirmation is pending
type SignUpResult struct {
	User    *User
	Session *Session
}

// NeedsConfirmation reports whether the account must confirm its e-mail first
func (r *SignUpResult) NeedsConfirmation() bool {
	return r.Session == nil
}

// APIError is a non-2xx answer from the provider. Message is the provider's
// own text and is empty when the body carried none.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("auth provider returned %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("auth provider returned %d: %s", e.StatusCode, msg)
}

// errorBody covers the error shapes GoTrue has used across versions
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b errorBody) message() string {
	for _, m := range []string{b.ErrorDescription, b.Msg, b.Message, b.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

func (b errorBody) code() string {
	if b.ErrorCode != "" {
		return b.ErrorCode
	}
	return b.Error
}

// signUpResponse is either a Session or a bare User depending on project settings
type signUpResponse struct {
	Session
	ID    string `json:"id"`
	Email string `json:"email"`
}
