package models

// Session represents the authenticated user stored in the cookie session
type Session struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds, 0 if unknown
}

// Present reports whether the session can authorize a generation request
func (s *Session) Present() bool {
	return s != nil && s.UserID != "" && s.AccessToken != ""
}

// LoginForm is the login page submission
type LoginForm struct {
	Email    string `form:"email" binding:"required,email,max=255"`
	Password string `form:"password" binding:"required"`
}

// RegisterForm is the registration page submission
type RegisterForm struct {
	Email           string `form:"email" binding:"required,email,max=255"`
	Password        string `form:"password" binding:"required,min=6,max=72"`
	ConfirmPassword string `form:"confirmPassword" binding:"required"`
}

// GenerateForm is the generator page submission
type GenerateForm struct {
	Topic string `form:"topic" json:"topic" binding:"required,max=500"`
}
