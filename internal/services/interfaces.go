package services

import (
	"context"

	"github.com/escribo/planos-web/internal/models"
	"github.com/escribo/planos-web/pkg/generation"
	"github.com/escribo/planos-web/pkg/supabase"
)

// AuthServiceInterface defines the interface for login, registration and session checks
type AuthServiceInterface interface {
	Login(ctx context.Context, form *models.LoginForm) (*models.Session, error)
	Register(ctx context.Context, form *models.RegisterForm) error
	Logout(ctx context.Context, session *models.Session) error
	CurrentUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// GeneratorServiceInterface defines the interface for lesson plan generation
type GeneratorServiceInterface interface {
	Generate(ctx context.Context, session *models.Session, topic string) (*generation.Plan, error)
}

// PlanGenerator is the remote generation endpoint
type PlanGenerator interface {
	Generate(ctx context.Context, req generation.Request, accessToken string) (*generation.Plan, error)
}

// Ensure services implement their interfaces
var _ AuthServiceInterface = (*AuthService)(nil)
var _ GeneratorServiceInterface = (*GeneratorService)(nil)
var _ PlanGenerator = (*generation.Client)(nil)
