package services_test

import (
	"context"

	"github.com/escribo/planos-web/pkg/generation"
	"github.com/escribo/planos-web/pkg/supabase"
	"github.com/stretchr/testify/mock"
)

// MockAuthClient is a mock implementation of supabase.AuthClient
type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supabase.Session), args.Error(1)
}

func (m *MockAuthClient) SignUp(ctx context.Context, email, password string) (*supabase.SignUpResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supabase.SignUpResult), args.Error(1)
}

func (m *MockAuthClient) GetUser(ctx context.Context, accessToken string) (*supabase.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supabase.User), args.Error(1)
}

func (m *MockAuthClient) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockAuthClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPlanGenerator is a mock implementation of services.PlanGenerator
type MockPlanGenerator struct {
	mock.Mock
}

func (m *MockPlanGenerator) Generate(ctx context.Context, req generation.Request, accessToken string) (*generation.Plan, error) {
	args := m.Called(ctx, req, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.Plan), args.Error(1)
}
