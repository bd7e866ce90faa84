package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/garagedesk/internal/account"
	"github.com/gosuda/garagedesk/internal/domain"
)

// AccountService abstracts account operations for handler testing.
// *account.Service satisfies this interface.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*domain.AuthData, error)
	Login(ctx context.Context, email, password string) (*domain.AuthData, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
	SendLoginOTP(ctx context.Context, mobile string) error
	LoginWithOTP(ctx context.Context, mobile, otp string) (*domain.AuthData, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, in account.ProfileUpdate) (*domain.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// OnboardingService abstracts tenant activation for handler testing.
// *account.Service satisfies this interface.
type OnboardingService interface {
	CompleteOnboarding(ctx context.Context, userID uuid.UUID, req *domain.CompleteOnboardingRequest) (*domain.OnboardingResult, error)
	OnboardingStatus(ctx context.Context, userID uuid.UUID) (*domain.OnboardingStatus, error)
}
