// Package account implements the user-facing operations of the development
// API server: registration, password and OTP login, password reset, profile
// edits and onboarding completion.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/garagedesk/internal/auth"
	"github.com/gosuda/garagedesk/internal/domain"
)

// Sentinel errors for the account package.
var (
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	ErrUserAlreadyExists  = errors.New("account: user already exists")
	ErrUserNotFound       = errors.New("account: user not found")
	ErrInvalidOTP         = errors.New("account: invalid or expired otp")
	ErrMobileTaken        = errors.New("account: mobile number already registered")
	ErrGSTRegistered      = errors.New("account: gst number already registered")
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	FirstName    string
	LastName     string
	Email        string
	MobileNumber string
	Password     string
}

// ProfileUpdate changes the non-empty fields only.
type ProfileUpdate struct {
	FirstName    string
	LastName     string
	MobileNumber string
}

// OTPSink receives every issued one-time code. The development server logs
// them since there is no SMS or mail gateway.
type OTPSink func(purpose, subject, code string)

// LogOTPSink writes codes to the global logger at info level.
func LogOTPSink(purpose, subject, code string) {
	log.Info().Str("purpose", purpose).Str("subject", subject).Str("otp", code).Msg("account: otp issued")
}

func discardOTPSink(purpose, _, _ string) {
	log.Debug().Str("purpose", purpose).Msg("account: otp issued")
}

type Option func(*Service)

// WithOTPSink replaces the default sink, which logs that a code was issued
// without the code itself.
func WithOTPSink(sink OTPSink) Option {
	return func(s *Service) { s.sink = sink }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service provides account operations on top of the user and tenant
// repositories.
type Service struct {
	users     domain.UserRepository
	tenants   domain.TenantRepository
	jwtSecret string
	tokenTTL  time.Duration
	sink      OTPSink
	now       func() time.Time
	otps      *otpStore
}

func NewService(users domain.UserRepository, tenants domain.TenantRepository, jwtSecret string, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:     users,
		tenants:   tenants,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		sink:      discardOTPSink,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.otps = newOTPStore(s.now)
	return s
}

// Register creates a user and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.AuthData, error) {
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("account.Register: %w", ErrUserAlreadyExists)
	}
	if in.MobileNumber != "" {
		if _, err := s.users.GetByMobile(ctx, in.MobileNumber); err == nil {
			return nil, fmt.Errorf("account.Register: %w", ErrMobileTaken)
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("account.Register: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
		MobileNumber: in.MobileNumber,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("account.Register: %w", ErrUserAlreadyExists)
		}
		return nil, fmt.Errorf("account.Register: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("account: user registered")
	return s.session(user)
}

// Login validates email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.AuthData, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("account.Login: %w", ErrInvalidCredentials)
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("account.Login: %w", ErrInvalidCredentials)
	}
	return s.session(user)
}

// ForgotPassword issues a reset code when the email is registered. Unknown
// emails succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug().Msg("account: reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("account.ForgotPassword: %w", err)
	}
	return s.issueOTP(purposeReset, subjectEmail(user.Email))
}

// VerifyOTP checks a reset code without consuming it so that ResetPassword
// can follow with the same code.
func (s *Service) VerifyOTP(_ context.Context, email, otp string) error {
	if !s.otps.verify(purposeReset, subjectEmail(email), otp, false) {
		return fmt.Errorf("account.VerifyOTP: %w", ErrInvalidOTP)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if !s.otps.verify(purposeReset, subjectEmail(email), otp, true) {
		return fmt.Errorf("account.ResetPassword: %w", ErrInvalidOTP)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("account.ResetPassword: %w", ErrUserNotFound)
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return fmt.Errorf("account.ResetPassword: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("account: password reset")
	return nil
}

func (s *Service) SendLoginOTP(ctx context.Context, mobile string) error {
	if _, err := s.users.GetByMobile(ctx, mobile); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("account.SendLoginOTP: %w", ErrUserNotFound)
		}
		return fmt.Errorf("account.SendLoginOTP: %w", err)
	}
	return s.issueOTP(purposeLogin, mobile)
}

func (s *Service) LoginWithOTP(ctx context.Context, mobile, otp string) (*domain.AuthData, error) {
	if !s.otps.verify(purposeLogin, mobile, otp, true) {
		return nil, fmt.Errorf("account.LoginWithOTP: %w", ErrInvalidOTP)
	}

	user, err := s.users.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("account.LoginWithOTP: %w", ErrUserNotFound)
	}
	return s.session(user)
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("account.ChangePassword: %w", err)
	}
	if !auth.VerifyPassword(current, user.PasswordHash) {
		return fmt.Errorf("account.ChangePassword: %w", ErrInvalidCredentials)
	}
	if err := s.setPassword(ctx, user, next); err != nil {
		return fmt.Errorf("account.ChangePassword: %w", err)
	}
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("account.UpdateProfile: %w", err)
	}

	if v := strings.TrimSpace(in.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		user.LastName = v
	}
	if in.MobileNumber != "" {
		user.MobileNumber = in.MobileNumber
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("account.UpdateProfile: %w", ErrMobileTaken)
		}
		return nil, fmt.Errorf("account.UpdateProfile: %w", err)
	}
	return user, nil
}

// GetUser returns a user by ID (for middleware use).
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("account.GetUser: %w", ErrUserNotFound)
		}
		return nil, fmt.Errorf("account.GetUser: %w", err)
	}
	return user, nil
}

func (s *Service) session(user *domain.User) (*domain.AuthData, error) {
	token, err := auth.IssueToken(s.jwtSecret, user.ID, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("account.session: %w", err)
	}
	return &domain.AuthData{Token: token, User: user}, nil
}

func (s *Service) setPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return s.users.Update(ctx, user)
}

func (s *Service) issueOTP(p otpPurpose, subject string) error {
	code, err := s.otps.issue(p, subject)
	if err != nil {
		return err
	}
	s.sink(string(p), subject, code)
	return nil
}

func subjectEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
