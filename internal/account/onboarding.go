package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/garagedesk/internal/domain"
)

// CompleteOnboarding activates the caller's garage. Repeating the call after
// success returns the existing tenant unchanged.
func (s *Service) CompleteOnboarding(ctx context.Context, userID uuid.UUID, req *domain.CompleteOnboardingRequest) (*domain.OnboardingResult, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("account.CompleteOnboarding: %w", err)
	}

	if existing, err := s.tenants.GetByOwner(ctx, userID); err == nil {
		log.Debug().Str("tenant_id", existing.ID.String()).Msg("account: onboarding already complete")
		return resultOf(existing), nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("account.CompleteOnboarding: %w", err)
	}

	addr := req.AddressRequest
	if addr.Country == "" {
		addr.Country = domain.DefaultCountry
	}
	tenant := &domain.Tenant{
		ID:             uuid.New(),
		OwnerID:        userID,
		Garage:         req.GarageRequest,
		Address:        addr,
		PaymentMethods: req.PaymentMethodRequests,
		Staff:          req.StaffRequests,
		CreatedAt:      s.now(),
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Either the GST number is taken or a concurrent call won the race.
			if existing, getErr := s.tenants.GetByOwner(ctx, userID); getErr == nil {
				return resultOf(existing), nil
			}
			return nil, fmt.Errorf("account.CompleteOnboarding: %w", ErrGSTRegistered)
		}
		return nil, fmt.Errorf("account.CompleteOnboarding: %w", err)
	}

	user.OnboardingCompleted = true
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("account.CompleteOnboarding: mark user: %w", err)
	}

	log.Info().
		Str("tenant_id", tenant.ID.String()).
		Str("user_id", userID.String()).
		Int("staff", len(tenant.Staff)).
		Msg("account: onboarding complete")
	return resultOf(tenant), nil
}

// OnboardingStatus reports which parts of onboarding the user has finished.
func (s *Service) OnboardingStatus(ctx context.Context, userID uuid.UUID) (*domain.OnboardingStatus, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("account.OnboardingStatus: %w", err)
	}

	status := &domain.OnboardingStatus{UserID: userID}
	tenant, err := s.tenants.GetByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status, nil
		}
		return nil, fmt.Errorf("account.OnboardingStatus: %w", err)
	}

	status.HasGarage = tenant.Garage.GarageName != ""
	status.HasAddress = tenant.Address.AddressLine1 != ""
	status.HasPaymentMethods = len(tenant.PaymentMethods) > 0
	status.HasStaff = len(tenant.Staff) > 0

	done := 0
	for _, ok := range []bool{status.HasGarage, status.HasAddress, status.HasPaymentMethods, status.HasStaff} {
		if ok {
			done++
		}
	}
	status.CompletionPercentage = done * 100 / 4
	return status, nil
}

func resultOf(t *domain.Tenant) *domain.OnboardingResult {
	return &domain.OnboardingResult{
		TenantID:           t.ID,
		GarageName:         t.Garage.GarageName,
		PaymentMethodCount: len(t.PaymentMethods),
		StaffCount:         len(t.Staff),
	}
}
