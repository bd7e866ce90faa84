package onboarding

import (
	"context"
	"fmt"

	"github.com/gosuda/garagedesk/internal/domain"
	"github.com/gosuda/garagedesk/internal/gateway"
)

type (
	OnboardingStatus   = domain.OnboardingStatus
	CompletionResponse = domain.Response[domain.OnboardingResult]
)

// API is the subset of *gateway.Client the onboarding gateway needs.
type API interface {
	Get(ctx context.Context, path string, mode gateway.Mode, out any) error
	Post(ctx context.Context, path string, mode gateway.Mode, body, out any) error
}

// Gateway talks to the onboarding endpoints of the remote API.
type Gateway struct {
	api API
}

var _ Submitter = (*Gateway)(nil)

func NewGateway(api API) *Gateway {
	return &Gateway{api: api}
}

// Ping is the cheap connectivity check made before submitting.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.api.Get(ctx, gateway.PathHealth, gateway.Anonymous, nil); err != nil {
		return fmt.Errorf("onboarding.Gateway.Ping: %w", err)
	}
	return nil
}

func (g *Gateway) Status(ctx context.Context) (*OnboardingStatus, error) {
	var status OnboardingStatus
	if err := g.api.Get(ctx, gateway.PathOnboardingStatus, gateway.Authenticated, &status); err != nil {
		return nil, fmt.Errorf("onboarding.Gateway.Status: %w", err)
	}
	return &status, nil
}

// Complete submits the whole draft in one request.
func (g *Gateway) Complete(ctx context.Context, req *domain.CompleteOnboardingRequest) (*CompletionResponse, error) {
	var resp CompletionResponse
	if err := g.api.Post(ctx, gateway.PathOnboardingComplete, gateway.Authenticated, req, &resp); err != nil {
		return nil, fmt.Errorf("onboarding.Gateway.Complete: %w", err)
	}
	return &resp, nil
}

// BuildRequest maps a draft snapshot to the completion wire shape.
func BuildRequest(data Data) *domain.CompleteOnboardingRequest {
	addr := data.Address
	if blank(addr.Country) {
		addr.Country = domain.DefaultCountry
	}

	methods := make([]domain.PaymentMethod, 0, len(data.PaymentMethods))
	for _, m := range data.PaymentMethods {
		methods = append(methods, domain.PaymentMethod{PaymentMethod: m.Method})
	}

	staff := make([]domain.Staff, 0, len(data.Staff))
	for _, s := range data.Staff {
		staff = append(staff, domain.Staff{
			FirstName:    s.FirstName,
			LastName:     s.LastName,
			MobileNumber: s.MobileNumber,
			AadharNumber: s.AadharNumber,
			Role:         s.Role,
		})
	}

	return &domain.CompleteOnboardingRequest{
		GarageRequest:         data.Garage,
		AddressRequest:        addr,
		PaymentMethodRequests: methods,
		StaffRequests:         staff,
	}
}
