package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/garagedesk/internal/account"
	"github.com/gosuda/garagedesk/internal/domain"
)

type GarageBody struct {
	GarageName                 string `json:"garageName" minLength:"1" maxLength:"200"`
	BusinessRegistrationNumber string `json:"businessRegistrationNumber,omitempty" maxLength:"64"`
	GSTNumber                  string `json:"gstNumber,omitempty" pattern:"^[0-9A-Za-z]{15}$" doc:"15 character GSTIN"`
	LogoURL                    string `json:"logoUrl,omitempty" maxLength:"2048"`
	WebsiteURL                 string `json:"websiteUrl,omitempty" maxLength:"2048"`
	BusinessHours              string `json:"businessHours" minLength:"1" maxLength:"200"`
	HasBranch                  bool   `json:"hasBranch" required:"false"`
}

type AddressBody struct {
	AddressLine1 string `json:"addressLine1" minLength:"1" maxLength:"255"`
	AddressLine2 string `json:"addressLine2,omitempty" maxLength:"255"`
	City         string `json:"city" minLength:"1" maxLength:"100"`
	State        string `json:"state" minLength:"1" maxLength:"100"`
	Pincode      string `json:"pincode" pattern:"^[0-9]{6}$" doc:"6 digit postal code"`
	Country      string `json:"country,omitempty" maxLength:"100"`
}

type PaymentMethodBody struct {
	PaymentMethod domain.PaymentMethodType `json:"paymentMethod" enum:"CASH,UPI,CARD,BANK_TRANSFER"`
}

type StaffBody struct {
	FirstName    string           `json:"firstName" minLength:"1" maxLength:"100"`
	LastName     string           `json:"lastName,omitempty" maxLength:"100"`
	MobileNumber string           `json:"mobileNumber" pattern:"^[0-9]{10}$"`
	AadharNumber string           `json:"aadharNumber,omitempty" pattern:"^[0-9]{12}$"`
	Role         domain.StaffRole `json:"role" enum:"MECHANIC,RECEPTIONIST,MANAGER"`
}

type CompleteOnboardingInput struct {
	Body struct {
		GarageRequest         GarageBody          `json:"garageRequest"`
		AddressRequest        AddressBody         `json:"addressRequest"`
		PaymentMethodRequests []PaymentMethodBody `json:"paymentMethodRequests" minItems:"1" maxItems:"4"`
		StaffRequests         []StaffBody         `json:"staffRequests" minItems:"1" maxItems:"100"`
	}
}

type CompleteOnboardingOutput = EnvelopeOutput[domain.OnboardingResult]

type OnboardingStatusOutput struct {
	Body *domain.OnboardingStatus
}

func RegisterOnboardingRoutes(api huma.API, svc OnboardingService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-onboarding-status",
		Method:      http.MethodGet,
		Path:        "/onboarding/status",
		Summary:     "Report which onboarding sections are done",
		Tags:        []string{"Onboarding"},
	}, func(ctx context.Context, _ *struct{}) (*OnboardingStatusOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		status, err := svc.OnboardingStatus(ctx, userID)
		if err != nil {
			if errors.Is(err, account.ErrUserNotFound) {
				return nil, huma.Error401Unauthorized(sessionExpired)
			}
			return nil, huma.Error500InternalServerError("failed to get onboarding status", err)
		}
		return &OnboardingStatusOutput{Body: status}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-onboarding",
		Method:      http.MethodPost,
		Path:        "/onboarding/complete",
		Summary:     "Activate the garage in one call",
		Tags:        []string{"Onboarding"},
	}, func(ctx context.Context, input *CompleteOnboardingInput) (*CompleteOnboardingOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		res, err := svc.CompleteOnboarding(ctx, userID, toCompletionRequest(input))
		switch {
		case errors.Is(err, account.ErrGSTRegistered):
			return fail[domain.OnboardingResult](http.StatusConflict, "GST already registered"), nil
		case errors.Is(err, account.ErrUserNotFound):
			return nil, huma.Error401Unauthorized(sessionExpired)
		case err != nil:
			return nil, huma.Error500InternalServerError("failed to complete onboarding", err)
		}
		return succeed("Onboarding completed successfully", res), nil
	})
}

func toCompletionRequest(in *CompleteOnboardingInput) *domain.CompleteOnboardingRequest {
	g, a := in.Body.GarageRequest, in.Body.AddressRequest

	req := &domain.CompleteOnboardingRequest{
		GarageRequest: domain.Garage{
			GarageName:                 g.GarageName,
			BusinessRegistrationNumber: g.BusinessRegistrationNumber,
			GSTNumber:                  g.GSTNumber,
			LogoURL:                    g.LogoURL,
			WebsiteURL:                 g.WebsiteURL,
			BusinessHours:              g.BusinessHours,
			HasBranch:                  g.HasBranch,
		},
		AddressRequest: domain.Address{
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			City:         a.City,
			State:        a.State,
			Pincode:      a.Pincode,
			Country:      a.Country,
		},
		PaymentMethodRequests: make([]domain.PaymentMethod, 0, len(in.Body.PaymentMethodRequests)),
		StaffRequests:         make([]domain.Staff, 0, len(in.Body.StaffRequests)),
	}
	for _, p := range in.Body.PaymentMethodRequests {
		req.PaymentMethodRequests = append(req.PaymentMethodRequests, domain.PaymentMethod{PaymentMethod: p.PaymentMethod})
	}
	for _, s := range in.Body.StaffRequests {
		req.StaffRequests = append(req.StaffRequests, domain.Staff(s))
	}
	return req
}
