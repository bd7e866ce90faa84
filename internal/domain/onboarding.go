package domain

import "github.com/google/uuid"

// Response is the {success, message, data} envelope used by auth-family and
// onboarding endpoints.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}

// CompleteOnboardingRequest commits garage, address, payment methods and
// staff in one call.
type CompleteOnboardingRequest struct {
	GarageRequest         Garage          `json:"garageRequest"`
	AddressRequest        Address         `json:"addressRequest"`
	PaymentMethodRequests []PaymentMethod `json:"paymentMethodRequests"`
	StaffRequests         []Staff         `json:"staffRequests"`
}

// OnboardingResult is the data payload of a successful completion.
type OnboardingResult struct {
	TenantID           uuid.UUID `json:"tenantId"`
	GarageName         string    `json:"garageName"`
	PaymentMethodCount int       `json:"paymentMethodCount"`
	StaffCount         int       `json:"staffCount"`
}

type OnboardingStatus struct {
	UserID               uuid.UUID `json:"userId"`
	HasGarage            bool      `json:"hasGarage"`
	HasAddress           bool      `json:"hasAddress"`
	HasPaymentMethods    bool      `json:"hasPaymentMethods"`
	HasStaff             bool      `json:"hasStaff"`
	CompletionPercentage int       `json:"completionPercentage"`
}

// AuthData is the data payload of token-issuing auth endpoints.
type AuthData struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
