package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentMethodType enumerates the payment methods a garage can accept.
type PaymentMethodType string

const (
	PaymentMethodCash         PaymentMethodType = "CASH"
	PaymentMethodUPI          PaymentMethodType = "UPI"
	PaymentMethodCard         PaymentMethodType = "CARD"
	PaymentMethodBankTransfer PaymentMethodType = "BANK_TRANSFER"
)

// PaymentMethodTypes lists every accepted payment method in display order.
func PaymentMethodTypes() []PaymentMethodType {
	return []PaymentMethodType{PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodBankTransfer}
}

func (p PaymentMethodType) Valid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodBankTransfer:
		return true
	default:
		return false
	}
}

// StaffRole enumerates the roles a staff member can hold.
type StaffRole string

const (
	StaffRoleMechanic     StaffRole = "MECHANIC"
	StaffRoleReceptionist StaffRole = "RECEPTIONIST"
	StaffRoleManager      StaffRole = "MANAGER"
)

func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleMechanic, StaffRoleReceptionist, StaffRoleManager:
		return true
	default:
		return false
	}
}

// DefaultCountry is used when an address does not name one.
const DefaultCountry = "India"

type Garage struct {
	GarageName                 string `json:"garageName"`
	BusinessRegistrationNumber string `json:"businessRegistrationNumber,omitempty"`
	GSTNumber                  string `json:"gstNumber,omitempty"`
	LogoURL                    string `json:"logoUrl,omitempty"`
	WebsiteURL                 string `json:"websiteUrl,omitempty"`
	BusinessHours              string `json:"businessHours"`
	HasBranch                  bool   `json:"hasBranch"`
}

type Address struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
}

type PaymentMethod struct {
	PaymentMethod PaymentMethodType `json:"paymentMethod"`
}

type Staff struct {
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName,omitempty"`
	MobileNumber string    `json:"mobileNumber"`
	AadharNumber string    `json:"aadharNumber,omitempty"`
	Role         StaffRole `json:"role"`
}

// Tenant is an activated garage account owned by a single user.
type Tenant struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        uuid.UUID       `json:"ownerId"`
	Garage         Garage          `json:"garage"`
	Address        Address         `json:"address"`
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
	Staff          []Staff         `json:"staff"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type TenantRepository interface {
	// Create stores t atomically. It fails with ErrConflict when the owner
	// already has a tenant or the GST number is taken.
	Create(ctx context.Context, t *Tenant) error
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*Tenant, error)
}
