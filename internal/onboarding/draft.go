package onboarding

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/garagedesk/internal/domain"
)

// UserInfo is the identity snapshot shown during onboarding. It is not
// submitted on completion.
type UserInfo struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	MobileNumber string
}

type PaymentMethodEntry struct {
	Method domain.PaymentMethodType
}

type StaffMember struct {
	FirstName    string
	LastName     string
	MobileNumber string
	AadharNumber string
	Role         domain.StaffRole
}

// Data is a point-in-time copy of the draft.
type Data struct {
	User           UserInfo
	Garage         domain.Garage
	Address        domain.Address
	PaymentMethods []PaymentMethodEntry
	Staff          []StaffMember
}

// Patches merge only their non-nil fields.
type (
	UserPatch struct {
		ID           *uuid.UUID
		FirstName    *string
		LastName     *string
		Email        *string
		MobileNumber *string
	}

	GaragePatch struct {
		GarageName                 *string
		BusinessRegistrationNumber *string
		GSTNumber                  *string
		LogoURL                    *string
		WebsiteURL                 *string
		BusinessHours              *string
		HasBranch                  *bool
	}

	AddressPatch struct {
		AddressLine1 *string
		AddressLine2 *string
		City         *string
		State        *string
		Pincode      *string
		Country      *string
	}
)

// Draft accumulates onboarding data in memory. Writes are never validated;
// validation happens when the controller gates or submits.
type Draft struct {
	mu   sync.RWMutex
	data Data
}

func NewDraft() *Draft {
	return &Draft{data: emptyData()}
}

// UserFrom seeds a patch from a signed-in user.
func UserFrom(u *domain.User) UserPatch {
	return UserPatch{
		ID:           &u.ID,
		FirstName:    &u.FirstName,
		LastName:     &u.LastName,
		Email:        &u.Email,
		MobileNumber: &u.MobileNumber,
	}
}

func (d *Draft) UpdateUser(p UserPatch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := &d.data.User
	if p.ID != nil {
		u.ID = *p.ID
	}
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Email, p.Email)
	set(&u.MobileNumber, p.MobileNumber)
}

func (d *Draft) UpdateGarage(p GaragePatch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := &d.data.Garage
	set(&g.GarageName, p.GarageName)
	set(&g.BusinessRegistrationNumber, p.BusinessRegistrationNumber)
	set(&g.GSTNumber, p.GSTNumber)
	set(&g.LogoURL, p.LogoURL)
	set(&g.WebsiteURL, p.WebsiteURL)
	set(&g.BusinessHours, p.BusinessHours)
	set(&g.HasBranch, p.HasBranch)
}

func (d *Draft) UpdateAddress(p AddressPatch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := &d.data.Address
	set(&a.AddressLine1, p.AddressLine1)
	set(&a.AddressLine2, p.AddressLine2)
	set(&a.City, p.City)
	set(&a.State, p.State)
	set(&a.Pincode, p.Pincode)
	set(&a.Country, p.Country)
}

// SetPaymentMethods replaces the whole list.
func (d *Draft) SetPaymentMethods(methods []PaymentMethodEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.PaymentMethods = slices.Clone(methods)
}

// SetStaff replaces the whole list.
func (d *Draft) SetStaff(staff []StaffMember) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.Staff = slices.Clone(staff)
}

// AddPaymentMethod appends m unless it is already selected. It reports
// whether the list changed.
func (d *Draft) AddPaymentMethod(m domain.PaymentMethodType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if slices.ContainsFunc(d.data.PaymentMethods, func(e PaymentMethodEntry) bool { return e.Method == m }) {
		return false
	}
	d.data.PaymentMethods = append(d.data.PaymentMethods, PaymentMethodEntry{Method: m})
	return true
}

func (d *Draft) RemovePaymentMethod(m domain.PaymentMethodType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	before := len(d.data.PaymentMethods)
	d.data.PaymentMethods = slices.DeleteFunc(d.data.PaymentMethods, func(e PaymentMethodEntry) bool { return e.Method == m })
	return len(d.data.PaymentMethods) != before
}

// AddStaff validates s and appends it. Nothing is added when the returned
// FieldErrors is non-empty.
func (d *Draft) AddStaff(s StaffMember) FieldErrors {
	if errs := ValidateStaffMember(s); len(errs) > 0 {
		return errs
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.Staff = append(d.data.Staff, s)
	return nil
}

func (d *Draft) RemoveStaff(index int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.data.Staff) {
		return false
	}
	d.data.Staff = slices.Delete(d.data.Staff, index, index+1)
	return true
}

// Snapshot returns a deep copy of the draft.
func (d *Draft) Snapshot() Data {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := d.data
	out.PaymentMethods = slices.Clone(d.data.PaymentMethods)
	out.Staff = slices.Clone(d.data.Staff)
	return out
}

func (d *Draft) CanProceed(step Step) bool {
	return CanProceed(step, d.Snapshot())
}

// Reset restores the initial empty shape.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = emptyData()
}

func emptyData() Data {
	return Data{
		Address:        domain.Address{Country: domain.DefaultCountry},
		PaymentMethods: []PaymentMethodEntry{},
		Staff:          []StaffMember{},
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
