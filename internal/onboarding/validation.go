package onboarding

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	pincodeLen = 6
	mobileLen  = 10
	aadharLen  = 12
	gstLen     = 15
)

// Field names a form input that can carry a validation message.
type Field string

const (
	FieldGarageName     Field = "garageName"
	FieldBusinessHours  Field = "businessHours"
	FieldGSTNumber      Field = "gstNumber"
	FieldWebsiteURL     Field = "websiteUrl"
	FieldAddressLine1   Field = "addressLine1"
	FieldCity           Field = "city"
	FieldState          Field = "state"
	FieldPincode        Field = "pincode"
	FieldPaymentMethods Field = "paymentMethods"
	FieldStaff          Field = "staff"
	FieldFirstName      Field = "firstName"
	FieldMobileNumber   Field = "mobileNumber"
	FieldAadharNumber   Field = "aadharNumber"
	FieldRole           Field = "role"
)

var fieldOrder = []Field{
	FieldGarageName, FieldBusinessHours, FieldGSTNumber, FieldWebsiteURL,
	FieldAddressLine1, FieldCity, FieldState, FieldPincode,
	FieldPaymentMethods, FieldStaff,
	FieldFirstName, FieldMobileNumber, FieldAadharNumber, FieldRole,
}

// FieldErrors maps a field to its message. Absent keys are valid.
type FieldErrors map[Field]string

// StepFields lists the fields a step can report on.
func StepFields(step Step) []Field {
	switch step {
	case StepGarageRegistration:
		return []Field{
			FieldGarageName, FieldBusinessHours, FieldGSTNumber, FieldWebsiteURL,
			FieldAddressLine1, FieldCity, FieldState, FieldPincode,
		}
	case StepPaymentConfiguration:
		return []Field{FieldPaymentMethods}
	case StepStaffRegistration:
		return []Field{FieldStaff}
	default:
		return nil
	}
}

// StaffFields lists the fields of a single staff member form.
func StaffFields() []Field {
	return []Field{FieldFirstName, FieldMobileNumber, FieldAadharNumber, FieldRole}
}

// Validate checks the fields of step. It is stricter than CanProceed: it also
// checks optional fields that were filled in.
func Validate(step Step, data Data) FieldErrors {
	errs := FieldErrors{}

	switch step {
	case StepGarageRegistration:
		g, a := data.Garage, data.Address
		require(errs, FieldGarageName, g.GarageName, "Garage name is required")
		require(errs, FieldBusinessHours, g.BusinessHours, "Business hours are required")
		if gst := strings.TrimSpace(g.GSTNumber); gst != "" && !isAlnum(gst, gstLen) {
			errs[FieldGSTNumber] = fmt.Sprintf("GST number must be %d letters or digits", gstLen)
		}
		if site := strings.TrimSpace(g.WebsiteURL); site != "" && !validURL(site) {
			errs[FieldWebsiteURL] = "Website must be a valid http(s) URL"
		}
		require(errs, FieldAddressLine1, a.AddressLine1, "Address line 1 is required")
		require(errs, FieldCity, a.City, "City is required")
		require(errs, FieldState, a.State, "State is required")
		if !isDigits(a.Pincode, pincodeLen) {
			errs[FieldPincode] = fmt.Sprintf("Pincode must be %d digits", pincodeLen)
		}

	case StepPaymentConfiguration:
		if len(data.PaymentMethods) == 0 {
			errs[FieldPaymentMethods] = "Select at least one payment method"
			break
		}
		for _, m := range data.PaymentMethods {
			if !m.Method.Valid() {
				errs[FieldPaymentMethods] = fmt.Sprintf("Unknown payment method %q", m.Method)
				break
			}
		}

	case StepStaffRegistration:
		if len(data.Staff) == 0 {
			errs[FieldStaff] = "Add at least one staff member"
			break
		}
		for i, s := range data.Staff {
			if member := ValidateStaffMember(s); len(member) > 0 {
				errs[FieldStaff] = fmt.Sprintf("Staff member %d: %s", i+1, member.First())
				break
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateStaffMember checks one staff entry before it joins the list.
func ValidateStaffMember(s StaffMember) FieldErrors {
	errs := FieldErrors{}
	require(errs, FieldFirstName, s.FirstName, "First name is required")
	if !isDigits(s.MobileNumber, mobileLen) {
		errs[FieldMobileNumber] = fmt.Sprintf("Mobile number must be %d digits", mobileLen)
	}
	if s.AadharNumber != "" && !isDigits(s.AadharNumber, aadharLen) {
		errs[FieldAadharNumber] = fmt.Sprintf("Aadhar number must be %d digits", aadharLen)
	}
	if !s.Role.Valid() {
		errs[FieldRole] = "Select a role"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// First returns a message in field declaration order, or "" when empty.
func (e FieldErrors) First() string {
	for _, f := range fieldOrder {
		if msg, ok := e[f]; ok {
			return msg
		}
	}
	for _, msg := range e {
		return msg
	}
	return ""
}

// validateAll checks every gated step in order and stops at the first one
// that fails.
func validateAll(data Data) (Step, FieldErrors) {
	for _, s := range []Step{StepGarageRegistration, StepPaymentConfiguration, StepStaffRegistration} {
		if errs := Validate(s, data); len(errs) > 0 {
			return s, errs
		}
	}
	return StepComplete, nil
}

func require(errs FieldErrors, f Field, v, msg string) {
	if blank(v) {
		errs[f] = msg
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlnum(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := range len(s) {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
