package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gosuda/garagedesk/internal/domain"
	"github.com/gosuda/garagedesk/internal/onboarding"
)

// draftFile is the on-disk form of an onboarding draft.
//
//	garage:
//	  name: Sharma Motors
//	  businessHours: Mon-Sat 9am-7pm
//	address:
//	  line1: 12 MG Road
//	  city: Bengaluru
//	  state: Karnataka
//	  pincode: "560001"
//	paymentMethods: [CASH, UPI]
//	staff:
//	  - firstName: Arjun
//	    mobileNumber: "9876543210"
//	    role: MECHANIC
type draftFile struct {
	Garage struct {
		Name               string `yaml:"name"`
		RegistrationNumber string `yaml:"registrationNumber"`
		GSTNumber          string `yaml:"gstNumber"`
		LogoURL            string `yaml:"logoUrl"`
		WebsiteURL         string `yaml:"websiteUrl"`
		BusinessHours      string `yaml:"businessHours"`
		HasBranch          bool   `yaml:"hasBranch"`
	} `yaml:"garage"`

	Address struct {
		Line1   string `yaml:"line1"`
		Line2   string `yaml:"line2"`
		City    string `yaml:"city"`
		State   string `yaml:"state"`
		Pincode string `yaml:"pincode"`
		Country string `yaml:"country"`
	} `yaml:"address"`

	PaymentMethods []string `yaml:"paymentMethods"`

	Staff []struct {
		FirstName    string `yaml:"firstName"`
		LastName     string `yaml:"lastName"`
		MobileNumber string `yaml:"mobileNumber"`
		AadharNumber string `yaml:"aadharNumber"`
		Role         string `yaml:"role"`
	} `yaml:"staff"`
}

func loadDraftFile(path string) (*draftFile, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is the operator's own draft
	if err != nil {
		return nil, fmt.Errorf("open draft: %w", err)
	}
	defer f.Close()

	df, err := parseDraft(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return df, nil
}

func parseDraft(r io.Reader) (*draftFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var df draftFile
	if err := dec.Decode(&df); err != nil {
		if errors.Is(err, io.EOF) {
			return &df, nil
		}
		return nil, err
	}
	return &df, nil
}

// staffError reports a staff entry the draft refused.
type staffError struct {
	index  int
	fields onboarding.FieldErrors
}

func (e *staffError) Error() string {
	return fmt.Sprintf("staff member %d: %s", e.index+1, e.fields.First())
}

// apply writes the file into d. Payment methods are upper-cased so "upi"
// and "UPI" mean the same thing; anything unknown is left for step
// validation to report. Staff entries are checked as they are added.
func (df *draftFile) apply(d *onboarding.Draft) error {
	g := df.Garage
	d.UpdateGarage(onboarding.GaragePatch{
		GarageName:                 &g.Name,
		BusinessRegistrationNumber: &g.RegistrationNumber,
		GSTNumber:                  &g.GSTNumber,
		LogoURL:                    &g.LogoURL,
		WebsiteURL:                 &g.WebsiteURL,
		BusinessHours:              &g.BusinessHours,
		HasBranch:                  &g.HasBranch,
	})

	a := df.Address
	country := a.Country
	if strings.TrimSpace(country) == "" {
		country = domain.DefaultCountry
	}
	d.UpdateAddress(onboarding.AddressPatch{
		AddressLine1: &a.Line1,
		AddressLine2: &a.Line2,
		City:         &a.City,
		State:        &a.State,
		Pincode:      &a.Pincode,
		Country:      &country,
	})

	for _, m := range df.PaymentMethods {
		d.AddPaymentMethod(domain.PaymentMethodType(strings.ToUpper(strings.TrimSpace(m))))
	}

	for i, s := range df.Staff {
		errs := d.AddStaff(onboarding.StaffMember{
			FirstName:    s.FirstName,
			LastName:     s.LastName,
			MobileNumber: s.MobileNumber,
			AadharNumber: s.AadharNumber,
			Role:         domain.StaffRole(strings.ToUpper(strings.TrimSpace(s.Role))),
		})
		if len(errs) > 0 {
			return &staffError{index: i, fields: errs}
		}
	}
	return nil
}
