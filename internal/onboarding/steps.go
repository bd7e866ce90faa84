// Package onboarding holds the garage onboarding wizard: the in-memory draft,
// the step cursor and the single completion call that activates a tenant.
package onboarding

// Step is a position in the fixed onboarding order.
type Step int

const (
	StepWelcome Step = iota
	StepGarageRegistration
	StepPaymentConfiguration
	StepStaffRegistration
	StepComplete
)

var stepNames = [...]string{
	StepWelcome:              "WELCOME",
	StepGarageRegistration:   "GARAGE_REGISTRATION",
	StepPaymentConfiguration: "PAYMENT_CONFIGURATION",
	StepStaffRegistration:    "STAFF_REGISTRATION",
	StepComplete:             "COMPLETE",
}

func (s Step) String() string {
	if s.Valid() {
		return stepNames[s]
	}
	return "UNKNOWN"
}

func (s Step) Valid() bool {
	return s >= StepWelcome && s <= StepComplete
}

// Order returns every step from first to last.
func Order() []Step {
	return []Step{StepWelcome, StepGarageRegistration, StepPaymentConfiguration, StepStaffRegistration, StepComplete}
}

// StepConfig is the read-only view of one step for rendering.
type StepConfig struct {
	Step        Step
	Title       string
	Description string
	IsRequired  bool
	IsCompleted bool
}

var stepTable = [...]struct {
	title       string
	description string
	required    bool
}{
	StepWelcome:              {"Welcome", "Set up your garage in a few steps", false},
	StepGarageRegistration:   {"Garage Details", "Business information and address", true},
	StepPaymentConfiguration: {"Payment Methods", "Choose how customers can pay", true},
	StepStaffRegistration:    {"Staff", "Add the people who work at your garage", true},
	StepComplete:             {"All Set", "Review and activate your account", false},
}

// StepsAt derives the step list for a cursor position. A step counts as
// completed once the cursor has moved past it, whatever its data looks like now.
func StepsAt(cursor Step) []StepConfig {
	steps := Order()
	out := make([]StepConfig, 0, len(steps))
	for _, s := range steps {
		row := stepTable[s]
		out = append(out, StepConfig{
			Step:        s,
			Title:       row.title,
			Description: row.description,
			IsRequired:  row.required,
			IsCompleted: s < cursor,
		})
	}
	return out
}

// CanProceed reports whether data allows leaving step in the forward
// direction. It never touches the network.
func CanProceed(step Step, data Data) bool {
	switch step {
	case StepGarageRegistration:
		g, a := data.Garage, data.Address
		return !blank(g.GarageName) &&
			!blank(g.BusinessHours) &&
			!blank(a.AddressLine1) &&
			!blank(a.City) &&
			!blank(a.State) &&
			isDigits(a.Pincode, pincodeLen)
	case StepPaymentConfiguration:
		return len(data.PaymentMethods) > 0
	case StepStaffRegistration:
		return len(data.Staff) > 0
	default:
		return true
	}
}

// ResumeStep maps a server-side status to the step an owner should resume at.
func ResumeStep(s OnboardingStatus) Step {
	switch {
	case !s.HasGarage || !s.HasAddress:
		return StepGarageRegistration
	case !s.HasPaymentMethods:
		return StepPaymentConfiguration
	case !s.HasStaff:
		return StepStaffRegistration
	default:
		return StepComplete
	}
}
