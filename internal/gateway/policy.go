package gateway

// Strategy decides how a response is interpreted.
type Strategy int

const (
	// StrategyStatus fails the call on any non-2xx status.
	StrategyStatus Strategy = iota
	// StrategyEnvelope always decodes the body, whatever the status, because
	// the endpoint reports success inside a {success, message} envelope.
	StrategyEnvelope
)

func (s Strategy) String() string {
	switch s {
	case StrategyStatus:
		return "status"
	case StrategyEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// API paths, relative to the configured base URL.
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathForgotPassword = "/auth/forgot-password"
	PathVerifyOTP      = "/auth/verify-otp"
	PathResetPassword  = "/auth/reset-password"
	PathSendLoginOTP   = "/auth/send-login-otp"
	PathLoginWithOTP   = "/auth/login-with-otp"
	PathChangePassword = "/auth/change-password"
	PathUpdateProfile  = "/auth/update-profile"
	PathMe             = "/auth/me"

	PathHealth             = "/health"
	PathOnboardingStatus   = "/onboarding/status"
	PathOnboardingComplete = "/onboarding/complete"
)

// Policy maps exact endpoint paths to a response strategy. Paths missing
// from the table use StrategyStatus.
type Policy map[string]Strategy

// DefaultPolicy classifies the auth-family endpoints as envelope endpoints.
func DefaultPolicy() Policy {
	return Policy{
		PathLogin:          StrategyEnvelope,
		PathRegister:       StrategyEnvelope,
		PathForgotPassword: StrategyEnvelope,
		PathVerifyOTP:      StrategyEnvelope,
		PathResetPassword:  StrategyEnvelope,
		PathSendLoginOTP:   StrategyEnvelope,
		PathLoginWithOTP:   StrategyEnvelope,
		PathChangePassword: StrategyEnvelope,
		PathUpdateProfile:  StrategyEnvelope,
	}
}

func (p Policy) StrategyFor(path string) Strategy {
	if s, ok := p[path]; ok {
		return s
	}
	return StrategyStatus
}
