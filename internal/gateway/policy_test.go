package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/garagedesk/internal/gateway"
)

func TestDefaultPolicy(t *testing.T) {
	t.Parallel()

	p := gateway.DefaultPolicy()

	envelopes := []string{
		gateway.PathLogin,
		gateway.PathRegister,
		gateway.PathForgotPassword,
		gateway.PathVerifyOTP,
		gateway.PathResetPassword,
		gateway.PathSendLoginOTP,
		gateway.PathLoginWithOTP,
		gateway.PathChangePassword,
		gateway.PathUpdateProfile,
	}
	for _, path := range envelopes {
		assert.Equal(t, gateway.StrategyEnvelope, p.StrategyFor(path), path)
	}

	statuses := []string{
		gateway.PathMe,
		gateway.PathHealth,
		gateway.PathOnboardingStatus,
		gateway.PathOnboardingComplete,
		"/garages/1",
	}
	for _, path := range statuses {
		assert.Equal(t, gateway.StrategyStatus, p.StrategyFor(path), path)
	}
}

func TestPolicy_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	p := gateway.DefaultPolicy()

	// Substrings and suffixes of auth paths are not auth endpoints.
	assert.Equal(t, gateway.StrategyStatus, p.StrategyFor("/auth/login/history"))
	assert.Equal(t, gateway.StrategyStatus, p.StrategyFor("/admin/auth/login"))
}

func TestStrategy_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "status", gateway.StrategyStatus.String())
	assert.Equal(t, "envelope", gateway.StrategyEnvelope.String())
	assert.Equal(t, "unknown", gateway.Strategy(9).String())
}
