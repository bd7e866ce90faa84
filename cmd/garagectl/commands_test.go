package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/garagedesk/internal/account"
	"github.com/gosuda/garagedesk/internal/auth"
	"github.com/gosuda/garagedesk/internal/config"
	"github.com/gosuda/garagedesk/internal/onboarding"
	"github.com/gosuda/garagedesk/internal/server"
	"github.com/gosuda/garagedesk/internal/session"
	"github.com/gosuda/garagedesk/internal/store/memory"
)

const testSecret = "garagectl-test-secret-with-at-least-32-chars"

type otpBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *otpBox) sink(purpose, subject, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.codes == nil {
		b.codes = make(map[string]string)
	}
	b.codes[purpose+":"+subject] = code
}

func (b *otpBox) code(purpose, subject string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[purpose+":"+subject]
}

// cli runs commands against a stub server, sharing one session store across
// runs the way the file backend does between invocations.
type cli struct {
	t     *testing.T
	cfg   *config.Config
	store session.Store
	otps  *otpBox
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	stubCfg := &config.StubConfig{
		Server:    config.ServerConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second},
		JWT:       config.JWTConfig{Secret: testSecret, TokenTTL: time.Hour},
		RateLimit: config.RateLimitConfig{RPS: 100, Burst: 100},
	}
	otps := &otpBox{}
	st := memory.New()
	svc := account.NewService(st.Users(), st.Tenants(), testSecret, time.Hour, account.WithOTPSink(otps.sink))

	srv := httptest.NewServer(server.New(t.Context(), stubCfg, svc).Handler())
	t.Cleanup(srv.Close)

	return &cli{
		t: t,
		cfg: &config.Config{
			API:     config.APIConfig{BaseURL: srv.URL + "/api/v1", Timeout: 5 * time.Second},
			Session: config.SessionConfig{Backend: config.BackendMemory},
		},
		store: session.NewMemoryStore(),
		otps:  otps,
	}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()

	var out bytes.Buffer
	a, err := newAppWithStore(c.cfg, c.store, &out)
	require.NoError(c.t, err)
	defer a.close()

	err = a.dispatch(c.t.Context(), args)
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestCLI_RegisterWhoamiLogout(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out := c.mustRun("register", "-first", "Priya", "-last", "Sharma", "-email", "priya@garage.in",
		"-mobile", "9876543210", "-password", "s3cret-pass")
	assert.Contains(t, out, "Registration successful")
	assert.Contains(t, out, "Priya Sharma <priya@garage.in>")
	assert.Contains(t, out, "Onboarding: pending")

	out = c.mustRun("whoami")
	assert.Contains(t, out, "Priya Sharma")

	c.mustRun("logout")
	_, err := c.run("whoami")
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.Equal(t, "Not signed in. Run 'garagectl login' first.", userMessage(err))
}

func TestCLI_LoginFailureShowsServerMessage(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("register", "-first", "Priya", "-email", "priya@garage.in", "-password", "s3cret-pass")

	_, err := c.run("login", "-email", "priya@garage.in", "-password", "wrong-pass")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", userMessage(err))

	out := c.mustRun("login", "-email", "priya@garage.in", "-password", "s3cret-pass")
	assert.Contains(t, out, "Login successful")
}

func TestCLI_OTPLogin(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("register", "-first", "Priya", "-email", "priya@garage.in", "-mobile", "9876543210", "-password", "s3cret-pass")
	c.mustRun("logout")

	out := c.mustRun("login", "-mobile", "9876543210")
	assert.Contains(t, out, "OTP sent")

	code := c.otps.code("login", "9876543210")
	require.NotEmpty(t, code)

	out = c.mustRun("login", "-mobile", "9876543210", "-code", code)
	assert.Contains(t, out, "Login successful")
}

func TestCLI_PasswordReset(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("register", "-first", "Priya", "-email", "priya@garage.in", "-password", "s3cret-pass")
	c.mustRun("logout")

	out := c.mustRun("forgot-password", "-email", "priya@garage.in")
	assert.Contains(t, out, "If an account exists")

	_, err := c.run("reset-password", "-email", "priya@garage.in", "-code", "000000", "-password", "n3w-secret")
	require.Error(t, err)

	code := c.otps.code("reset", "priya@garage.in")
	require.NotEmpty(t, code)
	out = c.mustRun("reset-password", "-email", "priya@garage.in", "-code", code, "-password", "n3w-secret")
	assert.Contains(t, out, "Password reset successful")

	c.mustRun("login", "-email", "priya@garage.in", "-password", "n3w-secret")
}

func TestCLI_ChangePasswordAndProfile(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("register", "-first", "Priya", "-email", "priya@garage.in", "-password", "s3cret-pass")

	_, err := c.run("change-password", "-current", "nope-nope", "-new", "n3w-secret")
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", userMessage(err))

	out := c.mustRun("change-password", "-current", "s3cret-pass", "-new", "n3w-secret")
	assert.Contains(t, out, "Password changed")

	out = c.mustRun("profile", "-last", "Iyer", "-mobile", "9123456789")
	assert.Contains(t, out, "Profile updated")
	assert.Contains(t, out, "Priya Iyer")
	assert.Contains(t, out, "Mobile: 9123456789")
}

func TestCLI_Theme(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	assert.Equal(t, "light\n", c.mustRun("theme"))
	assert.Equal(t, "dark\n", c.mustRun("theme", "dark"))
	assert.Equal(t, "dark\n", c.mustRun("theme"))

	_, err := c.run("theme", "sepia")
	require.ErrorIs(t, err, errUsage)
}

func TestCLI_Onboard(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("register", "-first", "Priya", "-email", "priya@garage.in", "-password", "s3cret-pass")

	out := c.mustRun("status")
	assert.Contains(t, out, "Onboarding 0% complete")
	assert.Contains(t, out, "Next: Garage Details")

	path := filepath.Join(t.TempDir(), "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDraft), 0o600))

	out = c.mustRun("onboard", "-f", path)
	assert.Contains(t, out, "✓ Garage Details")
	assert.Contains(t, out, "✓ Payment Methods")
	assert.Contains(t, out, "Onboarding completed successfully")
	assert.Contains(t, out, "2 payment methods, 1 staff")

	out = c.mustRun("whoami")
	assert.Contains(t, out, "Onboarding: complete")

	out = c.mustRun("status")
	assert.Contains(t, out, "Onboarding 100% complete")
	assert.NotContains(t, out, "Next:")
}

func TestCLI_OnboardStopsAtInvalidStep(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("register", "-first", "Priya", "-email", "priya@garage.in", "-password", "s3cret-pass")

	path := filepath.Join(t.TempDir(), "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
garage:
  name: Sharma Motors
  businessHours: 9-7
address:
  line1: 12 MG Road
  city: Bengaluru
  state: Karnataka
  pincode: "5600"
`), 0o600))

	out, err := c.run("onboard", "-f", path)
	require.Error(t, err)
	assert.Contains(t, out, "✗ Garage Details")
	assert.Contains(t, out, "pincode")

	out = c.mustRun("whoami")
	assert.Contains(t, out, "Onboarding: pending")
}

func TestCLI_Usage(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out, err := c.run()
	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "onboard")

	_, err = c.run("fly")
	require.ErrorIs(t, err, errUsage)

	_, err = c.run("login", "-email", "priya@garage.in")
	require.ErrorIs(t, err, errUsage)

	_, err = c.run("register", "-h")
	require.NoError(t, err)
}

func TestCLI_Ping(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	assert.Equal(t, "ok\n", c.mustRun("ping"))

	down := &cli{
		t:     t,
		cfg:   &config.Config{API: config.APIConfig{BaseURL: "http://127.0.0.1:1/api/v1", Timeout: time.Second}},
		store: session.NewMemoryStore(),
	}
	_, err := down.run("ping")
	require.Error(t, err)
	assert.Equal(t, "Server unreachable. Please try again later.", userMessage(err))
}

func TestUserMessage_OnboardingFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		failure *onboarding.Failure
		want    string
	}{
		{
			name: "field error names the step",
			failure: &onboarding.Failure{
				Kind:   onboarding.FailureValidation,
				Step:   onboarding.StepGarageRegistration,
				Fields: onboarding.FieldErrors{onboarding.FieldPincode: "Pincode must be 6 digits"},
			},
			want: onboarding.StepGarageRegistration.String() + ": Pincode must be 6 digits",
		},
		{
			name: "step error without fields uses the message",
			failure: &onboarding.Failure{
				Kind:    onboarding.FailureValidation,
				Step:    onboarding.StepWelcome,
				Message: "Finish the earlier steps before completing onboarding",
			},
			want: "Finish the earlier steps before completing onboarding",
		},
		{
			name:    "rejection uses the server message",
			failure: &onboarding.Failure{Kind: onboarding.FailureRejected, Message: "Garage already onboarded"},
			want:    "Garage already onboarded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, userMessage(tt.failure))
		})
	}
}
