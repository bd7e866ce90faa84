package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/garagedesk/internal/auth"
	"github.com/gosuda/garagedesk/internal/onboarding"
	"github.com/gosuda/garagedesk/internal/session"
)

type command struct {
	name    string
	summary string
	// needsSession restores the stored session before run.
	needsSession bool
	run          func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{name: "register", summary: "create an owner account", run: cmdRegister},
	{name: "login", summary: "sign in with a password or a mobile OTP", run: cmdLogin},
	{name: "logout", summary: "forget the stored session", run: cmdLogout},
	{name: "whoami", summary: "show the signed-in owner", needsSession: true, run: cmdWhoami},
	{name: "forgot-password", summary: "email a password reset code", run: cmdForgotPassword},
	{name: "reset-password", summary: "set a new password with a reset code", run: cmdResetPassword},
	{name: "change-password", summary: "change the password of the signed-in owner", needsSession: true, run: cmdChangePassword},
	{name: "profile", summary: "update name or mobile number", needsSession: true, run: cmdProfile},
	{name: "theme", summary: "show or set the display theme", run: cmdTheme},
	{name: "ping", summary: "check that the API is reachable", run: cmdPing},
	{name: "status", summary: "show onboarding progress", needsSession: true, run: cmdStatus},
	{name: "onboard", summary: "complete garage onboarding from a YAML draft", needsSession: true, run: cmdOnboard},
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}
	name, rest := args[0], args[1:]
	if name == "help" || name == "-h" || name == "--help" {
		a.usage()
		return nil
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if c.needsSession {
			if err := a.restore(ctx); err != nil {
				return err
			}
		}
		err := c.run(ctx, a, rest)
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	a.usage()
	return fmt.Errorf("%w: unknown command %q", errUsage, name)
}

func (a *app) usage() {
	fmt.Fprintln(a.out, "usage: garagectl <command> [flags]")
	fmt.Fprintln(a.out)
	for _, c := range commands {
		fmt.Fprintf(a.out, "  %-16s %s\n", c.name, c.summary)
	}
}

// restore loads the stored session and requires it to be valid.
func (a *app) restore(ctx context.Context) error {
	s, err := a.manager.Restore(ctx)
	if err != nil {
		return err
	}
	if !s.Authenticated {
		return auth.ErrNotAuthenticated
	}
	return nil
}

func newFlags(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("garagectl "+name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// required reports the first empty flag value by name.
func required(fs *flag.FlagSet, names ...string) error {
	for _, n := range names {
		if f := fs.Lookup(n); f != nil && strings.TrimSpace(f.Value.String()) == "" {
			return fmt.Errorf("%w: -%s is required", errUsage, n)
		}
	}
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register", a.out)
	var in auth.RegisterInput
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.MobileNumber, "mobile", "", "10 digit mobile number")
	fs.StringVar(&in.Password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "first", "email", "password"); err != nil {
		return err
	}

	env, err := a.manager.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, env.Message)
	return a.printUser()
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login", a.out)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	mobile := fs.String("mobile", "", "mobile number for OTP sign in")
	code := fs.String("code", "", "OTP received on the mobile number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		env *auth.Envelope
		err error
	)
	switch {
	case *mobile != "" && *code == "":
		env, err = a.manager.SendLoginOTP(ctx, *mobile)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, env.Message)
		fmt.Fprintf(a.out, "Run 'garagectl login -mobile %s -code <otp>' to finish.\n", *mobile)
		return nil
	case *mobile != "":
		env, err = a.manager.LoginWithOTP(ctx, *mobile, *code)
	default:
		if err := required(fs, "email", "password"); err != nil {
			return err
		}
		env, err = a.manager.Login(ctx, *email, *password)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, env.Message)
	return a.printUser()
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.manager.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	return a.printUser()
}

func cmdForgotPassword(ctx context.Context, a *app, args []string) error {
	fs := newFlags("forgot-password", a.out)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "email"); err != nil {
		return err
	}

	env, err := a.manager.ForgotPassword(ctx, *email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, env.Message)
	return nil
}

// cmdResetPassword checks the code first so a typo is reported before the
// new password is sent.
func cmdResetPassword(ctx context.Context, a *app, args []string) error {
	fs := newFlags("reset-password", a.out)
	email := fs.String("email", "", "account email")
	code := fs.String("code", "", "reset code")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "email", "code", "password"); err != nil {
		return err
	}

	if _, err := a.manager.VerifyOTP(ctx, *email, *code); err != nil {
		return err
	}
	env, err := a.manager.ResetPassword(ctx, *email, *code, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, env.Message)
	return nil
}

func cmdChangePassword(ctx context.Context, a *app, args []string) error {
	fs := newFlags("change-password", a.out)
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "current", "new"); err != nil {
		return err
	}

	env, err := a.manager.ChangePassword(ctx, *current, *next)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, env.Message)
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	fs := newFlags("profile", a.out)
	var in auth.ProfileUpdate
	fs.StringVar(&in.FirstName, "first", "", "new first name")
	fs.StringVar(&in.LastName, "last", "", "new last name")
	fs.StringVar(&in.MobileNumber, "mobile", "", "new mobile number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if in == (auth.ProfileUpdate{}) {
		return a.printUser()
	}

	env, err := a.manager.UpdateProfile(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, env.Message)
	return a.printUser()
}

func cmdTheme(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, a.prefs.Theme(ctx))
		return nil
	}

	theme, err := session.ParseTheme(args[0])
	if err != nil {
		return fmt.Errorf("%w: theme must be light or dark", errUsage)
	}
	if err := a.prefs.SetTheme(ctx, theme); err != nil {
		return err
	}
	fmt.Fprintln(a.out, theme)
	return nil
}

func cmdPing(ctx context.Context, a *app, _ []string) error {
	if err := onboarding.NewGateway(a.api).Ping(ctx); err != nil {
		log.Debug().Err(err).Msg("ping failed")
		return errors.New(onboarding.UnreachableMessage)
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func cmdStatus(ctx context.Context, a *app, _ []string) error {
	status, err := onboarding.NewGateway(a.api).Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Onboarding %d%% complete\n", status.CompletionPercentage)
	fmt.Fprintf(a.out, "  garage          %s\n", mark(status.HasGarage))
	fmt.Fprintf(a.out, "  address         %s\n", mark(status.HasAddress))
	fmt.Fprintf(a.out, "  payment methods %s\n", mark(status.HasPaymentMethods))
	fmt.Fprintf(a.out, "  staff           %s\n", mark(status.HasStaff))

	if next := onboarding.ResumeStep(*status); next != onboarding.StepComplete {
		fmt.Fprintf(a.out, "Next: %s\n", stepTitle(next))
	}
	return nil
}

// cmdOnboard loads a draft, walks the wizard steps with it and submits.
// A step that does not pass stops the walk and lists its field messages.
func cmdOnboard(ctx context.Context, a *app, args []string) error {
	fs := newFlags("onboard", a.out)
	path := fs.String("f", "", "YAML draft file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "f"); err != nil {
		return err
	}

	df, err := loadDraftFile(*path)
	if err != nil {
		return err
	}

	ctrl := onboarding.NewController(onboarding.NewGateway(a.api), onboarding.WithOnboardedMarker(a.manager))
	if u := a.manager.Session().User; u != nil {
		ctrl.Draft().UpdateUser(onboarding.UserFrom(u))
	}
	if err := df.apply(ctrl.Draft()); err != nil {
		return err
	}

	for ctrl.Current() != onboarding.StepStaffRegistration {
		step := ctrl.Current()
		if !ctrl.Next() {
			errs := onboarding.Validate(step, ctrl.Draft().Snapshot())
			a.printFieldErrors(step, errs)
			return fmt.Errorf("%s: %s", stepTitle(step), errs.First())
		}
		if step != onboarding.StepWelcome {
			fmt.Fprintf(a.out, "✓ %s\n", stepTitle(step))
		}
	}

	res, err := ctrl.Complete(ctx)
	if err != nil {
		var failure *onboarding.Failure
		if errors.As(err, &failure) && failure.Kind == onboarding.FailureValidation {
			a.printFieldErrors(failure.Step, failure.Fields)
		}
		return err
	}
	fmt.Fprintf(a.out, "✓ %s\n", stepTitle(onboarding.StepStaffRegistration))

	fmt.Fprintln(a.out, res.Message)
	if d := res.Data; d != nil {
		fmt.Fprintf(a.out, "Garage %s (tenant %s): %d payment methods, %d staff\n",
			d.GarageName, d.TenantID, d.PaymentMethodCount, d.StaffCount)
	}
	return nil
}

func (a *app) printUser() error {
	s := a.manager.Session()
	if !s.Authenticated || s.User == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	u := s.User
	fmt.Fprintf(a.out, "%s <%s>\n", u.FullName(), u.Email)
	if u.MobileNumber != "" {
		fmt.Fprintf(a.out, "Mobile: %s\n", u.MobileNumber)
	}
	if u.OnboardingCompleted {
		fmt.Fprintln(a.out, "Onboarding: complete")
	} else {
		fmt.Fprintln(a.out, "Onboarding: pending (run 'garagectl onboard -f draft.yaml')")
	}
	return nil
}

func (a *app) printFieldErrors(step onboarding.Step, errs onboarding.FieldErrors) {
	fmt.Fprintf(a.out, "✗ %s\n", stepTitle(step))
	for _, f := range onboarding.StepFields(step) {
		if msg, ok := errs[f]; ok {
			fmt.Fprintf(a.out, "    %-15s %s\n", f, msg)
		}
	}
}

func stepTitle(step onboarding.Step) string {
	for _, sc := range onboarding.StepsAt(onboarding.StepWelcome) {
		if sc.Step == step {
			return sc.Title
		}
	}
	return step.String()
}

func mark(done bool) string {
	if done {
		return "done"
	}
	return "missing"
}
