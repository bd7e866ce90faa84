package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/garagedesk/internal/account"
	"github.com/gosuda/garagedesk/internal/domain"
)

type RegisterInput struct {
	Body struct {
		FirstName    string `json:"firstName" minLength:"1" maxLength:"100" doc:"First name"`
		LastName     string `json:"lastName,omitempty" maxLength:"100" doc:"Last name"`
		Email        string `json:"email" format:"email" maxLength:"255" doc:"User email"`
		MobileNumber string `json:"mobileNumber,omitempty" pattern:"^[0-9]{10}$" doc:"10 digit mobile number"`
		Password     string `json:"password" minLength:"8" maxLength:"128" doc:"Password"` //nolint:gosec // G117: credential DTO
	}
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: credential DTO
	}
}

type EmailInput struct {
	Body struct {
		Email string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
	}
}

type VerifyOTPInput struct {
	Body struct {
		Email string `json:"email" minLength:"3" maxLength:"255"`
		OTP   string `json:"otp" pattern:"^[0-9]{6}$" doc:"6 digit code"`
	}
}

type ResetPasswordInput struct {
	Body struct {
		Email       string `json:"email" minLength:"3" maxLength:"255"`
		OTP         string `json:"otp" pattern:"^[0-9]{6}$"`
		NewPassword string `json:"newPassword" minLength:"8" maxLength:"128"` //nolint:gosec // G117: credential DTO
	}
}

type MobileInput struct {
	Body struct {
		MobileNumber string `json:"mobileNumber" pattern:"^[0-9]{10}$" doc:"10 digit mobile number"`
	}
}

type LoginWithOTPInput struct {
	Body struct {
		MobileNumber string `json:"mobileNumber" pattern:"^[0-9]{10}$"`
		OTP          string `json:"otp" pattern:"^[0-9]{6}$"`
	}
}

// RegisterAuthRoutes mounts the unauthenticated auth endpoints. Every response
// is an envelope; failures carry success=false and a matching status.
func RegisterAuthRoutes(api huma.API, svc AccountService) {
	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Register a new account",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
		data, err := svc.Register(ctx, account.RegisterInput{
			FirstName:    input.Body.FirstName,
			LastName:     input.Body.LastName,
			Email:        input.Body.Email,
			MobileNumber: input.Body.MobileNumber,
			Password:     input.Body.Password,
		})
		switch {
		case errors.Is(err, account.ErrUserAlreadyExists):
			return fail[domain.AuthData](http.StatusConflict, "An account with this email already exists"), nil
		case errors.Is(err, account.ErrMobileTaken):
			return fail[domain.AuthData](http.StatusConflict, "Mobile number already registered"), nil
		case err != nil:
			return nil, huma.Error500InternalServerError("failed to register user", err)
		}
		return succeed("Registration successful", data), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
		data, err := svc.Login(ctx, input.Body.Email, input.Body.Password)
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			return fail[domain.AuthData](http.StatusUnauthorized, "Invalid email or password"), nil
		case err != nil:
			return nil, huma.Error500InternalServerError("login failed", err)
		}
		return succeed("Login successful", data), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "forgot-password",
		Method:      http.MethodPost,
		Path:        "/auth/forgot-password",
		Summary:     "Send a password reset code",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *EmailInput) (*AuthOutput, error) {
		if err := svc.ForgotPassword(ctx, input.Body.Email); err != nil {
			return nil, huma.Error500InternalServerError("failed to send reset code", err)
		}
		return succeed[domain.AuthData]("If an account exists for this email, an OTP has been sent", nil), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "verify-otp",
		Method:      http.MethodPost,
		Path:        "/auth/verify-otp",
		Summary:     "Check a password reset code",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *VerifyOTPInput) (*AuthOutput, error) {
		err := svc.VerifyOTP(ctx, input.Body.Email, input.Body.OTP)
		switch {
		case errors.Is(err, account.ErrInvalidOTP):
			return fail[domain.AuthData](http.StatusBadRequest, "Invalid or expired OTP"), nil
		case err != nil:
			return nil, huma.Error500InternalServerError("failed to verify code", err)
		}
		return succeed[domain.AuthData]("OTP verified", nil), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-password",
		Method:      http.MethodPost,
		Path:        "/auth/reset-password",
		Summary:     "Set a new password with a reset code",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *ResetPasswordInput) (*AuthOutput, error) {
		err := svc.ResetPassword(ctx, input.Body.Email, input.Body.OTP, input.Body.NewPassword)
		switch {
		case errors.Is(err, account.ErrInvalidOTP), errors.Is(err, account.ErrUserNotFound):
			return fail[domain.AuthData](http.StatusBadRequest, "Invalid or expired OTP"), nil
		case err != nil:
			return nil, huma.Error500InternalServerError("failed to reset password", err)
		}
		return succeed[domain.AuthData]("Password reset successful", nil), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "send-login-otp",
		Method:      http.MethodPost,
		Path:        "/auth/send-login-otp",
		Summary:     "Send a login code to a mobile number",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *MobileInput) (*AuthOutput, error) {
		err := svc.SendLoginOTP(ctx, input.Body.MobileNumber)
		switch {
		case errors.Is(err, account.ErrUserNotFound):
			return fail[domain.AuthData](http.StatusNotFound, "No account found for this mobile number"), nil
		case err != nil:
			return nil, huma.Error500InternalServerError("failed to send login code", err)
		}
		return succeed[domain.AuthData]("OTP sent", nil), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login-with-otp",
		Method:      http.MethodPost,
		Path:        "/auth/login-with-otp",
		Summary:     "Login with a mobile number and code",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginWithOTPInput) (*AuthOutput, error) {
		data, err := svc.LoginWithOTP(ctx, input.Body.MobileNumber, input.Body.OTP)
		switch {
		case errors.Is(err, account.ErrInvalidOTP), errors.Is(err, account.ErrUserNotFound):
			return fail[domain.AuthData](http.StatusUnauthorized, "Invalid or expired OTP"), nil
		case err != nil:
			return nil, huma.Error500InternalServerError("login failed", err)
		}
		return succeed("Login successful", data), nil
	})
}
