package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/garagedesk/internal/account"
	"github.com/gosuda/garagedesk/internal/domain"
)

type MeOutput struct {
	Body *domain.User
}

type ChangePasswordInput struct {
	Body struct {
		CurrentPassword string `json:"currentPassword" minLength:"1" maxLength:"128"` //nolint:gosec // G117: credential DTO
		NewPassword     string `json:"newPassword" minLength:"8" maxLength:"128"`     //nolint:gosec // G117: credential DTO
	}
}

type UpdateProfileInput struct {
	Body struct {
		FirstName    string `json:"firstName,omitempty" maxLength:"100"`
		LastName     string `json:"lastName,omitempty" maxLength:"100"`
		MobileNumber string `json:"mobileNumber,omitempty" pattern:"^[0-9]{10}$"`
	}
}

// RegisterProfileRoutes mounts endpoints that act on the signed-in user.
func RegisterProfileRoutes(api huma.API, svc AccountService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Get the signed-in user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*MeOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		user, err := svc.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, account.ErrUserNotFound) {
				return nil, huma.Error401Unauthorized(sessionExpired)
			}
			return nil, huma.Error500InternalServerError("failed to get user", err)
		}
		return &MeOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-password",
		Method:      http.MethodPost,
		Path:        "/auth/change-password",
		Summary:     "Change the password of the signed-in user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *ChangePasswordInput) (*AuthOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		err = svc.ChangePassword(ctx, userID, input.Body.CurrentPassword, input.Body.NewPassword)
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			return fail[domain.AuthData](http.StatusBadRequest, "Current password is incorrect"), nil
		case errors.Is(err, account.ErrUserNotFound):
			return fail[domain.AuthData](http.StatusUnauthorized, sessionExpired), nil
		case err != nil:
			return nil, huma.Error500InternalServerError("failed to change password", err)
		}
		return succeed[domain.AuthData]("Password changed", nil), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPost,
		Path:        "/auth/update-profile",
		Summary:     "Edit the signed-in user's profile",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *UpdateProfileInput) (*AuthOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		user, err := svc.UpdateProfile(ctx, userID, account.ProfileUpdate{
			FirstName:    input.Body.FirstName,
			LastName:     input.Body.LastName,
			MobileNumber: input.Body.MobileNumber,
		})
		switch {
		case errors.Is(err, account.ErrMobileTaken):
			return fail[domain.AuthData](http.StatusConflict, "Mobile number already registered"), nil
		case errors.Is(err, account.ErrUserNotFound):
			return fail[domain.AuthData](http.StatusUnauthorized, sessionExpired), nil
		case err != nil:
			return nil, huma.Error500InternalServerError("failed to update profile", err)
		}
		return succeed("Profile updated", &domain.AuthData{User: user}), nil
	})
}
