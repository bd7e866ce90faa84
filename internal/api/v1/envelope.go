package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/garagedesk/internal/domain"
	"github.com/gosuda/garagedesk/internal/server/middleware"
)

// EnvelopeOutput carries a {success, message, data} body with an explicit
// status so failures keep the envelope shape.
type EnvelopeOutput[T any] struct {
	Status int
	Body   domain.Response[T]
}

func succeed[T any](message string, data *T) *EnvelopeOutput[T] {
	return &EnvelopeOutput[T]{
		Status: http.StatusOK,
		Body:   domain.Response[T]{Success: true, Message: message, Data: data},
	}
}

func fail[T any](status int, message string) *EnvelopeOutput[T] {
	return &EnvelopeOutput[T]{
		Status: status,
		Body:   domain.Response[T]{Message: message},
	}
}

type AuthOutput = EnvelopeOutput[domain.AuthData]

const sessionExpired = "Session expired. Please sign in again."

func currentUser(ctx context.Context) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, huma.Error401Unauthorized(sessionExpired)
	}
	return id, nil
}
