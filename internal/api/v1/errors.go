package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"
)

// Error is huma's problem document extended with the success/message pair
// that clients read from every response.
type Error struct {
	huma.ErrorModel
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var errorModelOnce sync.Once

// UseErrorModel makes every huma error carry the success/message pair.
// huma.NewError is process-wide, so this affects every huma API in the
// binary; it is called once where the API is built.
func UseErrorModel() {
	errorModelOnce.Do(func() { huma.NewError = newError })
}

func newError(status int, msg string, errs ...error) huma.StatusError {
	if status >= http.StatusInternalServerError {
		for _, err := range errs {
			log.Error().Err(err).Int("status", status).Msg("api: " + msg)
		}
		return &Error{
			ErrorModel: huma.ErrorModel{Status: status, Title: http.StatusText(status), Detail: msg},
			Message:    msg,
		}
	}

	details := make([]*huma.ErrorDetail, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		var d huma.ErrorDetailer
		if errors.As(err, &d) {
			details = append(details, d.ErrorDetail())
			continue
		}
		details = append(details, &huma.ErrorDetail{Message: err.Error()})
	}

	message := msg
	if len(details) > 0 {
		message = describe(details[0])
	}
	return &Error{
		ErrorModel: huma.ErrorModel{
			Status: status,
			Title:  http.StatusText(status),
			Detail: msg,
			Errors: details,
		},
		Message: message,
	}
}

func describe(d *huma.ErrorDetail) string {
	loc := strings.TrimPrefix(d.Location, "body.")
	if loc == "" || loc == "body" {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", loc, d.Message)
}
