package middleware

import (
	"encoding/json"
	"net/http"
)

// problem is an RFC 7807 body that also carries the success/message envelope
// fields, so both client decoding strategies find a message.
type problem struct {
	Title   string `json:"title"`
	Status  int    `json:"status"`
	Detail  string `json:"detail"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{
		Title:   http.StatusText(status),
		Status:  status,
		Detail:  detail,
		Message: detail,
	})
}
