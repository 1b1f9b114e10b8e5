package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "coverbase/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	// The response body may be incomplete, but headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and the
// `detail` error envelope the API exposes. Field-tagged validation errors render
// the detail as a field→message object so clients can attribute the failure.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := DomainCodeToHTTPStatus(domainErr.Code)
		if domainErr.Code == dErrors.CodeInternal {
			// Internal details stay out of responses.
			WriteJSON(w, status, map[string]any{"detail": "internal server error"})
			return
		}
		var detail any = domainErr.Message
		if domainErr.Field != "" {
			detail = map[string]string{domainErr.Field: domainErr.Message}
		}
		WriteJSON(w, status, map[string]any{"detail": detail})
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, map[string]any{"detail": "internal server error"})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
// Validation failures map to 422 rather than 400: the request was syntactically
// deliverable but semantically unprocessable.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
