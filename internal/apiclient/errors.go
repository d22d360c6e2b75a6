package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired is returned when a 401 could not be recovered by a
	// token refresh. The stored token has already been cleared.
	ErrSessionExpired = errors.New("session expired")
	ErrRefreshFailed  = errors.New("token refresh failed")
)

// APIError is the uniform error shape of every failed call. Status is 0 when
// the request never produced a response.
type APIError struct {
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Err     error           `json:"-"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// *APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func transportError(err error) *APIError {
	return &APIError{Message: err.Error(), Status: 0, Err: err}
}

func sessionExpiredError(cause error) *APIError {
	return &APIError{
		Message: ErrSessionExpired.Error(),
		Status:  http.StatusUnauthorized,
		Err:     errors.Join(ErrSessionExpired, cause),
	}
}

// responseError builds an APIError from a non-2xx response. The envelope
// message wins over the status text.
func responseError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	if len(body) == 0 || !json.Valid(body) {
		return apiErr
	}
	apiErr.Data = json.RawMessage(append([]byte(nil), body...))

	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Message != "":
			apiErr.Message = env.Message
		case env.Error != "":
			apiErr.Message = env.Error
		}
	}
	return apiErr
}
