package perfit

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorizedLogin is returned by Login when the credentials are rejected.
	ErrUnauthorizedLogin = errors.New("perfit: unauthorized login")
	// ErrAccountRequired is returned by Login when the user belongs to more
	// than one account and none was given.
	ErrAccountRequired = errors.New("perfit: account required")
	// ErrInvalidResponse is returned by Response.Err when the body was not JSON.
	ErrInvalidResponse = errors.New("perfit: response is not JSON")
)

// NetworkError is a transport failure: the request never produced a
// readable response.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("perfit: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ApplicationError is a failure reported by the API in the response body
// ({"success": false, "error": {...}}), independent of the HTTP status.
type ApplicationError struct {
	Status      int    `json:"status"`
	Type        string `json:"type"`
	UserMessage string `json:"userMessage"`
}

func (e *ApplicationError) Error() string {
	if e.UserMessage != "" {
		return fmt.Sprintf("perfit: %s (%d): %s", e.Type, e.Status, e.UserMessage)
	}
	return fmt.Sprintf("perfit: %s (%d)", e.Type, e.Status)
}

func (e *ApplicationError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsUnauthorized reports whether err carries an ApplicationError with status 401.
func IsUnauthorized(err error) bool {
	var appErr *ApplicationError
	return errors.As(err, &appErr) && appErr.IsUnauthorized()
}
