package ebay

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is a structured error returned by the marketplace. The error
// envelope is parsed into fields so callers never have to re-parse JSON out
// of an error string.
type APIError struct {
	StatusCode int
	ErrorID    int64
	Domain     string
	Message    string
	Parameters map[string]string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ebay api error %d", e.StatusCode)
	if e.ErrorID != 0 {
		fmt.Fprintf(&b, " (id %d)", e.ErrorID)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for name, value := range e.Parameters {
		fmt.Fprintf(&b, " [%s=%s]", name, value)
	}
	return b.String()
}

// TimeoutError marks a single outbound call that exceeded its budget. It
// counts as that item's failure only; it is never a retry trigger.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ebay call timed out: %s", e.Op)
}

// errorEnvelope is the wire shape of marketplace error responses.
type errorEnvelope struct {
	Errors []struct {
		ErrorID    int64  `json:"errorId"`
		Domain     string `json:"domain"`
		Category   string `json:"category"`
		Message    string `json:"message"`
		Parameters []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"parameters"`
	} `json:"errors"`
}

// IsAuthError reports whether err is an authorization failure that a token
// refresh may fix (expired or rejected access token).
func IsAuthError(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.StatusCode == 401 || ae.ErrorID == errorIDInvalidToken
}

// IsNotFound reports whether err means the remote resource is already absent.
// Withdraw/delete paths treat this as "already ended".
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == 404
}

// IsTimeout reports whether err is a single-call timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// errorIDInvalidToken is the marketplace's "invalid access token" error id.
const errorIDInvalidToken = 1001
