package utils

import (
	"errors"
	"fmt"
)

// Common application errors used across services.
var (
	ErrInvalidToken    = errors.New("INVALID_TOKEN")
	ErrInvalidTenant   = errors.New("INVALID_TENANT")
	ErrProductNotFound = errors.New("PRODUCT_NOT_FOUND")

	// ErrNotConnected means the tenant never completed the marketplace
	// OAuth consent flow.
	ErrNotConnected = errors.New("MARKETPLACE_NOT_CONNECTED")

	// ErrReconnectRequired is terminal: the refresh token is missing,
	// expired, or was rejected. The tenant must re-run the consent flow.
	// Callers never retry past this error.
	ErrReconnectRequired = errors.New("MARKETPLACE_RECONNECT_REQUIRED")
)

// ConfigurationError signals missing tenant configuration (credentials,
// policies, inventory location) detected before any remote call is made.
// It aborts the whole request rather than a single item.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration incomplete: %s", e.Missing)
}

// NewConfigurationError constructs a ConfigurationError.
func NewConfigurationError(missing string) *ConfigurationError {
	return &ConfigurationError{Missing: missing}
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
