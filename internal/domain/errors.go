package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCheckType is returned by the check factory for an unregistered type.
	ErrUnknownCheckType = errors.New("unknown check type")
	// ErrProjectRootMissing is the only error that aborts a validation run.
	ErrProjectRootMissing = errors.New("project root does not exist")
)

// ConfigError reports a missing or mistyped check parameter.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Key != "" && e.Reason != "":
		return fmt.Sprintf("'%s' %s", e.Key, e.Reason)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Reason
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// MissingParam builds the ConfigError for an absent required key.
func MissingParam(key string) *ConfigError {
	return &ConfigError{Key: key, Reason: "is required"}
}
