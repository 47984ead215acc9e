package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStateMismatch marks a workflow operation invoked outside its entry state.
	ErrStateMismatch = errors.New("state mismatch")
	// ErrSession marks a command the remote session rejected or could not complete.
	ErrSession = errors.New("session error")
	// ErrFetch marks an image that could not be acquired from its source.
	ErrFetch = errors.New("fetch error")
	// ErrConfiguration marks unusable configuration or order data.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks a bounded wait that expired without its condition holding.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrSession
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should halt the run rather than be
// retried or absorbed locally. State mismatches and rejected session
// commands are fatal; fetch failures are soft and handled at the pipeline.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrStateMismatch) || errors.Is(err, ErrSession) || errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
