package medanalysis

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or unusable collaborator credential.
// It is never retried and surfaces to the request boundary unchanged.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not configured", e.Setting)
}

// InputError reports source material the pipeline cannot meaningfully analyze
// (empty text, unreadable file). No fallback content is fabricated for it.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// StageError wraps a failure with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}
