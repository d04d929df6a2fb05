package product

import "fmt"

// ConfigError marks a configuration failure: a required dimension or
// variable was not found, or a selected index is out of range. Stages
// receiving one keep their previous value; there is nothing to retry until
// the selection changes.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "product: " + e.Reason }

func configErrf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
