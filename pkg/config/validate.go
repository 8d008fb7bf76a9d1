package config

import (
	"fmt"
	"strings"
)

// ValidationError is a single configuration problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult collects every problem found in a Config.
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// Validate checks c and returns a *ValidationResult error, or nil.
func (c *Config) Validate() error {
	result := &ValidationResult{}

	if strings.TrimSpace(c.StubsFile) == "" {
		result.AddError("stubsFile", "required")
	}

	ports := map[int]string{}
	checkPort := func(field string, port int) {
		if port < 1 || port > 65535 {
			result.AddError(field, fmt.Sprintf("port %d out of range 1-65535", port))
			return
		}
		if other, dup := ports[port]; dup {
			result.AddError(field, fmt.Sprintf("port %d already used by %s", port, other))
			return
		}
		ports[port] = field
	}
	checkPort("httpPort", c.HTTPPort)
	if c.HTTPSPort != nil {
		checkPort("httpsPort", *c.HTTPSPort)
	}
	if c.AdminPort != nil {
		checkPort("adminPort", *c.AdminPort)
	}

	switch c.Backend {
	case BackendProcess:
		if c.Jar == "" {
			result.AddError("jar", "required for the process backend")
		}
		if c.Java == "" {
			result.AddError("java", "required for the process backend")
		}
	case BackendContainer:
		if c.Image == "" {
			result.AddError("image", "required for the container backend")
		}
	default:
		result.AddError("backend", fmt.Sprintf("unknown backend %q (valid: %s, %s)", c.Backend, BackendProcess, BackendContainer))
	}

	if c.ReadyTimeout <= 0 {
		result.AddError("readyTimeout", "must be positive")
	}
	if c.StopTimeout <= 0 {
		result.AddError("stopTimeout", "must be positive")
	}
	if c.Session == "" || strings.ContainsAny(c.Session, `/\`) {
		result.AddError("session", "must be a non-empty name without path separators")
	}

	if result.IsValid() {
		return nil
	}
	return result
}
