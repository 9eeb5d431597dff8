package llm

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials matches a ConfigurationError caused by absent credentials.
var ErrMissingCredentials = errors.New("no AI credentials configured")

// ConfigurationError reports that the text service cannot be used at all.
// It is raised once at construction and carries guidance for the operator.
type ConfigurationError struct {
	Reason   string
	Guidance string
	Err      error
}

func (e *ConfigurationError) Error() string {
	msg := "llm configuration: " + e.Reason
	if e.Guidance != "" {
		msg += " (" + e.Guidance + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func missingCredentials() *ConfigurationError {
	return &ConfigurationError{
		Reason:   "missing credentials",
		Guidance: "set GEMINI_API_KEY (or GENAI_API_KEY / GOOGLE_API_KEY), or GOOGLE_APPLICATION_CREDENTIALS together with GOOGLE_CLOUD_PROJECT",
		Err:      ErrMissingCredentials,
	}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
