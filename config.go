package tutor

import "fmt"

// Backend names accepted in Config.Backend.
const (
	BackendHTTP   = "http"
	BackendGemini = "gemini"
)

// Config is the resolved client configuration.
type Config struct {
	Backend     string
	BaseURL     string
	Department  string
	Model       string
	ChromaStyle string
	LogFile     string
	SessionsDir string
}

// Validate checks that c names a known backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendHTTP, BackendGemini:
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q): %w", c.Backend, BackendHTTP, BackendGemini, ErrValidation)
	}
}
