package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fwojciec/tutor"
	"github.com/fwojciec/tutor/gemini"
	tutorhttp "github.com/fwojciec/tutor/http"
)

// resolveBackend selects and constructs the backend named by cfg. The API
// key is passed in as a value; env is only read in run.
func resolveBackend(ctx context.Context, cfg tutor.Config, apiKey string, logger *slog.Logger) (tutor.Backend, error) {
	switch cfg.Backend {
	case tutor.BackendHTTP:
		return tutorhttp.New(cfg.BaseURL, tutorhttp.WithLogger(logger)), nil
	case tutor.BackendGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set (use -api-key flag or environment variable)")
		}
		client, err := gemini.New(ctx, apiKey,
			gemini.WithModel(cfg.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend %q: must be %q or %q", cfg.Backend, tutor.BackendHTTP, tutor.BackendGemini)
	}
}
