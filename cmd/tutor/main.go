// Command tutor is a terminal client for a study-assistant backend.
//
// Usage:
//
//	tutor [flags]
//	GEMINI_API_KEY=gk-... tutor -backend gemini [flags]
//
// Flags:
//
//	-backend string       Backend: http, gemini (default: http, or config file)
//	-base-url string      Study backend URL for the http backend
//	-department string    Department sent with questions
//	-model string         Model ID for the gemini backend
//	-style string         Chroma style for code blocks
//	-session string       Path to session file to resume
//	-config string        Path to config file (default: ~/.tutor/config.toml)
//	-log string           Path to JSON log file (default: no logging)
//	-api-key string       API key (overrides GEMINI_API_KEY)
//	-write-config         Write the resolved config to -config and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fwojciec/tutor"
	bt "github.com/fwojciec/tutor/bubbletea"
	"github.com/fwojciec/tutor/chroma"
	"github.com/fwojciec/tutor/fs"
	"github.com/fwojciec/tutor/goldmark"
	tutorhttp "github.com/fwojciec/tutor/http"
	tutorjson "github.com/fwojciec/tutor/json"
	tutortoml "github.com/fwojciec/tutor/toml"
	"github.com/google/uuid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tutor: %v\n", err)
		os.Exit(1)
	}
}

// flagValues holds the raw command-line overrides. Empty means unset.
type flagValues struct {
	backend    string
	baseURL    string
	department string
	model      string
	style      string
	logFile    string
}

// envValues holds the environment variables the client reads. Env is only
// read in run and passed down as values.
type envValues struct {
	baseURL   string
	geminiKey string
}

func run() error {
	var (
		f           flagValues
		sessionPath = flag.String("session", "", "Path to session file to resume")
		configPath  = flag.String("config", defaultConfigPath(), "Path to config file")
		apiKey      = flag.String("api-key", "", "API key (overrides GEMINI_API_KEY)")
		writeConfig = flag.Bool("write-config", false, "Write the resolved config to -config and exit")
	)
	flag.StringVar(&f.backend, "backend", "", "Backend: http, gemini")
	flag.StringVar(&f.baseURL, "base-url", "", "Study backend URL for the http backend")
	flag.StringVar(&f.department, "department", "", "Department sent with questions")
	flag.StringVar(&f.model, "model", "", "Model ID for the gemini backend")
	flag.StringVar(&f.style, "style", "", "Chroma style for code blocks")
	flag.StringVar(&f.logFile, "log", "", "Path to JSON log file")
	flag.Parse()

	env := envValues{
		baseURL:   os.Getenv("TUTOR_BASE_URL"),
		geminiKey: os.Getenv("GEMINI_API_KEY"),
	}

	cfg, err := resolveConfig(*configPath, f, env)
	if err != nil {
		return err
	}
	if *writeConfig {
		if err := tutortoml.Save(*configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Config written to %s\n", *configPath)
		return nil
	}

	logger, closeLog, err := openLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	key := *apiKey
	if key == "" {
		key = env.geminiKey
	}
	backend, err := resolveBackend(ctx, cfg, key, logger)
	if err != nil {
		return err
	}

	session, err := loadOrCreateSession(*sessionPath, time.Now())
	if err != nil {
		return err
	}
	if cfg.Department != "" && session.Department == "" {
		session.SetDepartment(cfg.Department)
	}
	savePath := *sessionPath
	if savePath == "" {
		savePath = tutorjson.Path(cfg.SessionsDir, session.ID)
	}
	logger.Info("session ready",
		slog.String("id", session.ID),
		slog.String("backend", cfg.Backend),
		slog.String("path", savePath),
	)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}

	theme := tutor.DefaultTheme()
	formatter := goldmark.NewFormatter(theme)
	highlighter := chroma.New(chroma.WithStyle(cfg.ChromaStyle))
	renderer := tutor.NewStreamingRenderer(formatter,
		tutor.WithHighlighter(highlighter),
		tutor.WithLogger(logger),
	)

	tuiModel := bt.New(bt.Config{
		Backend:     backend,
		Renderer:    renderer,
		Formatter:   formatter,
		Highlighter: highlighter,
		Expand: func(pattern string) ([]string, error) {
			return fs.Expand(cwd, pattern)
		},
		Upload: func(ctx context.Context, path string) (tutor.UploadedDocument, error) {
			return fs.Upload(ctx, backend, path)
		},
		Save: func(s tutor.Session) error {
			return tutorjson.Save(savePath, s)
		},
		Theme:  theme,
		Logger: logger,
	}, &session)

	if _, err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// Save once more on exit. Empty sessions are not written.
	if len(session.Entries) > 0 || len(session.Documents) > 0 {
		if err := tutorjson.Save(savePath, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Session saved to %s\n", savePath)
	}
	return nil
}

// resolveConfig layers defaults, the config file, env, and flags, in
// increasing precedence.
func resolveConfig(configPath string, f flagValues, env envValues) (tutor.Config, error) {
	cfg, err := tutortoml.Load(configPath, defaultConfig())
	if err != nil {
		return tutor.Config{}, err
	}
	override(&cfg.BaseURL, env.baseURL)

	override(&cfg.Backend, f.backend)
	override(&cfg.BaseURL, f.baseURL)
	override(&cfg.Department, f.department)
	override(&cfg.Model, f.model)
	override(&cfg.ChromaStyle, f.style)
	override(&cfg.LogFile, f.logFile)

	if err := cfg.Validate(); err != nil {
		return tutor.Config{}, err
	}
	return cfg, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func defaultConfig() tutor.Config {
	return tutor.Config{
		Backend:     tutor.BackendHTTP,
		BaseURL:     tutorhttp.DefaultBaseURL,
		ChromaStyle: chroma.DefaultStyle,
		SessionsDir: filepath.Join(homeDir(), ".tutor", "sessions"),
	}
}

func defaultConfigPath() string {
	return filepath.Join(homeDir(), ".tutor", "config.toml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// openLogger returns a JSON logger writing to path, or a discarding logger
// when path is empty. The TUI owns the terminal, so logs never go to stderr.
func openLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return newLogger(f), func() { f.Close() }, nil
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func loadOrCreateSession(sessionPath string, now time.Time) (tutor.Session, error) {
	if sessionPath != "" {
		s, err := tutorjson.Load(sessionPath)
		switch {
		case err == nil:
			return s, nil
		case errors.Is(err, os.ErrNotExist):
			// Resuming a path that does not exist yet starts a new session there.
		default:
			return tutor.Session{}, fmt.Errorf("load session: %w", err)
		}
	}
	return tutor.NewSession(uuid.NewString(), now), nil
}
