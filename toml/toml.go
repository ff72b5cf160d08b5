// Package toml loads the tutor configuration file.
package toml

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/tutor"
)

// file mirrors the on-disk layout. Every key is optional.
type file struct {
	Backend     string `toml:"backend"`
	BaseURL     string `toml:"base_url"`
	Department  string `toml:"department"`
	Model       string `toml:"model"`
	ChromaStyle string `toml:"chroma_style"`
	LogFile     string `toml:"log_file"`
	SessionsDir string `toml:"sessions_dir"`
}

// Load reads the config file at path and overlays its keys onto base. A
// missing file is not an error: base is returned unchanged. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func Load(path string, base tutor.Config) (tutor.Config, error) {
	var f file
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return base, fmt.Errorf("toml: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return base, fmt.Errorf("toml: %s: unknown keys %s: %w", path, strings.Join(keys, ", "), tutor.ErrValidation)
	}

	cfg := base
	overlay(&cfg.Backend, f.Backend)
	overlay(&cfg.BaseURL, f.BaseURL)
	overlay(&cfg.Department, f.Department)
	overlay(&cfg.Model, f.Model)
	overlay(&cfg.ChromaStyle, f.ChromaStyle)
	overlay(&cfg.LogFile, expandHome(f.LogFile))
	overlay(&cfg.SessionsDir, expandHome(f.SessionsDir))
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed. The file
// is written to a temporary sibling and renamed into place, so a failed
// write never leaves a truncated config behind.
func Save(path string, cfg tutor.Config) error {
	var buf bytes.Buffer
	buf.WriteString("# tutor configuration file\n\n")
	if err := toml.NewEncoder(&buf).Encode(file(cfg)); err != nil {
		return fmt.Errorf("toml: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("toml: create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("toml: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("toml: rename temp file: %w", err)
	}
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
