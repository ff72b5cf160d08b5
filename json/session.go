package json

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/tutor"
)

// Save writes a Session to a JSON file, creating parent directories as needed.
func Save(path string, s tutor.Session) error {
	data, err := MarshalSession(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Session from a JSON file.
func Load(path string) (tutor.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tutor.Session{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalSession(data)
}

// Path returns the file a session with id is saved to under dir.
func Path(dir, id string) string {
	return filepath.Join(dir, id+".json")
}
