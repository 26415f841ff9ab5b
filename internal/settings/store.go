// Package settings persists named crisp threshold/weight tables as JSON
// blobs on local disk.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Sameer-159/Air-Quality/internal/aqi"
)

// DefaultName is the blob the dashboard saves and reloads its slider
// configuration under.
const DefaultName = "crisp"

var errBadName = errors.New("settings name must be a non-empty path-safe token")

// Store reads and writes settings blobs under a single directory, one file
// per name. A missing blob silently yields the built-in defaults; an
// unparsable or invalid blob is discarded in favor of the defaults, logged,
// and never surfaced as a hard failure.
type Store struct {
	mu  sync.Mutex
	dir string
	log *slog.Logger
}

func NewStore(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, log: log}, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return "", fmt.Errorf("%q: %w", name, errBadName)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Load returns the settings saved under name, or the defaults when nothing
// valid is stored.
func (s *Store) Load(name string) (aqi.Settings, error) {
	p, err := s.path(name)
	if err != nil {
		return aqi.Settings{}, err
	}

	s.mu.Lock()
	raw, err := os.ReadFile(p)
	s.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return aqi.DefaultSettings(), nil
		}
		return aqi.Settings{}, err
	}

	var loaded aqi.Settings
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.log.Warn("settings blob unparsable, using defaults", "name", name, "err", err)
		return aqi.DefaultSettings(), nil
	}
	if err := loaded.Validate(); err != nil {
		s.log.Warn("settings blob invalid, using defaults", "name", name, "err", err)
		return aqi.DefaultSettings(), nil
	}
	return loaded, nil
}

// Save validates and writes the settings under name. The write goes through
// a temp file and rename so a crash never leaves a half-written blob.
func (s *Store) Save(name string, cfg aqi.Settings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p, err := s.path(name)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	s.log.Info("settings saved", "name", name, "path", p)
	return nil
}

// Delete removes the blob stored under name, restoring defaults on the next
// Load. Deleting an absent blob is not an error.
func (s *Store) Delete(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
