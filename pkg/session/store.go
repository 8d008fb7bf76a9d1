package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for session names that cannot be used as file names.
var ErrInvalidName = errors.New("invalid session name")

// file is the on-disk form of a Context.
type file struct {
	ID     string                     `json:"id"`
	Values map[string]json.RawMessage `json:"values"`
}

// Store persists contexts as JSON files in a directory, one per session name.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Init creates the session directory.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	return nil
}

// Path returns the file a session is stored in.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// LogPath returns the file a detached server for the session writes its output to.
func (s *Store) LogPath(name string) string {
	return filepath.Join(s.dir, name+".log")
}

// Load reads a session. A session that was never saved loads as a new, empty context.
func (s *Store) Load(name string) (*Context, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read session %s: %w", name, err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", name, err)
	}
	if f.ID == "" {
		return newContext(New().ID(), f.Values), nil
	}
	return newContext(f.ID, f.Values), nil
}

// Save writes the durable values of c. A context with no durable values
// removes the session file instead.
func (s *Store) Save(name string, c *Context) error {
	if err := checkName(name); err != nil {
		return err
	}
	if c.Empty() {
		return s.Remove(name)
	}

	if err := s.Init(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file{ID: c.ID(), Values: c.snapshot()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", name, err)
	}

	path := s.Path(name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write session %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename session file: %w", err)
	}
	return nil
}

// Remove deletes a session file. Removing a missing session is not an error.
func (s *Store) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session %s: %w", name, err)
	}
	return nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
