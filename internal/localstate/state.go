// Package localstate persists the terminal front end's small bits of
// state between runs: the active conversation and the chosen programming
// language. State lives in ~/.docpilot/state.json; writes are atomic
// (temp file + rename) and serialized across processes with an advisory
// file lock via [github.com/gofrs/flock].
package localstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	stateDirName  = ".docpilot"
	stateFileName = "state.json"
	lockFileName  = "state.lock"
)

// State is what survives between front-end runs.
type State struct {
	// CurrentConversation is the server-assigned id of the conversation
	// the user last had open. Never a temporary client id.
	CurrentConversation string `json:"currentConversation,omitempty"`

	// Language is the last chosen programming language for code examples.
	Language string `json:"language,omitempty"`
}

// Store reads and writes the state file.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. An empty dir means
// ~/.docpilot. The directory is created on first use.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, stateDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the full path of the state file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Load reads the state file. A missing file is not an error and yields
// zero state.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("invalid state file: %w", err)
	}
	return &state, nil
}

// Save writes the state atomically. Concurrent writers from other
// processes are serialized by the lock file.
func (s *Store) Save(state *State) error {
	lock := flock.New(filepath.Join(s.dir, lockFileName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock state file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, stateFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Clear removes the state file. Idempotent.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}
