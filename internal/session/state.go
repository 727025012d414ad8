package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	stateDir  = ".maris"
	stateFile = "current_session"
	lockFile  = "current_session.lock"
)

// StateFilePath returns the path to ~/.maris/current_session, creating
// the directory if needed.
func StateFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	dir := filepath.Join(homeDir, stateDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	return filepath.Join(dir, stateFile), nil
}

// withStateLock runs fn while holding the state file lock. Concurrent
// maris invocations (chat in one terminal, `maris sessions` in another)
// would otherwise race on the current-session file.
func withStateLock(fn func(path string) error) error {
	path, err := StateFilePath()
	if err != nil {
		return err
	}

	lock := flock.New(filepath.Join(filepath.Dir(path), lockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	return fn(path)
}

// LoadCurrentSessionID reads the active session ID. Returns
// ErrNoActiveSession when none is recorded; that is not a failure.
func LoadCurrentSessionID() (uuid.UUID, error) {
	var id uuid.UUID
	err := withStateLock(func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrNoActiveSession
			}
			return fmt.Errorf("read state file: %w", err)
		}

		raw := strings.TrimSpace(string(data))
		if raw == "" {
			return ErrNoActiveSession
		}

		parsed, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid session ID in state file: %w", err)
		}
		id = parsed
		return nil
	})
	return id, err
}

// SaveCurrentSessionID records id as the active session.
func SaveCurrentSessionID(id uuid.UUID) error {
	return withStateLock(func(path string) error {
		if err := os.WriteFile(path, []byte(id.String()), 0o600); err != nil {
			return fmt.Errorf("write state file: %w", err)
		}
		return nil
	})
}

// ClearCurrentSessionID removes the state file. Idempotent.
func ClearCurrentSessionID() error {
	return withStateLock(func(path string) error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove state file: %w", err)
		}
		return nil
	})
}
