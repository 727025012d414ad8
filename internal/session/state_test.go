package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func setTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestCurrentSessionID_RoundTrip(t *testing.T) {
	setTempHome(t)
	id := uuid.New()

	if err := SaveCurrentSessionID(id); err != nil {
		t.Fatalf("SaveCurrentSessionID: %v", err)
	}

	got, err := LoadCurrentSessionID()
	if err != nil {
		t.Fatalf("LoadCurrentSessionID: %v", err)
	}
	if got != id {
		t.Errorf("loaded %s, want %s", got, id)
	}
}

func TestLoadCurrentSessionID_NoneRecorded(t *testing.T) {
	setTempHome(t)

	_, err := LoadCurrentSessionID()
	if !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestLoadCurrentSessionID_EmptyFile(t *testing.T) {
	home := setTempHome(t)

	dir := filepath.Join(home, stateDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, stateFile), []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadCurrentSessionID()
	if !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestLoadCurrentSessionID_Garbage(t *testing.T) {
	home := setTempHome(t)

	dir := filepath.Join(home, stateDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, stateFile), []byte("not-a-uuid"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCurrentSessionID(); err == nil {
		t.Error("expected error for a corrupt state file")
	}
}

func TestClearCurrentSessionID(t *testing.T) {
	setTempHome(t)
	id := uuid.New()

	if err := SaveCurrentSessionID(id); err != nil {
		t.Fatalf("SaveCurrentSessionID: %v", err)
	}
	if err := ClearCurrentSessionID(); err != nil {
		t.Fatalf("ClearCurrentSessionID: %v", err)
	}

	if _, err := LoadCurrentSessionID(); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("err after clear = %v, want ErrNoActiveSession", err)
	}

	// Clearing twice is fine.
	if err := ClearCurrentSessionID(); err != nil {
		t.Errorf("second clear: %v", err)
	}
}
