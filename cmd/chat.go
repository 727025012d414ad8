package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marislab/maris/internal/app"
	"github.com/marislab/maris/internal/config"
	"github.com/marislab/maris/internal/session"
	"github.com/marislab/maris/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runtime, err := app.NewRuntime(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing runtime: %w", err)
	}
	defer func() {
		if closeErr := runtime.Close(); closeErr != nil {
			runtime.Logger.Warn("runtime close error", "error", closeErr)
		}
	}()

	sessionID, err := getOrCreateSessionID(ctx, runtime)
	if err != nil {
		return fmt.Errorf("resolving session: %w", err)
	}

	// Seeding runs before the first frame so the TUI never renders a
	// half-activated session.
	if err := runtime.Controller.Activate(ctx, sessionID); err != nil {
		runtime.Logger.Warn("session activation degraded", "session_id", sessionID, "error", err)
	}

	model, err := tui.New(ctx, runtime.Client, runtime.Controller, runtime.Scheduler, runtime.Arbiter, runtime.Store, cfg.UI, runtime.Logger)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}

// getOrCreateSessionID resumes the recorded session when it still exists,
// otherwise creates a fresh one and records it.
func getOrCreateSessionID(ctx context.Context, runtime *app.Runtime) (uuid.UUID, error) {
	currentID, err := session.LoadCurrentSessionID()
	switch {
	case err == nil:
		if _, getErr := runtime.Store.GetSession(ctx, currentID); getErr == nil {
			return currentID, nil
		} else if !errors.Is(getErr, session.ErrSessionNotFound) {
			return uuid.Nil, fmt.Errorf("validating session: %w", getErr)
		}
		// Recorded session was deleted; fall through to create.

	case errors.Is(err, session.ErrNoActiveSession):
		// First run.

	default:
		return uuid.Nil, fmt.Errorf("loading session state: %w", err)
	}

	created, err := runtime.Store.CreateSession(ctx, "New session")
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating session: %w", err)
	}
	if err := session.SaveCurrentSessionID(created.ID); err != nil {
		runtime.Logger.Warn("saving session state failed", "error", err)
	}
	return created.ID, nil
}
