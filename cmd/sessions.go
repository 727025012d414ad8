package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/marislab/maris/db"
	"github.com/marislab/maris/internal/config"
	"github.com/marislab/maris/internal/conversation"
	"github.com/marislab/maris/internal/log"
	"github.com/marislab/maris/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
}

func init() {
	sessionsCmd.AddCommand(newSessionsListCmd())
	sessionsCmd.AddCommand(newSessionsShowCmd())
	sessionsCmd.AddCommand(newSessionsNewCmd())
	sessionsCmd.AddCommand(newSessionsDeleteCmd())
	rootCmd.AddCommand(sessionsCmd)
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently used first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), runSessionsList)
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show the messages of one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session ID: %s", args[0])
			}
			return withStore(cmd.Context(), func(ctx context.Context, store *session.Store) error {
				return runSessionsShow(ctx, store, id)
			})
		},
	}
}

func newSessionsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [title]",
		Short: "Create a session and make it current",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := "New session"
			if len(args) == 1 {
				title = args[0]
			}
			return withStore(cmd.Context(), func(ctx context.Context, store *session.Store) error {
				return runSessionsNew(ctx, store, title)
			})
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session ID: %s", args[0])
			}
			return withStore(cmd.Context(), func(ctx context.Context, store *session.Store) error {
				return runSessionsDelete(ctx, store, id)
			})
		},
	}
}

// withStore opens the session store for a one-shot command, without the
// transport connection the chat runtime carries.
func withStore(ctx context.Context, fn func(context.Context, *session.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	connURL := cfg.Storage.ConnectionURL()
	if err := db.Migrate(connURL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.Log.Level), JSON: cfg.Log.JSON})
	store := session.New(session.NewQueries(pool), pool, logger)
	store.SetHistoryLimit(cfg.Storage.HistoryLimit)
	return fn(ctx, store)
}

func runSessionsList(ctx context.Context, store *session.Store) error {
	sessions, err := store.ListSessions(ctx, 100, 0)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions yet. Run maris to start one.")
		return nil
	}

	currentID, _ := session.LoadCurrentSessionID()
	for _, s := range sessions {
		marker := " "
		if s.ID == currentID {
			marker = "*"
		}
		fmt.Printf("%s %s  %-30s  %d messages  %s\n",
			marker, s.ID, s.Title, s.MessageCount, formatTime(s.UpdatedAt))
	}
	return nil
}

func runSessionsShow(ctx context.Context, store *session.Store, id uuid.UUID) error {
	s, err := store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return fmt.Errorf("session %s not found", id)
		}
		return fmt.Errorf("getting session: %w", err)
	}

	msgs, err := store.LoadMessages(ctx, id)
	if err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}

	fmt.Printf("Session: %s\nTitle: %s\nCreated: %s\nUpdated: %s\nMessages: %d\n\n",
		s.ID, s.Title, formatTime(s.CreatedAt), formatTime(s.UpdatedAt), len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case conversation.RoleUser:
			fmt.Printf("You> %s\n\n", msg.TextContent())
		case conversation.RoleAssistant:
			for _, p := range msg.ToolParts() {
				fmt.Printf("  [tool %s: %s]\n", p.ToolName, p.State)
			}
			fmt.Printf("Maris> %s\n\n", msg.TextContent())
		}
	}
	return nil
}

func runSessionsNew(ctx context.Context, store *session.Store, title string) error {
	s, err := store.CreateSession(ctx, title)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if err := session.SaveCurrentSessionID(s.ID); err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}
	fmt.Printf("Created session %s\n", s.ID)
	return nil
}

func runSessionsDelete(ctx context.Context, store *session.Store, id uuid.UUID) error {
	if err := store.DeleteSession(ctx, id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return fmt.Errorf("session %s not found", id)
		}
		return fmt.Errorf("deleting session: %w", err)
	}

	// Deleting the current session clears the pointer so the next chat
	// starts fresh instead of failing to resume.
	if currentID, err := session.LoadCurrentSessionID(); err == nil && currentID == id {
		if err := session.ClearCurrentSessionID(); err != nil {
			return fmt.Errorf("clearing session state: %w", err)
		}
	}

	fmt.Printf("Deleted session %s\n", id)
	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
