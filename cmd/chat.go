package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"docpilot/internal/chatclient"
	"docpilot/internal/config"
	"docpilot/internal/localstate"
	"docpilot/internal/log"
	"docpilot/internal/tui"
)

// chatTimeout is the chat client's per-request HTTP timeout. Agent runs
// dominate it; list and document fetches finish long before.
const chatTimeout = 3 * time.Minute

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive documentation chat",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The terminal is owned by the TUI, so logs go to a file.
	logger, closeLog := tuiLogger(cfg)
	defer closeLog()

	store, err := localstate.NewStore("")
	if err != nil {
		logger.Warn("local state unavailable", "error", err)
		store = nil
	}

	model, err := tui.New(ctx, tui.Options{
		Client:    chatclient.New(cfg.GatewayURL, chatTimeout),
		State:     store,
		Languages: cfg.Languages,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}

// tuiLogger opens a file-backed logger under the state directory. Falls
// back to a no-op logger when the file cannot be opened.
func tuiLogger(cfg *config.Config) (log.Logger, func()) {
	home, err := os.UserHomeDir()
	if err != nil {
		return log.NewNop(), func() {}
	}

	path := filepath.Join(home, ".docpilot", "docpilot.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return log.NewNop(), func() {}
	}

	logger := log.NewWithWriter(f, log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	return logger, func() { _ = f.Close() }
}
