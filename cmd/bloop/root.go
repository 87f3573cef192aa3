// ABOUTME: Root cobra command and the shared wiring every subcommand uses
// ABOUTME: Loads config, builds the logger, the SSE source and the conversation store

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/2389/bloop-answer/internal/auth"
	"github.com/2389/bloop-answer/internal/config"
	"github.com/2389/bloop-answer/internal/conversation"
	"github.com/2389/bloop-answer/internal/logging"
	"github.com/2389/bloop-answer/internal/sse"
	"github.com/2389/bloop-answer/internal/store"
)

// app carries global flags and what PersistentPreRunE derives from them.
type app struct {
	configPath string
	verbose    bool
	userID     string
	baseURL    string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bloop",
		Short: "Ask questions about your code and stream the answers",
		Long: `bloop asks a code search service questions in natural language.

Answers stream in token by token together with the code snippets they are
based on. Conversations are saved locally and can be resumed or exported.

Quick Start:
  bloop chat                        # interactive conversation
  bloop ask "where is retry defined" # one question, then exit
  bloop history list                # saved conversations
  bloop export 3 --format md        # export one as Markdown`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default $BLOOP_CONFIG or ~/.config/bloop/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&a.userID, "user", "u", "", "User id sent with questions (overrides server.user_id)")
	root.PersistentFlags().StringVar(&a.baseURL, "server", "", "Answer server base URL (overrides server.base_url)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
		newTokenCmd(a),
		newHealthCmd(a),
	)
	return root
}

// load reads the config and applies flag overrides.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.userID != "" {
		cfg.Server.UserID = a.userID
	}
	if a.baseURL != "" {
		cfg.Server.BaseURL = a.baseURL
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.Logging, cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}

// newSource builds the answer stream source from config.
func (a *app) newSource() (*conversation.SSESource, error) {
	token, err := auth.LoadToken(a.cfg.Auth.Token, a.cfg.Auth.TokenFile)
	if err != nil {
		return nil, err
	}

	client := sse.NewClient(a.cfg.Server.BaseURL,
		sse.WithToken(token),
		sse.WithMaxEventSize(a.cfg.Stream.MaxEventSize),
		sse.WithResponseHeaderTimeout(a.cfg.Stream.RequestTimeout),
		sse.WithLogger(a.logger),
	)
	return conversation.NewSSESource(client), nil
}

// openStore opens the conversation database.
func (a *app) openStore() (*store.SQLiteStore, error) {
	s, err := store.Open(a.cfg.Database.Driver, a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening conversation store: %w", err)
	}
	return s, nil
}

// controllerOptions returns the options shared by every controller. A nil
// store disables saving.
func (a *app) controllerOptions(s store.Store) []conversation.Option {
	opts := []conversation.Option{
		conversation.WithLogger(a.logger),
		conversation.WithStallTimeout(a.cfg.Stream.StallTimeout),
	}
	if s != nil {
		opts = append(opts, conversation.WithRecorder(store.NewRecorder(s)))
	}
	return opts
}
