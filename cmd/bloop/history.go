// ABOUTME: Saved conversation commands: list, show and delete
// ABOUTME: Every lookup is scoped to the configured user id

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved conversations",
	}
	cmd.AddCommand(
		newHistoryListCmd(a),
		newHistoryShowCmd(a),
		newHistoryDeleteCmd(a),
	)
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved conversations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			previews, err := s.ListConversations(cmd.Context(), a.cfg.Server.UserID)
			if err != nil {
				return err
			}
			printPreviews(cmd.OutOrStdout(), previews)
			return nil
		},
	}
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var compact, snippets bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			conv, err := s.LoadConversation(cmd.Context(), a.cfg.Server.UserID, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			turns := conv.Turns
			if compact {
				turns = conv.Compressed()
			}
			userColor.Fprintf(out, "%s\n", conv.Title)
			dimColor.Fprintf(out, "thread %s, saved %s\n\n", conv.ThreadID, conv.CreatedAt.Local().Format(time.DateTime))
			printTurns(out, turns, -1)
			if snippets {
				for i, t := range turns {
					if len(t.Snippets) == 0 {
						continue
					}
					dimColor.Fprintf(out, "\nturn %d:\n", i)
					printSnippets(out, t.Snippets)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Cut snippet code to its first line")
	cmd.Flags().BoolVar(&snippets, "snippets", false, "Print snippet code after the turns")
	return cmd
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteConversation(cmd.Context(), a.cfg.Server.UserID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversation %d\n", id)
			return nil
		},
	}
}

// parseID parses a conversation id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid conversation id %q", arg)
	}
	return id, nil
}
