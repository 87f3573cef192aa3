// ABOUTME: Interactive chat: line-based prompt with slash commands
// ABOUTME: Each question streams to completion before the next prompt

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/bloop-answer/internal/conversation"
	"github.com/2389/bloop-answer/internal/store"
)

func newChatCmd(a *app) *cobra.Command {
	var resumeID int64
	var noSave bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := a.newSource()
			if err != nil {
				return err
			}
			sq, err := a.openStore()
			if err != nil {
				return err
			}
			defer sq.Close()

			s := &chatSession{
				app:    a,
				source: source,
				store:  sq,
				save:   !noSave,
				out:    cmd.OutOrStdout(),
			}
			if resumeID > 0 {
				if err := s.open(cmd.Context(), resumeID); err != nil {
					return err
				}
			} else {
				s.reset(cmd.Context())
			}
			defer s.close()

			return s.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().Int64VarP(&resumeID, "resume", "r", 0, "Resume a saved conversation by id")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save conversations")
	return cmd
}

// chatSession is the state of one interactive chat.
type chatSession struct {
	app    *app
	source conversation.EventSource
	store  store.Store
	save   bool
	out    io.Writer

	ctrl    *conversation.Controller
	updates <-chan conversation.State
	cancel  context.CancelFunc
}

func (s *chatSession) options() []conversation.Option {
	if !s.save {
		return s.app.controllerOptions(nil)
	}
	return s.app.controllerOptions(s.store)
}

// attach makes c the current conversation.
func (s *chatSession) attach(ctx context.Context, c *conversation.Controller) {
	s.close()
	subCtx, cancel := context.WithCancel(ctx)
	s.ctrl = c
	s.cancel = cancel
	s.updates = c.Subscribe(subCtx)
}

func (s *chatSession) close() {
	if s.ctrl == nil {
		return
	}
	s.cancel()
	s.ctrl.Close()
	s.ctrl = nil
}

// reset starts a fresh conversation.
func (s *chatSession) reset(ctx context.Context) {
	s.attach(ctx, conversation.New(s.source, s.app.cfg.Server.UserID, s.options()...))
}

// open resumes a saved conversation.
func (s *chatSession) open(ctx context.Context, id int64) error {
	conv, err := s.store.LoadConversation(ctx, s.app.cfg.Server.UserID, id)
	if err != nil {
		return fmt.Errorf("loading conversation %d: %w", id, err)
	}
	s.attach(ctx, conversation.Resume(s.source, conv.UserID, conv.ThreadID, conv.Turns, s.options()...))
	printTurns(s.out, conv.Turns, s.ctrl.CurrentlyViewedSnippets())
	return nil
}

// run reads lines from in until EOF, /quit or ctx is cancelled.
func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(s.out, "bloop connected to %s as %s\n", s.app.cfg.Server.BaseURL, s.app.cfg.Server.UserID)
	fmt.Fprintln(s.out, "Type a question and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Fprintln(s.out)

	lines := readLines(in)
	for {
		userColor.Fprint(s.out, "> ")

		var input string
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input = strings.TrimSpace(line)
		}

		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			quit, err := s.command(ctx, input)
			if err != nil {
				errorColor.Fprintf(s.out, "[error] %v\n", err)
			}
			if quit {
				return nil
			}
			fmt.Fprintln(s.out)
			continue
		}

		err := submitAndWait(ctx, s.ctrl, s.updates, s.out, input)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		fmt.Fprintln(s.out)
	}
}

// readLines feeds lines from in to the returned channel and closes it at EOF.
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// command runs a slash command and reports whether the chat should end.
func (s *chatSession) command(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help":
		printChatHelp(s.out)

	case "/turns":
		printTurns(s.out, s.ctrl.Conversation(), s.ctrl.CurrentlyViewedSnippets())

	case "/snippets":
		turns := s.ctrl.Conversation()
		if len(turns) == 0 {
			fmt.Fprintln(s.out, "Nothing asked yet")
			return false, nil
		}
		printSnippets(s.out, turns[s.ctrl.CurrentlyViewedSnippets()].Snippets)

	case "/view":
		index, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("usage: /view <turn>")
		}
		if err := s.ctrl.SetCurrentlyViewedSnippets(index); err != nil {
			return false, err
		}
		printSnippets(s.out, s.ctrl.Conversation()[index].Snippets)

	case "/history":
		previews, err := s.store.ListConversations(ctx, s.app.cfg.Server.UserID)
		if err != nil {
			return false, err
		}
		printPreviews(s.out, previews)

	case "/open":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return false, fmt.Errorf("usage: /open <id>")
		}
		return false, s.open(ctx, id)

	case "/new":
		s.reset(ctx)
		fmt.Fprintln(s.out, "Started a new conversation")

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

func printChatHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  /turns         List the turns of this conversation")
	fmt.Fprintln(out, "  /snippets      Show the snippets of the viewed turn")
	fmt.Fprintln(out, "  /view <turn>   View the snippets of another turn")
	fmt.Fprintln(out, "  /history       List saved conversations")
	fmt.Fprintln(out, "  /open <id>     Continue a saved conversation")
	fmt.Fprintln(out, "  /new           Start a new conversation")
	fmt.Fprintln(out, "  /help          Show this help")
	fmt.Fprintln(out, "  /quit          Exit")
}
