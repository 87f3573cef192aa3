// ABOUTME: One-shot question: stream a single answer and exit
// ABOUTME: Exits non-zero when the answer fails in-band or at the transport level

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/bloop-answer/internal/conversation"
	"github.com/2389/bloop-answer/internal/store"
)

func newAskCmd(a *app) *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := a.newSource()
			if err != nil {
				return err
			}

			var s store.Store
			if !noSave {
				sq, err := a.openStore()
				if err != nil {
					return err
				}
				defer sq.Close()
				s = sq
			}

			c := conversation.New(source, a.cfg.Server.UserID, a.controllerOptions(s)...)
			defer c.Close()

			return askOnce(cmd.Context(), c, cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the conversation")
	return cmd
}

// askOnce submits question and renders snapshots until its session ends.
func askOnce(ctx context.Context, c *conversation.Controller, out io.Writer, question string) error {
	return submitAndWait(ctx, c, c.Subscribe(ctx), out, question)
}

// submitAndWait submits question and renders updates until its session
// ends. Snapshots published before the submit are skipped.
func submitAndWait(ctx context.Context, c *conversation.Controller, updates <-chan conversation.State, out io.Writer, question string) error {
	before := len(c.Conversation())
	c.Submit(question)

	r := newStreamRenderer(out)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-updates:
			if !ok {
				return errors.New("conversation closed")
			}
			if len(st.Turns) < before+2 {
				continue
			}
			r.Update(st)
			if st.Active {
				continue
			}
			if last, ok := st.LastServerResponse(); ok && last.Error != "" {
				return fmt.Errorf("answer failed: %s", last.Error)
			}
			return nil
		}
	}
}
