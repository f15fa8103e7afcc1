package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ageniuscoder/gigchat/internal/models"
	"github.com/ageniuscoder/gigchat/internal/session"
)

var (
	openWith   string
	openFollow bool
)

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVar(&openWith, "with", "", "counterparty id when the thread has no conversation yet")
	openCmd.Flags().BoolVarP(&openFollow, "follow", "f", false, "keep printing new messages until interrupted")
}

var openCmd = &cobra.Command{
	Use:   "open <thread>",
	Short: "Show a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, _, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.Refresh(ctx); err != nil {
			return err
		}
		conv, err := s.Select(ctx, args[0], openWith)
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(os.Stdout, s.Timeline())
		}
		fmt.Fprintf(os.Stdout, "%s with %s\n\n", conv.ThreadKey, conv.CounterpartyName)
		seen := printTimeline(os.Stdout, s, s.Timeline(), nil)
		if !openFollow {
			return nil
		}
		return follow(ctx, os.Stdout, s, seen)
	},
}

// printTimeline prints the messages not in seen and returns the updated set.
func printTimeline(w io.Writer, s *session.Session, msgs []models.Message, seen map[string]bool) map[string]bool {
	if seen == nil {
		seen = make(map[string]bool, len(msgs))
	}
	now := time.Now()
	for _, m := range msgs {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		who := "them"
		if s.IsMine(m) {
			who = "me"
		}
		if m.OrgSenderLabel != "" && who == "them" {
			who = m.OrgSenderLabel
		}
		star := ""
		if m.Starred {
			star = " *"
		}
		fmt.Fprintf(w, "[%s] %s (%s)%s\n", m.ID, who, humanize.RelTime(m.CreatedAt, now, "ago", "from now"), star)
		if parent, ok := s.Parent(m); ok {
			fmt.Fprintf(w, "  > %s\n", preview(parent.Content, 60))
		}
		fmt.Fprintf(w, "  %s\n", m.Content)
	}
	return seen
}

func follow(ctx context.Context, w io.Writer, s *session.Session, seen map[string]bool) error {
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	typing := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			seen = printTimeline(w, s, s.Timeline(), seen)
			if t := s.PeerTyping(); t != typing {
				typing = t
				if t {
					fmt.Fprintln(w, "  … typing")
				}
			}
		}
	}
}
