package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ageniuscoder/gigchat/internal/session"
)

var (
	sendReplyTo string
	sendWith    string
)

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendReplyTo, "reply-to", "", "id of the message being quoted")
	sendCmd.Flags().StringVar(&sendWith, "with", "", "counterparty id when the thread has no conversation yet")
}

var sendCmd = &cobra.Command{
	Use:   "send <thread> <text>...",
	Short: "Send a message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, _, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.Refresh(ctx); err != nil {
			return err
		}
		if _, err := s.Select(ctx, args[0], sendWith); err != nil {
			return err
		}
		s.Typing(ctx)

		text := strings.Join(args[1:], " ")
		m, err := s.Send(ctx, text, sendReplyTo)
		if errors.Is(err, session.ErrSendFailed) {
			// keep the text so it can be retried
			return fmt.Errorf("%w; not sent: %q", err, text)
		}
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(os.Stdout, m)
		}
		fmt.Fprintf(os.Stdout, "sent %s\n", m.ID)
		return nil
	},
}
