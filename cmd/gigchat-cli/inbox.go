package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ageniuscoder/gigchat/internal/models"
)

func init() {
	rootCmd.AddCommand(inboxCmd)
}

var inboxCmd = &cobra.Command{
	Use:     "inbox",
	Aliases: []string{"ls"},
	Short:   "List conversations",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, _, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		convs, err := s.Refresh(ctx)
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(os.Stdout, convs)
		}
		if len(convs) == 0 {
			fmt.Fprintln(os.Stdout, "No conversations")
			return nil
		}
		printInbox(os.Stdout, convs, time.Now())
		return nil
	},
}

func printInbox(w io.Writer, convs []models.Conversation, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "THREAD\tWITH\tUNREAD\tLAST\tWHEN")
	for _, c := range convs {
		with := c.CounterpartyName
		if c.IsOrganization && c.OrganizationName != "" && c.OrganizationName != with {
			with += " (" + c.OrganizationName + ")"
		}
		when := "-"
		if !c.LastMessageAt.IsZero() {
			when = humanize.RelTime(c.LastMessageAt, now, "ago", "from now")
		}
		unread := ""
		if c.UnreadCount > 0 {
			unread = humanize.Comma(int64(c.UnreadCount))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ThreadKey, with, unread, preview(c.LastMessage, 40), when)
	}
	tw.Flush()
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
