package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ageniuscoder/gigchat/internal/client"
)

var starUnset bool

func init() {
	rootCmd.AddCommand(starCmd, deleteCmd)
	starCmd.Flags().BoolVar(&starUnset, "unset", false, "remove the star")
}

var starCmd = &cobra.Command{
	Use:   "star <message-id>",
	Short: "Star or unstar a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, _, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := s.Star(ctx, args[0], !starUnset)
		if err != nil {
			return notFound(args[0], err)
		}
		if flagJSON {
			return writeJSON(os.Stdout, m)
		}
		fmt.Fprintf(os.Stdout, "%s starred=%t\n", m.ID, m.Starred)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <message-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a message you sent",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, _, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Delete(ctx, args[0]); err != nil {
			return notFound(args[0], err)
		}
		fmt.Fprintf(os.Stdout, "deleted %s\n", args[0])
		return nil
	},
}

func notFound(id string, err error) error {
	if client.IsNotFound(err) {
		return fmt.Errorf("message %s does not exist or was already deleted", id)
	}
	return err
}
