package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scopeCmd)
}

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Show who you act as and, under an organization, your teammates",
	Args:  cobra.NoArgs,
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
		sc := s.Scope()
		if flagJSON {
			return writeJSON(os.Stdout, map[string]any{
				"kind":    sc.Kind.String(),
				"viewer":  sc.ViewerID,
				"org_id":  sc.OrgID,
				"members": sc.MemberIDs(),
			})
		}
		fmt.Fprintf(os.Stdout, "%s as %s\n", sc.Kind, sc.ViewerID)
		if sc.OrgID != "" {
			fmt.Fprintf(os.Stdout, "organization %s, members: %s\n", sc.OrgID, strings.Join(sc.MemberIDs(), ", "))
		}
		return nil
	},
}
