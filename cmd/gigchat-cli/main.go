package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ageniuscoder/gigchat/internal/client"
	"github.com/ageniuscoder/gigchat/internal/config"
	"github.com/ageniuscoder/gigchat/internal/identity"
	"github.com/ageniuscoder/gigchat/internal/logger"
	"github.com/ageniuscoder/gigchat/internal/session"
)

var (
	flagServer   string
	flagToken    string
	flagUser     string
	flagOrg      string
	flagOrgName  string
	flagJSON     bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "gigchat-cli",
	Short:         "Chat with clients and freelancers from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	_ = godotenv.Load()
	cfg := config.LoadClient()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagServer, "server", cfg.Server, "server base URL (GIGCHAT_SERVER)")
	pf.StringVar(&flagToken, "token", cfg.Token, "bearer token (GIGCHAT_TOKEN)")
	pf.StringVar(&flagUser, "user", cfg.UserID, "your user id; looked up from the token when empty (GIGCHAT_USER)")
	pf.StringVar(&flagOrg, "org", cfg.OrgID, "act on behalf of this organization (GIGCHAT_ORG)")
	pf.StringVar(&flagOrgName, "org-name", "", "display name of --org")
	pf.BoolVar(&flagJSON, "json", false, "print JSON")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "log level")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openSession builds a session for the configured identity. The caller
// closes it.
func openSession(ctx context.Context) (*session.Session, *client.Client, error) {
	if flagToken == "" {
		return nil, nil, errors.New("no token: set --token or GIGCHAT_TOKEN")
	}
	c, err := client.New(flagServer, flagToken)
	if err != nil {
		return nil, nil, err
	}
	user := flagUser
	if user == "" {
		me, err := c.Me(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("who am i: %w", err)
		}
		user = me.ID
	}

	scope := identity.NewPersonal(user)
	if flagOrg != "" {
		scope = identity.NewOrganizational(user, flagOrg, flagOrgName, nil)
	}
	lg := logger.New(flagLogLevel)
	s := session.New(c, client.NewPush(c, lg), identity.NewSwitch(scope), lg)
	return s, c, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
