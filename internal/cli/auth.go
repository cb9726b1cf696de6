package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/idilsaglam/violet/internal/auth"
	"github.com/idilsaglam/violet/internal/config"
	"github.com/idilsaglam/violet/internal/ui"
	"github.com/spf13/cobra"
)

func (a *app) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the token sent to the backend",
	}
	cmd.AddCommand(a.authLoginCmd(), a.authLogoutCmd(), a.authStatusCmd())
	return cmd
}

func (a *app) authLoginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a bearer token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("token") {
				_, _ = fmt.Fprint(a.out, "Paste your token: ")
				line, err := a.in.ReadString('\n')
				if err != nil && strings.TrimSpace(line) == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			st := auth.Store{Dir: config.Dir()}
			if err := st.Set(token, nil); err != nil {
				return &usageError{err: fmt.Errorf("save token: %w", err)}
			}
			ui.OK("logged in")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token to save instead of prompting")
	return cmd
}

func (a *app) authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			st := auth.Store{Dir: config.Dir()}
			ti, _ := st.Get()
			if ti != nil && ti.Source == auth.SourceEnv {
				ui.OK("token is provided by " + auth.EnvToken + " (nothing to delete)")
				return nil
			}
			if err := st.Delete(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK("logged out")
			return nil
		},
	}
}

func (a *app) authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"whoami"},
		Short:   "Show where the token comes from and what it claims",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			st := auth.Store{Dir: config.Dir()}
			ti, err := st.Get()
			if err != nil {
				return err
			}
			if ti == nil {
				ui.Info("not logged in")
				_, _ = fmt.Fprintln(a.out, "Run: violet auth login")
				return nil
			}

			_, _ = fmt.Fprintf(a.out, "source: %s\n", ti.Source)
			if ti.Source == auth.SourceFile {
				_, _ = fmt.Fprintf(a.out, "file: %s\n", st.Path())
			}
			switch {
			case ti.ExpiresAt == nil:
				_, _ = fmt.Fprintln(a.out, "expires: (unknown)")
			case ti.Expired(time.Now()):
				_, _ = fmt.Fprintf(a.out, "expires: %s %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339), ui.Current().Error.Render("(expired)"))
			default:
				_, _ = fmt.Fprintf(a.out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
			}
			if claims, ok := auth.Claims(ti.Token); ok {
				_, _ = fmt.Fprintln(a.out, "claims:", claims)
			} else {
				_, _ = fmt.Fprintln(a.out, "opaque token (cannot introspect locally)")
			}
			_, _ = fmt.Fprintln(a.out, "env override:", auth.EnvToken)
			return nil
		},
	}
}
