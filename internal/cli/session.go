package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tracker/internal/app"
	"tracker/internal/auth"
	"tracker/internal/core"
)

type sessionView struct {
	Authenticated bool       `json:"authenticated"`
	User          *core.User `json:"user,omitempty"`
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Start a session",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLogin: "true"},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return rootOpts.withApp(cmd, false, func(cmd *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		if rootOpts.alreadyLoggedIn {
			u, _ := a.Auth.Current()
			return out.Success(sessionView{Authenticated: true, User: &u}, func(w io.Writer) {
				fmt.Fprintf(w, "Already logged in as %s\n", u.Email)
			})
		}
		u, err := a.Auth.Login(cmd.Context(), email, password)
		if errors.Is(err, auth.ErrMissingCredentials) {
			return NewExitError(ExitFailure, "email and password are required")
		}
		if err != nil {
			return failed("login failed", err)
		}
		return out.Success(sessionView{Authenticated: true, User: &u}, func(w io.Writer) {
			fmt.Fprintf(w, "Logged in as %s (%s)\n", u.Name, u.Email)
		})
	})
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
	}
	return rootOpts.withApp(cmd, false, func(cmd *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		if err := a.Auth.Logout(cmd.Context()); err != nil {
			return failed("logout failed", err)
		}
		return out.Success(sessionView{}, func(w io.Writer) { fmt.Fprintln(w, "Logged out") })
	})
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
	}
	return rootOpts.withApp(cmd, false, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		u, ok := a.Auth.Current()
		view := sessionView{Authenticated: ok}
		if ok {
			view.User = &u
		}
		return out.Success(view, func(w io.Writer) {
			if !ok {
				fmt.Fprintln(w, "Not logged in")
				return
			}
			fmt.Fprintf(w, "%s <%s>\n", u.Name, u.Email)
		})
	})
}
