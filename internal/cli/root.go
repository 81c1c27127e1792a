package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tracker/internal/app"
	"tracker/internal/auth"
)

// Command annotations read by the root pre-run hook.
const (
	annotationApp   = "tracker/app"
	annotationAuth  = "tracker/requiresAuth"
	annotationLogin = "tracker/login"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// AppOpener builds the App a command runs against.
type AppOpener func(ctx context.Context, verbose bool, stderr io.Writer) (*app.App, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	open AppOpener
	app  *app.App
	// alreadyLoggedIn is set by the guard for the login command.
	alreadyLoggedIn bool
}

// NewRootCommand creates the root command of the tracker CLI. A nil open
// reads configuration from the environment.
func NewRootCommand(open AppOpener) *cobra.Command {
	if open == nil {
		open = EnvAppOpener
	}
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Personal tasks, time, spending and links",
		Long:          "Track tasks, time entries, expenses with budgets and saved links from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if cmd.Annotations[annotationApp] == "" {
				return nil
			}
			return opts.openApp(cmd)
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewTaskCommand(opts))
	cmd.AddCommand(NewExpenseCommand(opts))
	cmd.AddCommand(NewBudgetCommand(opts))
	cmd.AddCommand(NewTimerCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))

	return cmd
}

// Execute runs root and reports a failure on stderr, returning the exit code.
func Execute(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	code := GetExitCode(err)
	format, _ := root.PersistentFlags().GetString("format")
	f := &OutputFormatter{Format: format, Writer: root.OutOrStdout(), ErrWriter: root.ErrOrStderr()}
	_ = f.Error(errorCodeFor(code), err.Error())
	return code
}

// openApp loads the stores and applies the session guard.
func (o *RootOptions) openApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := o.open(ctx, o.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open stores", err)
	}
	if err := a.Load(ctx); err != nil {
		_ = a.Close()
		return WrapExitError(ExitCommandError, "failed to load stores", err)
	}

	_, authenticated := a.Auth.Current()
	switch auth.Decide(cmd.Annotations[annotationAuth] != "", cmd.Annotations[annotationLogin] != "", authenticated) {
	case auth.RequireLogin:
		_ = a.Close()
		return NewExitError(ExitAuthRequired, "not logged in: run 'tracker login' first")
	case auth.AlreadyLoggedIn:
		o.alreadyLoggedIn = true
	}
	o.app = a
	return nil
}

func (o *RootOptions) closeApp() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// appRunner is the body of a command that works on the opened App.
type appRunner func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error

// withApp marks cmd as needing the App, with or without a session, and
// installs run as its body. The App is closed when run returns.
func (o *RootOptions) withApp(cmd *cobra.Command, requiresAuth bool, run appRunner) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationApp] = "true"
	if requiresAuth {
		cmd.Annotations[annotationAuth] = "true"
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := o.closeApp(); cerr != nil {
				err = errors.Join(err, WrapExitError(ExitCommandError, "failed to close stores", cerr))
			}
		}()
		if o.app == nil {
			return NewExitError(ExitCommandError, "stores not opened")
		}
		return run(cmd, args, o.app, o.formatter(cmd))
	}
	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
