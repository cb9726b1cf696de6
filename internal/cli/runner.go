// Package cli wires the violet commands: the dashboard, one-shot record
// commands, the reference server and credential management.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/idilsaglam/violet/internal/auth"
	"github.com/idilsaglam/violet/internal/config"
	"github.com/idilsaglam/violet/internal/controller"
	"github.com/idilsaglam/violet/internal/gateway"
	"github.com/idilsaglam/violet/internal/logging"
	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/store"
	"github.com/idilsaglam/violet/internal/ui"
	"github.com/idilsaglam/violet/internal/view"
	"github.com/spf13/cobra"
)

// Exit codes: 0 ok, 1 runtime error, 2 usage or validation error.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks bad arguments or flags.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// reportedError marks an error the controller already showed to the user.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// app holds what every command shares once flags are parsed.
type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	flags *config.Flags
	yes   bool

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// Execute runs violet with the process arguments and returns the exit code.
func Execute() int {
	return Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes one command line against the given streams.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{in: bufio.NewReader(in), out: out, errOut: errOut}
	defer a.close()

	ui.SetOutput(out, errOut)
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var rep *reportedError
	if !errors.As(err, &rep) {
		ui.Fail(err.Error())
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var (
		usage *usageError
		verr  *model.ValidationError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &usage), errors.As(err, &verr):
		return ExitUsage
	}
	return ExitError
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "violet",
		Short: "Manage agents, clients and their letters",
		Long: `violet talks to the letter-writing backend.

With no arguments it opens the dashboard. The other commands run one
operation and exit.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDash(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	a.flags = config.BindFlags(root.PersistentFlags())
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "answer yes to confirmation prompts")

	root.AddCommand(
		a.dashCmd(),
		a.agentsCmd(),
		a.clientsCmd(),
		a.lettersCmd(),
		a.reportCmd(),
		a.exportCmd(),
		a.authCmd(),
		a.serveCmd(),
	)
	return root
}

// setup loads configuration and opens the log. Commands log to the
// configured file; serve overrides this and logs to stderr.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.flags.Load()
	if err != nil {
		return &usageError{err: err}
	}
	a.cfg = cfg
	ui.SetTheme(cfg.Theme)

	if cmd.Name() == "serve" {
		return a.openLog(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: a.errOut})
	}
	return a.openLog(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
}

func (a *app) openLog(opts logging.Options) error {
	logger, closer, err := logging.New(opts)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	a.logger, a.closer = logger, closer
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// usageArgs turns cobra's argument errors into usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// session is one connection to the backend with its own store and view.
type session struct {
	gw    *gateway.Client
	store *store.Store
	view  *view.Renderer
	ctrl  *controller.Controller
}

func (a *app) connect(opts controller.Options) *session {
	gw := gateway.New(a.cfg.APIURL, gateway.Options{
		Token:   auth.Store{Dir: config.Dir()}.Token(),
		Timeout: a.cfg.RequestTimeout(),
		Logger:  a.logger,
	})
	st := store.New(gw)
	rv := view.NewRenderer(nil)
	opts.Logger = a.logger
	return &session{gw: gw, store: st, view: rv, ctrl: controller.New(gw, st, rv, opts)}
}

// connectCLI wires notices to stdout/stderr and prompts on stdin.
func (a *app) connectCLI() *session {
	var confirm controller.Confirmer = controller.ConfirmerFunc(a.prompt)
	if a.yes {
		confirm = controller.AlwaysConfirm
	}
	return a.connect(controller.Options{
		Confirmer: confirm,
		Notifier:  controller.NotifierFunc(printNotice),
	})
}

func printNotice(n controller.Notice) {
	switch n.Level {
	case controller.LevelSuccess:
		ui.OK(n.Text)
	case controller.LevelError:
		ui.Fail(n.Text)
	default:
		ui.Info(n.Text)
	}
}

// prompt asks a y/N question. Anything but y or yes declines.
func (a *app) prompt(_ context.Context, question string) (bool, error) {
	_, _ = fmt.Fprintf(a.out, "%s [y/N]: ", question)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, usagef("not a record id: %q", s)
	}
	return id, nil
}
