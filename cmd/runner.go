package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/repositories"
	"github.com/desertthunder/mazeed/internal/services"
	"github.com/desertthunder/mazeed/internal/session"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/tasks"
	"github.com/desertthunder/mazeed/internal/toast"
	"github.com/desertthunder/mazeed/internal/workflow"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      repositories.KeyValueStore
	creds      *repositories.CredentialStore
	history    *repositories.JobRepository
	session    *session.Manager
	api        *services.APIService
	jobs       *tasks.JobRunner
	connector  workflow.Connector
	toasts     *toast.Bus
	logger     *log.Logger
	output     io.Writer

	// stopPrinting detaches the toast printer; the TUI draws toasts itself.
	stopPrinting func()
	closers      []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      repositories.KeyValueStore
	History    *repositories.JobRepository
	Session    *session.Manager
	API        *services.APIService
	Jobs       *tasks.JobRunner
	Connector  workflow.Connector
	Toasts     *toast.Bus
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// Toasts shown on the bus are printed to the output until the TUI takes over.
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{}
	r.init(opts)
	return r
}

func (r *Runner) init(opts RunnerOpts) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Store == nil {
		opts.Store = repositories.NewMemoryStore()
	}
	if opts.Toasts == nil {
		opts.Toasts = toast.NewBus(toast.BusOpts{Logger: opts.Logger})
	}
	if r.stopPrinting != nil {
		r.stopPrinting()
	}

	r.config = opts.Config
	r.configPath = opts.ConfigPath
	r.store = opts.Store
	r.creds = repositories.NewCredentialStore(opts.Store)
	r.history = opts.History
	r.session = opts.Session
	r.api = opts.API
	r.jobs = opts.Jobs
	r.connector = opts.Connector
	r.toasts = opts.Toasts
	r.logger = opts.Logger
	r.output = opts.Output
	r.stopPrinting = r.toasts.Subscribe(r.printToast)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, connectCommand, contentCommand, jobsCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// userID returns the id of the stored credential.
func (r *Runner) userID() (models.ID, error) {
	cred, err := r.creds.Load()
	if err != nil {
		return "", err
	}
	if cred.UserID == "" {
		return "", fmt.Errorf("%w: credential has no user id", shared.ErrNotAuthenticated)
	}
	return cred.UserID, nil
}

// printToast writes shown toasts as status lines. Dismissals are ignored.
func (r *Runner) printToast(ev toast.Event) {
	if ev.Dismissed {
		return
	}
	var mark string
	switch ev.Message.Kind {
	case toast.Success:
		mark = "✓"
	case toast.Error:
		mark = "✗"
	case toast.Warning:
		mark = "!"
	default:
		mark = "•"
	}
	r.writePlain("%s %s\n", mark, ev.Message.Text)
}

// Navigate prints the command that continues the flow the session manager routed to.
func (r *Runner) Navigate(route string) {
	u, err := url.Parse(route)
	if err != nil {
		r.logger.Debug("unparseable route", "route", route, "error", err)
		return
	}
	email := u.Query().Get("email")

	switch session.Route(u.Path).Resolve() {
	case session.RouteLogin:
		r.writePlain("Next: mazeed auth login --email <email>\n")
	case session.RouteVerifyOTP:
		r.writePlain("Next: mazeed auth verify-otp --email %s --otp <code>\n", email)
	case session.RouteResetPassword:
		r.writePlain("Next: mazeed auth reset-password --email %s --otp <code>\n", email)
	case session.RouteDashboard:
		r.writePlain("Next: mazeed connect instagram or mazeed tui\n")
	}
}

var _ session.Navigator = (*Runner)(nil)

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
