package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/services"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/toast"
	"golang.org/x/sync/errgroup"
)

// DefaultConnectTimeout bounds a connect flow when none is configured.
const DefaultConnectTimeout = 2 * time.Minute

// ConnectFlowOpts configures a [ConnectFlow].
type ConnectFlowOpts struct {
	// BaseURL is the backend connect URL base.
	BaseURL string
	Host    string
	// Port 0 picks a free port.
	Port    int
	Timeout time.Duration

	// UserID returns the id of the logged-in user.
	UserID   func() (models.ID, error)
	Open     shared.Opener
	Notifier toast.Notifier
	Logger   *log.Logger
}

// ConnectFlow links a platform account through the system browser.
type ConnectFlow struct {
	baseURL  string
	addr     string
	timeout  time.Duration
	userID   func() (models.ID, error)
	open     shared.Opener
	notifier toast.Notifier
	logger   *log.Logger
}

// NewConnectFlow creates a ConnectFlow, filling unset options with defaults.
func NewConnectFlow(opts ConnectFlowOpts) *ConnectFlow {
	f := &ConnectFlow{
		baseURL:  opts.BaseURL,
		addr:     net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		timeout:  opts.Timeout,
		userID:   opts.UserID,
		open:     opts.Open,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}
	if f.baseURL == "" {
		f.baseURL = services.DefaultBaseURL
	}
	if opts.Host == "" {
		f.addr = net.JoinHostPort("127.0.0.1", strconv.Itoa(opts.Port))
	}
	if f.timeout <= 0 {
		f.timeout = DefaultConnectTimeout
	}
	if f.open == nil {
		f.open = shared.OpenBrowser
	}
	if f.notifier == nil {
		f.notifier = toast.Discard{}
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard)
	}
	return f
}

// Connect opens the platform's connect page and waits for its completion event.
//
// Error events are returned as events; only transport problems, a bad state,
// cancellation and the timeout are errors.
func (f *ConnectFlow) Connect(ctx context.Context, platform models.Platform) (*models.ConnectEvent, error) {
	var userID models.ID
	if f.userID != nil {
		id, err := f.userID()
		if err != nil {
			return nil, err
		}
		userID = id
	}

	state, err := shared.NewState()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start callback listener: %v", shared.ErrConnectFailed, err)
	}

	redirect := "http://" + ln.Addr().String() + "/callback"
	connectURL, err := services.ConnectURL(f.baseURL, platform, userID, state, redirect)
	if err != nil {
		ln.Close()
		return nil, err
	}

	handler := NewConnectHandler(state)
	router := NewBasicRouter()
	router.Use(RequestLogger(f.logger))
	router.Handler(handler)
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f.logger.Info("waiting for connect callback", "platform", platform, "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("callback listener: %w", err)
		}
		return nil
	})

	var result ConnectResult
	g.Go(func() error {
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				f.logger.Warn("error shutting down callback listener", "error", err)
			}
		}()

		select {
		case result = <-handler.Result():
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	if err := f.open(connectURL); err != nil {
		f.logger.Warn("failed to open browser", "error", err)
		f.notifier.Show(toast.Warning, fmt.Sprintf("Could not open your browser. Open this URL to connect %s: %s", platform, connectURL))
	}

	if err := g.Wait(); err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %s connect did not finish within %s", shared.ErrTimeout, platform, f.timeout)
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", shared.ErrConnectFailed, err)
		}
	}

	if err := result.Error(); err != nil {
		return nil, err
	}
	if result.Event == nil {
		return nil, fmt.Errorf("%w: no event received", shared.ErrConnectFailed)
	}

	f.logger.Info("connect finished", "platform", platform, "type", result.Event.Type)
	return result.Event, nil
}
