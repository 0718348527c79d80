package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/chartquery/internal/agent"
	"github.com/roach88/chartquery/internal/api"
	"github.com/roach88/chartquery/internal/pii"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string // overrides LISTEN_ADDR

	// Listener, when set, is served instead of listening on Addr (for testing).
	Listener net.Listener
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP query service",
		Long: `Start the HTTP service:

  POST /query      filter request -> {table, count, rows}
  POST /pii/clean  {text} -> {masked_text, findings}
  POST /chat       {message, session_id} -> {reply, session_id}
  GET  /tables     registered tables
  GET  /healthz    liveness

Stops gracefully on SIGINT or SIGTERM.

Example:
  chartquery serve --addr :9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $LISTEN_ADDR or :8080)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	rt, err := loadRuntime(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger := rt.logger

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var chat api.ChatResponder
	if rt.cfg.OpenAI.Configured() {
		model, err := newChatModel(rt.cfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create chat model", err)
		}
		chat = agent.NewSessions(func() *agent.Agent { return agent.New(model) }, agent.DefaultMaxSessions)
		logger.Info("chat enabled", "deployment", rt.cfg.OpenAI.Deployment)
	} else {
		logger.Info("chat disabled, Azure OpenAI is not configured")
	}

	router := api.NewRouter(ctx, api.Options{
		Engine:   rt.engine,
		Redactor: pii.Passthrough{},
		Chat:     chat,
		Logger:   logger,
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: rt.cfg.RateLimitRPS,
			Burst:             rt.cfg.RateLimitBurst,
		},
		AllowedOrigins: rt.cfg.CORSAllowedOrigins,
	})

	addr := opts.Addr
	if addr == "" {
		addr = rt.cfg.ListenAddr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  rt.cfg.ReadTimeout,
		WriteTimeout: rt.cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("listening", "addr", addr, "backend", rt.cfg.Database.Backend)
	if opts.Listener != nil {
		err = srv.Serve(opts.Listener)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
