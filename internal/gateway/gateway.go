// ABOUTME: Gateway orchestrator that wires the store, auth core and HTTP server
// ABOUTME: Manages server lifecycle, graceful shutdown and the health endpoint

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/campus-gateway/internal/auth"
	"github.com/2389/campus-gateway/internal/config"
	"github.com/2389/campus-gateway/internal/store"
)

// Gateway orchestrates the campus-gateway server components.
// Store, codec, authenticator and policy are built once in New and passed down.
type Gateway struct {
	config     *config.Config
	store      store.Store
	codec      *auth.JWTCodec
	authn      *auth.Authenticator
	policy     *auth.Policy
	throttle   *loginThrottle
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// EnvDBPath overrides database.path when set.
const EnvDBPath = "CAMPUS_DB_PATH"

// ResolveDBPath returns the database path every command should open:
// $CAMPUS_DB_PATH when set, otherwise the configured database.path.
func ResolveDBPath(cfg *config.Config) string {
	if envPath := os.Getenv(EnvDBPath); envPath != "" {
		return envPath
	}
	return cfg.Database.Path
}

// initStore creates and returns a store based on config and environment.
func initStore(cfg *config.Config) (store.Store, error) {
	s, err := store.NewSQLiteStore(ResolveDBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a Gateway backed by the SQLite store named in cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	gw, err := NewWithStore(cfg, s, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return gw, nil
}

// NewWithStore creates a Gateway over an existing store. The Gateway owns the
// store from here on and closes it on Shutdown.
func NewWithStore(cfg *config.Config, s store.Store, logger *slog.Logger) (*Gateway, error) {
	codec, err := NewCodec(cfg)
	if err != nil {
		return nil, err
	}

	authn, err := auth.NewAuthenticator(s, codec,
		auth.WithBcryptCost(cfg.Auth.BcryptCost),
		auth.WithGateLogger(logger.With("component", "auth")),
	)
	if err != nil {
		return nil, fmt.Errorf("creating authenticator: %w", err)
	}

	rules := append(DefaultRules(), RulesFromConfig(cfg.Authorization.Rules)...)
	policy, err := auth.NewPolicy(rules)
	if err != nil {
		return nil, fmt.Errorf("building authorization policy: %w", err)
	}

	throttle, err := newLoginThrottle(cfg.Auth.LoginRateLimit, logger.With("component", "throttle"))
	if err != nil {
		return nil, fmt.Errorf("creating login throttle: %w", err)
	}

	gw := &Gateway{
		config:   cfg,
		store:    s,
		codec:    codec,
		authn:    authn,
		policy:   policy,
		throttle: throttle,
		logger:   logger.With("component", "gateway"),
	}

	gw.handler = gw.newRouter(logger)
	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	gw.logger.Info("authorization policy loaded", "rules", len(rules))
	return gw, nil
}

// NewCodec builds the token codec from the auth section of cfg.
func NewCodec(cfg *config.Config) (*auth.JWTCodec, error) {
	codec, err := auth.NewJWTCodec([]byte(cfg.Auth.JWTSecret.Value()),
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token codec: %w", err)
	}
	return codec, nil
}

// Handler returns the fully wired HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// setupListener opens the TCP listener for the HTTP server.
func (g *Gateway) setupListener() (net.Listener, error) {
	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// startServer starts the HTTP server in a goroutine, returning error channel.
func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener()
	if err != nil {
		return err
	}

	errCh := g.startServer(ln)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "store close", g.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
