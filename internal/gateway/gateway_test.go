// ABOUTME: Tests for Gateway construction, lifecycle and the health endpoint
// ABOUTME: Runs a real HTTP server on a free port and shuts it down via context cancel

package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/campus-gateway/internal/auth"
	"github.com/2389/campus-gateway/internal/config"
	"github.com/2389/campus-gateway/internal/store"
)

// testSecret is exactly MinSecretLength bytes.
const testSecret = "gateway-test-secret-32-bytes!!!!"

// testConfig creates a minimal config for testing with an available port.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	httpListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find available HTTP port: %v", err)
	}
	httpAddr := httpListener.Addr().String()
	httpListener.Close()

	return &config.Config{
		Server: config.ServerConfig{
			HTTPAddr: httpAddr,
		},
		Database: config.DatabaseConfig{
			Path: ":memory:",
		},
		Auth: config.AuthConfig{
			JWTSecret:  config.Secret(testSecret),
			Issuer:     config.DefaultIssuer,
			BcryptCost: bcrypt.MinCost,
			TokenTTL:   config.DefaultTokenTTL,
			LoginRateLimit: config.LoginRateLimitConfig{
				Disabled: true,
			},
		},
	}
}

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestGateway builds a gateway over a SQLite store in a temp directory.
func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	return newTestGatewayWithConfig(t, testConfig(t))
}

func newTestGatewayWithConfig(t *testing.T, cfg *config.Config) *Gateway {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "gateway.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	gw, err := NewWithStore(cfg, s, testLogger())
	if err != nil {
		s.Close()
		t.Fatalf("NewWithStore() failed: %v", err)
	}
	t.Cleanup(func() {
		_ = gw.store.Close()
	})
	return gw
}

func TestGatewayNew(t *testing.T) {
	cfg := testConfig(t)
	logger := testLogger()

	gw, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer gw.Shutdown(context.Background())

	if gw.config != cfg {
		t.Error("gateway config mismatch")
	}
	if gw.store == nil {
		t.Error("store should not be nil")
	}
	if gw.codec == nil {
		t.Error("codec should not be nil")
	}
	if gw.authn == nil {
		t.Error("authenticator should not be nil")
	}
	if gw.policy == nil {
		t.Error("policy should not be nil")
	}
	if gw.throttle != nil {
		t.Error("throttle should be nil when disabled")
	}
	if gw.Handler() == nil {
		t.Error("handler should not be nil")
	}
}

func TestGatewayNew_ShortSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "too-short"

	_, err := New(cfg, testLogger())
	if !errors.Is(err, auth.ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
}

func TestGatewayNew_InvalidRule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Authorization.Rules = []config.RuleConfig{
		{Method: "GET", Pattern: "no-leading-slash"},
	}

	_, err := New(cfg, testLogger())
	if !errors.Is(err, auth.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
}

func TestGatewayNew_DBPathFromEnv(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("CAMPUS_DB_PATH", dbPath)

	cfg := testConfig(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "ignored", "nested", "config.db")

	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer gw.Shutdown(context.Background())

	reopened, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("env database was not created: %v", err)
	}
	reopened.Close()
}

func TestGatewayRunAndShutdown(t *testing.T) {
	cfg := testConfig(t)
	logger := testLogger()

	gw, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Run gateway in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Run(ctx)
	}()

	waitForHealthy(t, "http://"+cfg.Server.HTTPAddr+"/health")

	// Shutdown via context cancel
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("gateway did not shutdown in time")
	}
}

func TestGatewayRun_AddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.HTTPAddr = ln.Addr().String()

	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer gw.store.Close()

	if err := gw.Run(context.Background()); err == nil {
		t.Fatal("expected Run() to fail on a taken address")
	}
}

func TestHealthEndpoint(t *testing.T) {
	gw := newTestGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	gw.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("expected body 'OK', got %q", rec.Body.String())
	}
}

// waitForHealthy polls url until it answers 200 or two seconds pass.
func waitForHealthy(t *testing.T, url string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server at %s never became healthy", url)
}
