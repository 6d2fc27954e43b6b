// ABOUTME: Tests for the campus-gateway command tree
// ABOUTME: Drives commands through cobra with a temp config and captured output

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/campus-gateway/internal/auth"
	"github.com/2389/campus-gateway/internal/config"
	"github.com/2389/campus-gateway/internal/gateway"
	"github.com/2389/campus-gateway/internal/store"
)

func init() {
	color.NoColor = true
}

// writeTestConfig writes a minimal YAML config into a temp dir and returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	content := `server:
  http_addr: "127.0.0.1:0"
database:
  path: "` + filepath.Join(dir, "campus.db") + `"
auth:
  jwt_secret: "cmd-test-secret-that-is-32-bytes"
  bcrypt_cost: 4
logging:
  level: debug
`
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// outputField returns the value printed after "label:" in bootstrap output.
func outputField(t *testing.T, output, label string) string {
	t.Helper()

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, label+":"); ok {
			return strings.TrimSpace(rest)
		}
	}
	t.Fatalf("%q not found in output:\n%s", label, output)
	return ""
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "campus-gateway dev\n", out)
}

func TestServe_MissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestBootstrap_GeneratesSecretAndToken(t *testing.T) {
	t.Setenv(EnvBootstrapSecret, "")
	configPath := writeTestConfig(t)

	out, err := execute(t, "--config", configPath, "bootstrap", "--identifier", "registrar@campus.test", "--name", "Registrar")
	require.NoError(t, err)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	codec, err := gateway.NewCodec(cfg)
	require.NoError(t, err)

	subject, err := codec.Validate(outputField(t, out, "Token"))
	require.NoError(t, err)
	assert.Equal(t, "registrar@campus.test", subject)
	assert.Equal(t, "ADMIN", outputField(t, out, "Role"))

	secret := outputField(t, out, "Secret")
	require.NotEmpty(t, secret)

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	require.NoError(t, err)
	defer s.Close()

	authn, err := auth.NewAuthenticator(s, codec, auth.WithBcryptCost(cfg.Auth.BcryptCost))
	require.NoError(t, err)
	_, err = authn.Login(context.Background(), "registrar@campus.test", secret)
	assert.NoError(t, err)

	p, err := s.GetPrincipalByIdentifier(context.Background(), "registrar@campus.test")
	require.NoError(t, err)
	assert.Equal(t, store.RoleAdmin, p.Role)
	assert.Equal(t, "Registrar", p.DisplayName)
}

func TestBootstrap_SecretFromEnvironment(t *testing.T) {
	t.Setenv(EnvBootstrapSecret, "correct horse battery staple")
	configPath := writeTestConfig(t)

	out, err := execute(t, "--config", configPath, "bootstrap", "-i", "root@campus.test")
	require.NoError(t, err)
	assert.NotContains(t, out, "Secret:")
	assert.NotContains(t, out, "correct horse")

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	require.NoError(t, err)
	defer s.Close()

	codec, err := gateway.NewCodec(cfg)
	require.NoError(t, err)
	authn, err := auth.NewAuthenticator(s, codec, auth.WithBcryptCost(cfg.Auth.BcryptCost))
	require.NoError(t, err)

	_, err = authn.Login(context.Background(), "root@campus.test", "correct horse battery staple")
	assert.NoError(t, err)
}

func TestBootstrap_RefusesNonEmptyStore(t *testing.T) {
	t.Setenv(EnvBootstrapSecret, "")
	configPath := writeTestConfig(t)

	_, err := execute(t, "--config", configPath, "bootstrap", "--identifier", "first@campus.test")
	require.NoError(t, err)

	_, err = execute(t, "--config", configPath, "bootstrap", "--identifier", "second@campus.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrap already complete")
}

func TestBootstrap_HonorsDBPathOverride(t *testing.T) {
	t.Setenv(EnvBootstrapSecret, "")
	envDB := filepath.Join(t.TempDir(), "override.db")
	t.Setenv(gateway.EnvDBPath, envDB)
	configPath := writeTestConfig(t)

	out, err := execute(t, "--config", configPath, "bootstrap", "--identifier", "registrar@campus.test")
	require.NoError(t, err)
	assert.Contains(t, out, "Database: "+envDB)

	s, err := store.NewSQLiteStore(envDB)
	require.NoError(t, err)
	defer s.Close()

	count, err := s.CountPrincipals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	p, err := s.GetPrincipalByIdentifier(context.Background(), "registrar@campus.test")
	require.NoError(t, err)
	assert.Equal(t, store.RoleAdmin, p.Role)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	_, err = os.Stat(cfg.Database.Path)
	assert.True(t, os.IsNotExist(err), "configured database must not be created when overridden")
}

func TestBootstrap_TrimsDisplayName(t *testing.T) {
	t.Setenv(EnvBootstrapSecret, "")
	configPath := writeTestConfig(t)

	name := strings.Repeat("n", 98)
	_, err := execute(t, "--config", configPath, "bootstrap", "--identifier", "registrar@campus.test", "--name", "   "+name+"   ")
	require.NoError(t, err)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.GetPrincipalByIdentifier(context.Background(), "registrar@campus.test")
	require.NoError(t, err)
	assert.Equal(t, name, p.DisplayName)

	_, err = execute(t, "--config", writeTestConfig(t), "bootstrap", "--identifier", "other@campus.test", "--name", strings.Repeat("n", 101))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum length")
}

func TestBootstrap_RequiresIdentifier(t *testing.T) {
	configPath := writeTestConfig(t)

	_, err := execute(t, "--config", configPath, "bootstrap")
	assert.Error(t, err)

	_, err = execute(t, "--config", configPath, "bootstrap", "--identifier", "   ")
	assert.Error(t, err)
}

func TestHealthCommand(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	out, err := execute(t, "health", "--url", srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "healthy\n", out)

	status = http.StatusServiceUnavailable
	_, err = execute(t, "health", "--url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "component", "auth")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "auth", entry["component"])
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.With("component", "gateway").WithGroup("req").Info("served", "status", 200)
	logger.Error("failed", slog.String("error", "boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "INF served")
	assert.Contains(t, lines[0], "component=gateway")
	assert.Contains(t, lines[0], "req.status=200")
	assert.Contains(t, lines[1], "ERR failed")
	assert.Contains(t, lines[1], "error=boom")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
