// ABOUTME: bootstrap command that creates the first ADMIN principal on an empty store
// ABOUTME: Generates a secret when none is given and prints a token for immediate use

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/campus-gateway/internal/auth"
	"github.com/2389/campus-gateway/internal/config"
	"github.com/2389/campus-gateway/internal/gateway"
	"github.com/2389/campus-gateway/internal/store"
)

// EnvBootstrapSecret supplies the admin secret without putting it on the command line.
const EnvBootstrapSecret = "CAMPUS_BOOTSTRAP_SECRET"

type bootstrapOptions struct {
	identifier string
	name       string
	secret     string
}

func newBootstrapCmd(configFlag *string) *cobra.Command {
	var opts bootstrapOptions

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the initial ADMIN principal",
		Long: `Create the first ADMIN principal on an empty database and print a token.

The secret is read from $` + EnvBootstrapSecret + ` when set. Otherwise a random
secret is generated and printed once.

Examples:
  campus-gateway bootstrap --identifier admin@campus.example --name "Registrar"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			opts.secret = os.Getenv(EnvBootstrapSecret)
			return runBootstrap(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.identifier, "identifier", "i", "", "login identifier for the admin (required)")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "display name (defaults to the identifier)")
	_ = cmd.MarkFlagRequired("identifier")
	return cmd
}

func runBootstrap(ctx context.Context, cfg *config.Config, opts bootstrapOptions, out io.Writer) error {
	identifier := strings.TrimSpace(opts.identifier)
	if identifier == "" {
		return fmt.Errorf("--identifier cannot be empty or whitespace only")
	}
	name := strings.TrimSpace(opts.name)
	if len(name) > 100 {
		return fmt.Errorf("display name exceeds maximum length of 100 characters")
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	dbPath := gateway.ResolveDBPath(cfg)
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	green.Fprintf(out, "  ✓ Database: %s\n", dbPath)

	count, err := s.CountPrincipals(ctx)
	if err != nil {
		return fmt.Errorf("checking principals: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("bootstrap already complete: %d principal(s) exist", count)
	}

	secret := opts.secret
	generated := secret == ""
	if generated {
		secret, err = generateSecret()
		if err != nil {
			return err
		}
	}

	codec, err := gateway.NewCodec(cfg)
	if err != nil {
		return err
	}
	authn, err := auth.NewAuthenticator(s, codec, auth.WithBcryptCost(cfg.Auth.BcryptCost))
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	principal, err := authn.Register(ctx, auth.RegisterRequest{
		Identifier: identifier,
		Secret:     secret,
		Name:       name,
		Role:       store.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("creating admin principal: %w", err)
	}
	green.Fprintf(out, "  ✓ Created admin principal: %s\n", principal.Identifier)

	token, err := codec.Issue(principal)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	fmt.Fprintln(out)
	green.Fprintln(out, "  Bootstrap complete!")
	fmt.Fprintln(out)
	cyan.Fprintln(out, "  Admin Principal")
	cyan.Fprintln(out, "  ---------------")
	fmt.Fprintf(out, "  ID:           %s\n", principal.ID)
	fmt.Fprintf(out, "  Identifier:   %s\n", principal.Identifier)
	fmt.Fprintf(out, "  Display Name: %s\n", principal.DisplayName)
	fmt.Fprintf(out, "  Role:         %s\n", principal.Role)
	if generated {
		fmt.Fprintf(out, "  Secret:       %s\n", secret)
	}
	fmt.Fprintf(out, "  Token:        %s\n", token)
	fmt.Fprintf(out, "  Expires in:   %s\n", codec.TTL())
	fmt.Fprintln(out)

	if generated {
		yellow.Fprintln(out, "  The generated secret is shown only once. Store it now.")
		fmt.Fprintln(out)
	}
	return nil
}

// generateSecret returns 24 random bytes, URL-safe encoded.
func generateSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
