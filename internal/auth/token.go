// ABOUTME: JWT token codec for issuing and validating bearer tokens
// ABOUTME: HS256 only, with issuer, subject and expiry claims and a 2h default lifetime

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/2389/campus-gateway/internal/store"
)

// MinSecretLength is the minimum signing secret length in bytes (256 bits for HS256).
const MinSecretLength = 32

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 2 * time.Hour

// DefaultIssuer is the iss claim used when none is configured.
const DefaultIssuer = "campus-gateway"

// Token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrMissingClaim   = errors.New("missing required claim")
	ErrSecretTooShort = errors.New("jwt secret too short")
)

// TokenIssuer mints a token for an authenticated principal.
type TokenIssuer interface {
	Issue(p *store.Principal) (string, error)
}

// TokenValidator checks a token and returns its subject.
type TokenValidator interface {
	Validate(tokenString string) (subject string, err error)
}

// CodecOption configures a JWTCodec.
type CodecOption func(*JWTCodec)

// WithIssuer sets the iss claim written on issue and required on validation.
func WithIssuer(issuer string) CodecOption {
	return func(c *JWTCodec) {
		if issuer != "" {
			c.issuer = issuer
		}
	}
}

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *JWTCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now for both issuing and validating.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// JWTCodec implements TokenIssuer and TokenValidator using HS256 signed JWTs.
type JWTCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

var (
	_ TokenIssuer    = (*JWTCodec)(nil)
	_ TokenValidator = (*JWTCodec)(nil)
)

// NewJWTCodec creates a codec with the given secret.
// Returns ErrSecretTooShort if the secret is shorter than MinSecretLength.
func NewJWTCodec(secret []byte, opts ...CodecOption) (*JWTCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrSecretTooShort, len(secret), MinSecretLength)
	}

	c := &JWTCodec{
		secret: append([]byte(nil), secret...),
		issuer: DefaultIssuer,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)

	return c, nil
}

// TTL returns the configured token lifetime.
func (c *JWTCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token whose subject is the principal's identifier.
func (c *JWTCodec) Issue(p *store.Principal) (string, error) {
	if p == nil || p.Identifier == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   p.Identifier,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry, then returns the "sub" claim.
// A token is valid strictly before its exp instant and invalid at or after it.
func (c *JWTCodec) Validate(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := c.parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return "", fmt.Errorf("%w: exp", ErrMissingClaim)
		default:
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return claims.Subject, nil
}
