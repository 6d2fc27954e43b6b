// Package auth provides authentication and authorization for campus-gateway.
//
// # Token Codec
//
// JWTCodec issues and validates compact HS256 tokens:
//
//	codec, err := NewJWTCodec(secret, WithIssuer("campus-gateway"), WithTTL(2*time.Hour))
//	token, err := codec.Issue(principal)
//	identifier, err := codec.Validate(token)
//
// Tokens carry iss, sub (the principal identifier), iat and exp. Nothing else:
// the role is resolved from the store on every request, so a role change applies
// to tokens already issued. Only HS256 is accepted, base64url segments must be
// canonical, and the secret must be at least MinSecretLength bytes. There is no
// revocation; a token stays valid until exp.
//
// # Authentication Gate
//
// Authenticator.Login compares a secret with the stored bcrypt hash and returns a
// token. Unknown identifiers and wrong secrets both return ErrBadCredentials, and
// unknown identifiers still pay for one bcrypt comparison.
//
// Authenticator.Register hashes the secret and inserts the principal. Duplicate
// identifiers are caught by the store's UNIQUE constraint and reported as
// ErrIdentifierTaken.
//
// # Request Interceptor
//
// Interceptor is HTTP middleware that runs before routing. It reads
// "Authorization: Bearer <token>", validates it, resolves the subject and attaches
// an AuthContext. Any failure leaves the request anonymous; it never writes a
// response.
//
// # Authorization Policy
//
// Policy is an ordered table of Rules compiled into a casbin priority model.
// The first rule matching method and path decides:
//
//   - Public: allowed for everyone
//   - Roles: 401 when anonymous, 403 when the role is not listed
//   - neither: any authenticated caller
//
// Requests matching no rule require authentication. Policy.Middleware turns the
// decision into a bare 401 or 403.
package auth
