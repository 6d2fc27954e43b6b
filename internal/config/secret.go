// ABOUTME: Redacting string type for sensitive configuration values
// ABOUTME: Keeps the signing secret out of logs, %v/%#v output and serialized config

package config

// secretRedacted is printed in place of the value.
const secretRedacted = "[REDACTED]"

// Secret is a string that redacts itself when printed or serialized.
// Use Value where the raw secret is required, such as building the token codec.
type Secret string

// String returns the redacted placeholder.
func (s Secret) String() string { return secretRedacted }

// GoString returns the redacted placeholder for %#v.
func (s Secret) GoString() string { return secretRedacted }

// Value returns the actual secret.
func (s Secret) Value() string { return string(s) }

// MarshalText returns the redacted placeholder so JSON, YAML and slog output never
// carry the value.
func (s Secret) MarshalText() ([]byte, error) { return []byte(secretRedacted), nil }
