// Package config handles configuration loading for campus-gateway.
//
// # Configuration File
//
// The path is chosen in this order:
//
//  1. The --config flag
//  2. Path from CAMPUS_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/campus/gateway.yaml (~/.config/campus/gateway.yaml)
//
// Files ending in .toml are read as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${CAMPUS_JWT_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
//	database:
//	  path: "/var/lib/campus/gateway.db"
//
//	auth:
//	  jwt_secret: "${CAMPUS_JWT_SECRET}"   # required, at least 32 bytes
//	  issuer: "campus-gateway"
//	  token_ttl: "2h"
//	  bcrypt_cost: 10
//	  login_rate_limit:
//	    requests_per_minute: 10
//	    burst: 5
//	    max_clients: 10000
//
//	cors:
//	  allowed_origins: ["https://portal.example.edu"]
//
//	authorization:
//	  rules:
//	    - method: "GET"
//	      pattern: "/reports/*"
//	      roles: ["PROFESSOR", "COORDENADOR"]
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Secrets
//
// auth.jwt_secret is a Secret: it prints and serializes as "[REDACTED]".
// Call Value to get the raw bytes.
package config
