// Package gateway wires the campus-gateway HTTP server.
//
// # Overview
//
// The Gateway owns the credential store, the token codec, the Authenticator,
// the authorization Policy and the HTTP server. Everything is built once in
// New or NewWithStore and passed down explicitly.
//
// # Request Pipeline
//
// Every request flows through the same chain of root middleware, before any
// route is matched:
//
//	CORS (only when origins are configured)
//	  -> request ID -> panic recovery -> path cleaning
//	  -> auth.Interceptor   (attaches an AuthContext or leaves the request anonymous)
//	  -> request logging
//	  -> auth.Policy        (bare 401 / 403, or pass)
//	  -> login throttle     (credential endpoints only)
//	  -> handler
//
// Because the Policy runs before routing, an anonymous caller gets 401 on an
// unknown route rather than 404.
//
// # HTTP API
//
//   - POST /auth/login - Exchange identifier and secret for a token
//   - POST /auth/register - Create a principal (no token is issued)
//   - GET /auth/me - Describe the calling principal
//   - GET /admin/principals - List principals (ADMIN)
//   - PUT /admin/principals/{identifier}/role - Change a role (ADMIN)
//   - GET /health - Liveness check
//
// Error bodies are JSON objects of the form {"error": "..."}. Policy denials
// and throttled requests carry no body.
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	go gw.Run(ctx)
//
//	cancel() // Run shuts the server down and closes the store
package gateway
