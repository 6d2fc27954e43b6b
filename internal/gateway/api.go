// ABOUTME: HTTP API handlers for authentication and principal administration
// ABOUTME: Provides /auth/login, /auth/register, /auth/me and the /admin/principals endpoints

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/2389/campus-gateway/internal/auth"
	"github.com/2389/campus-gateway/internal/store"
)

// maxBodyBytes bounds request bodies on the JSON endpoints.
const maxBodyBytes = 64 << 10

// LoginRequest is the JSON request body for POST /auth/login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// LoginResponse is the JSON response for POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRequest is the JSON request body for POST /auth/register.
type RegisterRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

// PrincipalResponse is the public view of a principal. It never carries the hash.
type PrincipalResponse struct {
	Identifier string     `json:"identifier"`
	Name       string     `json:"name"`
	Role       store.Role `json:"role"`
}

// ListPrincipalsResponse is the JSON response for GET /admin/principals.
type ListPrincipalsResponse struct {
	Principals []PrincipalResponse `json:"principals"`
}

// UpdateRoleRequest is the JSON request body for PUT /admin/principals/{identifier}/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func principalResponse(p *store.Principal) PrincipalResponse {
	return PrincipalResponse{
		Identifier: p.Identifier,
		Name:       p.DisplayName,
		Role:       p.Role,
	}
}

// sendJSON writes v as a JSON response with the given status.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, map[string]string{"error": message})
}

// decodeBody decodes a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// handleLogin handles POST /auth/login.
// Every credential failure gets the same 400 body.
func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, err := g.authn.Login(r.Context(), req.Identifier, req.Secret)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			g.sendJSONError(w, http.StatusBadRequest, auth.ErrBadCredentials.Error())
			return
		}
		g.logger.Error("login failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.sendJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// handleRegister handles POST /auth/register. Success is a 200 with no body.
func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	_, err := g.authn.Register(r.Context(), auth.RegisterRequest{
		Identifier: req.Identifier,
		Secret:     req.Secret,
		Name:       req.Name,
		Role:       store.Role(req.Role),
	})
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, auth.ErrIdentifierTaken):
		g.sendJSONError(w, http.StatusBadRequest, auth.ErrIdentifierTaken.Error())
	case errors.Is(err, auth.ErrInvalidRegistration):
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
	default:
		g.logger.Error("registration failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// handleMe handles GET /auth/me. The default policy guarantees an AuthContext.
func (g *Gateway) handleMe(w http.ResponseWriter, r *http.Request) {
	ac := auth.MustFromContext(r.Context())
	g.sendJSON(w, http.StatusOK, PrincipalResponse{
		Identifier: ac.Identifier,
		Name:       ac.DisplayName,
		Role:       ac.Role,
	})
}

// handleListPrincipals handles GET /admin/principals.
func (g *Gateway) handleListPrincipals(w http.ResponseWriter, r *http.Request) {
	principals, err := g.store.ListPrincipals(r.Context())
	if err != nil {
		g.logger.Error("failed to list principals", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := ListPrincipalsResponse{Principals: make([]PrincipalResponse, 0, len(principals))}
	for _, p := range principals {
		resp.Principals = append(resp.Principals, principalResponse(p))
	}
	g.sendJSON(w, http.StatusOK, resp)
}

// handleUpdateRole handles PUT /admin/principals/{identifier}/role.
func (g *Gateway) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	// chi matches on the raw path, so escaped identifiers arrive still encoded.
	identifier, err := url.PathUnescape(chi.URLParam(r, "identifier"))
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	var req UpdateRoleRequest
	if err := decodeBody(w, r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	role, err := store.ParseRole(req.Role)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := g.store.UpdatePrincipalRole(r.Context(), identifier, role)
	if err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			g.sendJSONError(w, http.StatusNotFound, "principal not found")
			return
		}
		g.logger.Error("failed to update role", "identifier", identifier, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	actor := auth.MustFromContext(r.Context())
	g.logger.Info("principal role updated",
		"identifier", updated.Identifier,
		"role", updated.Role,
		"by", actor.Identifier,
	)
	g.sendJSON(w, http.StatusOK, principalResponse(updated))
}
