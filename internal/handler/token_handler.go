package handler

import (
	"context"
	"net/http"

	"github.com/agentmeet/agentmeet-service/internal/repository"
	"github.com/agentmeet/agentmeet-service/internal/stream"
	"github.com/agentmeet/agentmeet-service/pkg/avatar"
)

// CallUserClient is the slice of the platform client the token handler
// needs.
type CallUserClient interface {
	UpsertUsers(ctx context.Context, users []stream.UpsertUser) error
	UserToken(userID string) (string, error)
}

// TokenHandler issues call platform user tokens for the authenticated user.
type TokenHandler struct {
	calls CallUserClient
	users repository.UserRepository
}

// NewTokenHandler creates a token handler.
func NewTokenHandler(calls CallUserClient, users repository.UserRepository) *TokenHandler {
	return &TokenHandler{calls: calls, users: users}
}

// TokenResponse carries the platform user token.
type TokenResponse struct {
	Token string `json:"token"`
}

// HandleCreate is POST /api/token: upsert the caller as a platform user
// (admin role, generated avatar fallback) and return their user token.
func (h *TokenHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil || user.Name == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized or missing user info")
		return
	}

	if err := h.users.Upsert(r.Context(), user.domainUser()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	image := user.Image
	if image == "" {
		image = avatar.URI(user.Name, avatar.VariantInitials)
	}
	err := h.calls.UpsertUsers(r.Context(), []stream.UpsertUser{{
		ID:    user.ID,
		Name:  user.Name,
		Role:  "admin",
		Image: image,
	}})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	token, err := h.calls.UserToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}
