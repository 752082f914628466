package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/agentmeet/agentmeet-service/internal/repository"
	agentsvc "github.com/agentmeet/agentmeet-service/internal/services/agent"
	"github.com/jinzhu/copier"
)

// AgentHandler serves agent registration and listing.
type AgentHandler struct {
	agents *agentsvc.Service
	users  repository.UserRepository
}

// NewAgentHandler creates an agent handler.
func NewAgentHandler(agents *agentsvc.Service, users repository.UserRepository) *AgentHandler {
	return &AgentHandler{agents: agents, users: users}
}

// HandleCreate is POST /api/agents.
func (h *AgentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized or missing user ID")
		return
	}

	var req domain.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" || req.Instructions == "" {
		writeError(w, http.StatusBadRequest, "Fill up the fields")
		return
	}

	if err := h.users.Upsert(r.Context(), user.domainUser()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to register agent")
		return
	}

	if _, err := h.agents.Create(r.Context(), user.ID, req); err != nil {
		if errors.Is(err, agentsvc.ErrAgentNameTaken) {
			writeError(w, http.StatusBadRequest, "Agent already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to register agent")
		return
	}

	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Agent created successfully"})
}

// HandleList is GET /api/agents.
func (h *AgentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized or missing user ID")
		return
	}

	agents, err := h.agents.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list agents")
		return
	}

	responses := make([]domain.AgentResponse, 0, len(agents))
	if err := copier.Copy(&responses, &agents); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list agents")
		return
	}
	writeJSON(w, http.StatusOK, responses)
}
