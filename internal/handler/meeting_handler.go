package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/agentmeet/agentmeet-service/internal/repository"
	meetingsvc "github.com/agentmeet/agentmeet-service/internal/services/meeting"
	"github.com/gorilla/mux"
	"github.com/jinzhu/copier"
)

// MeetingHandler serves meeting scheduling, listing and cancellation.
type MeetingHandler struct {
	meetings *meetingsvc.Service
	users    repository.UserRepository
}

// NewMeetingHandler creates a meeting handler.
func NewMeetingHandler(meetings *meetingsvc.Service, users repository.UserRepository) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, users: users}
}

// HandleCreate is POST /api/meetings.
func (h *MeetingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized or missing user ID")
		return
	}

	var req domain.CreateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "Fill up the fields")
		return
	}

	if err := h.users.Upsert(r.Context(), user.domainUser()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to schedule meeting")
		return
	}

	if _, err := h.meetings.Create(r.Context(), user.ID, req); err != nil {
		switch {
		case errors.Is(err, meetingsvc.ErrMeetingNameTaken):
			writeError(w, http.StatusBadRequest, "Meeting already registered")
		case errors.Is(err, meetingsvc.ErrAgentNotFound):
			writeError(w, http.StatusBadRequest, "Selected agent does not exist")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to schedule meeting")
		}
		return
	}

	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Meeting created successfully"})
}

// HandleList is GET /api/meetings.
func (h *MeetingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized or missing user ID")
		return
	}

	meetings, err := h.meetings.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list meetings")
		return
	}

	responses := make([]domain.MeetingResponse, 0, len(meetings))
	if err := copier.Copy(&responses, &meetings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list meetings")
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// HandleCancel is POST /api/meetings/{meetingId}/cancel, the user-initiated
// side branch of the state machine.
func (h *MeetingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized or missing user ID")
		return
	}

	meetingID := mux.Vars(r)["meetingId"]
	if err := h.meetings.Cancel(r.Context(), user.ID, meetingID); err != nil {
		switch {
		case errors.Is(err, meetingsvc.ErrMeetingNotFound):
			writeError(w, http.StatusNotFound, "Meeting not found")
		case errors.Is(err, meetingsvc.ErrStateMismatch):
			writeError(w, http.StatusBadRequest, "Meeting can no longer be cancelled")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to cancel meeting")
		}
		return
	}

	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Meeting cancelled"})
}
