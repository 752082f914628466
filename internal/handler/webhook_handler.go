package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/agentmeet/agentmeet-service/internal/cache"
	"github.com/agentmeet/agentmeet-service/internal/metrics"
	meetingsvc "github.com/agentmeet/agentmeet-service/internal/services/meeting"
	"github.com/agentmeet/agentmeet-service/internal/stream"
	"github.com/agentmeet/agentmeet-service/pkg/logger"
	"go.uber.org/zap"
)

// SignatureVerifier checks that a webhook delivery originates from the call
// platform. Implemented by the stream client.
type SignatureVerifier interface {
	VerifyWebhook(body []byte, signature string) bool
}

// MeetingEventService is the slice of the meeting service the webhook
// handler dispatches to.
type MeetingEventService interface {
	HandleSessionStarted(ctx context.Context, meetingID string) error
	HandleParticipantLeft(ctx context.Context, meetingID string) error
	HandleSessionEnded(ctx context.Context, meetingID string) error
	HandleTranscriptionReady(ctx context.Context, meetingID, url string) error
	HandleRecordingReady(ctx context.Context, meetingID, url string) error
}

// WebhookHandler processes call platform lifecycle webhooks.
type WebhookHandler struct {
	verifier   SignatureVerifier
	meetings   MeetingEventService
	deliveries *cache.DeliveryCache
	recorder   metrics.Recorder
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(verifier SignatureVerifier, meetings MeetingEventService, deliveries *cache.DeliveryCache, recorder metrics.Recorder) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		meetings:   meetings,
		deliveries: deliveries,
		recorder:   recorder,
	}
}

// HandleWebhook is POST /api/webhook. Order matters: header presence, then
// signature over the exact raw bytes, then parsing, then dispatch. Nothing
// is retried here; the platform redelivers on failure.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("x-signature")
	apiKey := r.Header.Get("x-api-key")
	if signature == "" || apiKey == "" {
		writeError(w, http.StatusBadRequest, "Missing signature or API key")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if !h.verifier.VerifyWebhook(body, signature) {
		logger.Base().Warn("webhook signature rejected", zap.String("remote_addr", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	ctx := r.Context()

	if h.deliveries != nil && h.deliveries.Seen(ctx, body) {
		h.record("duplicate", metrics.OutcomeIgnored)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	event, err := stream.ParseWebhookEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, parseErrorMessage(err))
		return
	}

	kind := string(event.Kind())
	if err := h.dispatch(ctx, event); err != nil {
		status, message := h.mapServiceError(err)
		if status >= http.StatusInternalServerError {
			h.record(kind, metrics.OutcomeFailed)
			logger.Base().Error("webhook processing failed",
				zap.String("kind", kind), zap.Error(err))
		} else {
			h.record(kind, metrics.OutcomeRejected)
		}
		writeError(w, status, message)
		return
	}

	// Recorded only after a successful dispatch: a failed or rejected
	// delivery must remain unseen so the platform's redelivery is not
	// swallowed as a duplicate.
	if h.deliveries != nil {
		h.deliveries.MarkProcessed(ctx, body)
	}

	if _, unknown := event.(stream.UnknownEvent); unknown {
		h.record(kind, metrics.OutcomeIgnored)
	} else {
		h.record(kind, metrics.OutcomeProcessed)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dispatch routes the typed event to its transition. Unknown kinds are a
// deliberate no-op so the platform can add event types without breaking us.
func (h *WebhookHandler) dispatch(ctx context.Context, event stream.WebhookEvent) error {
	switch ev := event.(type) {
	case stream.SessionStartedEvent:
		return h.meetings.HandleSessionStarted(ctx, ev.MeetingID)
	case stream.ParticipantLeftEvent:
		return h.meetings.HandleParticipantLeft(ctx, ev.MeetingID)
	case stream.SessionEndedEvent:
		return h.meetings.HandleSessionEnded(ctx, ev.MeetingID)
	case stream.TranscriptionReadyEvent:
		return h.meetings.HandleTranscriptionReady(ctx, ev.MeetingID, ev.URL)
	case stream.RecordingReadyEvent:
		return h.meetings.HandleRecordingReady(ctx, ev.MeetingID, ev.URL)
	default:
		return nil
	}
}

func (h *WebhookHandler) mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, meetingsvc.ErrMeetingNotFound),
		errors.Is(err, meetingsvc.ErrStateMismatch):
		return http.StatusBadRequest, "Invalid meeting"
	case errors.Is(err, meetingsvc.ErrAgentNotFound):
		return http.StatusBadRequest, "Invalid agent"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func parseErrorMessage(err error) string {
	switch {
	case errors.Is(err, stream.ErrInvalidJSON):
		return "Invalid JSON"
	case errors.Is(err, stream.ErrMissingMeetingID):
		return "Missing meeting id"
	case errors.Is(err, stream.ErrMissingURL):
		return "Missing result URL"
	default:
		return "Bad request"
	}
}

func (h *WebhookHandler) record(kind, outcome string) {
	if h.recorder != nil {
		h.recorder.RecordWebhookEvent(kind, outcome)
	}
}
