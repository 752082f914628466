package meeting

import (
	"errors"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/agentmeet/agentmeet-service/internal/stream"
)

// ErrIllegalTransition is returned when an event arrives for a meeting whose
// current status does not match the transition table. With at-least-once
// webhook delivery this is the normal signature of a duplicate or
// out-of-order delivery, so callers treat it as benign.
var ErrIllegalTransition = errors.New("illegal meeting state transition")

// NextStatus is the meeting state machine: given the current status and an
// inbound event kind it returns the status the meeting moves to, or
// ErrIllegalTransition when the precondition fails. It is a pure function so
// the table can be tested without a datastore.
//
//	UPCOMING -> ACTIVE      (call.session_started)
//	ACTIVE   -> PROCESSING  (call.session_ended)
//	PROCESSING unchanged    (call.transcription_ready, call.recording_ready)
//	any      unchanged      (call.session_participant_left)
func NextStatus(current domain.MeetingStatus, kind stream.EventKind) (domain.MeetingStatus, error) {
	switch kind {
	case stream.EventSessionStarted:
		if current == domain.MeetingStatusUpcoming {
			return domain.MeetingStatusActive, nil
		}
	case stream.EventParticipantLeft:
		// Ends the call but never touches status; the matching
		// call.session_ended delivery advances the state.
		return current, nil
	case stream.EventSessionEnded:
		if current == domain.MeetingStatusActive {
			return domain.MeetingStatusProcessing, nil
		}
	case stream.EventTranscriptionReady, stream.EventRecordingReady:
		if current == domain.MeetingStatusProcessing {
			return domain.MeetingStatusProcessing, nil
		}
	}
	return current, ErrIllegalTransition
}

// CanCancel reports whether a user-initiated cancel is legal from the
// current status. Cancellation is never driven by webhooks.
func CanCancel(current domain.MeetingStatus) bool {
	return current == domain.MeetingStatusUpcoming || current == domain.MeetingStatusActive
}
