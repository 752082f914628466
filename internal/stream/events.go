package stream

import (
	"encoding/json"
	"errors"
	"strings"
)

// EventKind is the discriminant string identifying which lifecycle moment a
// webhook delivery reports.
type EventKind string

const (
	EventSessionStarted     EventKind = "call.session_started"
	EventParticipantLeft    EventKind = "call.session_participant_left"
	EventSessionEnded       EventKind = "call.session_ended"
	EventTranscriptionReady EventKind = "call.transcription_ready"
	EventRecordingReady     EventKind = "call.recording_ready"
)

var (
	// ErrInvalidJSON marks a body that is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON body")
	// ErrMissingMeetingID marks a known event kind whose payload lacks the
	// meeting id. Distinct from the meeting not being found.
	ErrMissingMeetingID = errors.New("missing meeting id in payload")
	// ErrMissingURL marks a terminal event without its result URL.
	ErrMissingURL = errors.New("missing result URL in payload")
)

// WebhookEvent is the decoded form of one webhook delivery. Each known kind
// carries only the fields its transition needs; anything else the platform
// sends decodes to UnknownEvent.
type WebhookEvent interface {
	Kind() EventKind
}

// SessionStartedEvent reports that the call session began.
type SessionStartedEvent struct {
	MeetingID string
}

// ParticipantLeftEvent reports that a participant left the session.
type ParticipantLeftEvent struct {
	MeetingID string
}

// SessionEndedEvent reports that the call session ended.
type SessionEndedEvent struct {
	MeetingID string
}

// TranscriptionReadyEvent delivers the transcript URL.
type TranscriptionReadyEvent struct {
	MeetingID string
	URL       string
}

// RecordingReadyEvent delivers the recording URL.
type RecordingReadyEvent struct {
	MeetingID string
	URL       string
}

// UnknownEvent is the catch-all for event kinds outside the transition
// table. They are accepted and ignored so the platform can evolve its event
// set without breaking us.
type UnknownEvent struct {
	Type string
}

func (SessionStartedEvent) Kind() EventKind     { return EventSessionStarted }
func (ParticipantLeftEvent) Kind() EventKind    { return EventParticipantLeft }
func (SessionEndedEvent) Kind() EventKind       { return EventSessionEnded }
func (TranscriptionReadyEvent) Kind() EventKind { return EventTranscriptionReady }
func (RecordingReadyEvent) Kind() EventKind     { return EventRecordingReady }
func (e UnknownEvent) Kind() EventKind          { return EventKind(e.Type) }

// envelope is the superset of fields across all known webhook payloads. It
// is decoded once; the switch below extracts only what each kind requires.
type envelope struct {
	Type string `json:"type"`
	Call *struct {
		Custom struct {
			MeetingID string `json:"meetingId"`
		} `json:"custom"`
	} `json:"call"`
	CallCID           string `json:"call_cid"`
	CallTranscription *struct {
		URL string `json:"url"`
	} `json:"call_transcription"`
	CallRecording *struct {
		URL string `json:"url"`
	} `json:"call_recording"`
}

// ParseWebhookEvent decodes raw webhook bytes into a typed event. Malformed
// JSON and missing required sub-fields are rejected here, before any state
// machine dispatch.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrInvalidJSON
	}

	switch EventKind(env.Type) {
	case EventSessionStarted:
		id, err := meetingIDFromCustom(env)
		if err != nil {
			return nil, err
		}
		return SessionStartedEvent{MeetingID: id}, nil

	case EventParticipantLeft:
		id, err := meetingIDFromCID(env.CallCID)
		if err != nil {
			return nil, err
		}
		return ParticipantLeftEvent{MeetingID: id}, nil

	case EventSessionEnded:
		id, err := meetingIDFromCustom(env)
		if err != nil {
			return nil, err
		}
		return SessionEndedEvent{MeetingID: id}, nil

	case EventTranscriptionReady:
		id, err := meetingIDFromCID(env.CallCID)
		if err != nil {
			return nil, err
		}
		if env.CallTranscription == nil || env.CallTranscription.URL == "" {
			return nil, ErrMissingURL
		}
		return TranscriptionReadyEvent{MeetingID: id, URL: env.CallTranscription.URL}, nil

	case EventRecordingReady:
		id, err := meetingIDFromCID(env.CallCID)
		if err != nil {
			return nil, err
		}
		if env.CallRecording == nil || env.CallRecording.URL == "" {
			return nil, ErrMissingURL
		}
		return RecordingReadyEvent{MeetingID: id, URL: env.CallRecording.URL}, nil

	default:
		return UnknownEvent{Type: env.Type}, nil
	}
}

func meetingIDFromCustom(env envelope) (string, error) {
	if env.Call == nil || env.Call.Custom.MeetingID == "" {
		return "", ErrMissingMeetingID
	}
	return env.Call.Custom.MeetingID, nil
}

// meetingIDFromCID extracts the meeting id from a "<type>:<id>" call cid.
func meetingIDFromCID(cid string) (string, error) {
	parts := strings.SplitN(cid, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", ErrMissingMeetingID
	}
	return parts[1], nil
}
