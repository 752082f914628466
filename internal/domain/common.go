package domain

// MeetingStatus enumerates the meeting lifecycle states.
type MeetingStatus string

const (
	MeetingStatusUpcoming   MeetingStatus = "UPCOMING"
	MeetingStatusActive     MeetingStatus = "ACTIVE"
	MeetingStatusProcessing MeetingStatus = "PROCESSING"
	MeetingStatusCompleted  MeetingStatus = "COMPLETED"
	MeetingStatusCancelled  MeetingStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are possible from s.
func (s MeetingStatus) Terminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusCancelled
}

// ErrorResponse is the JSON error body returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the JSON success body for mutating endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}
