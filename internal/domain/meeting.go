package domain

import "time"

// Meeting is one scheduled or in-progress conversation between a user and an
// agent. Its ID doubles as the call platform's call identifier, which is how
// webhook deliveries are correlated back to the row.
type Meeting struct {
	ID            string        `json:"id" gorm:"type:uuid;primary_key"`
	Name          string        `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
	Status        MeetingStatus `json:"status" gorm:"type:varchar(32);not null;default:'UPCOMING';index"`
	UserID        string        `json:"user_id" gorm:"type:uuid;not null;index"`
	AgentID       string        `json:"agent_id" gorm:"type:uuid;not null;index"`
	StartedAt     *time.Time    `json:"started_at"`
	EndedAt       *time.Time    `json:"ended_at"`
	TranscriptURL *string       `json:"transcript_url" gorm:"type:text"`
	RecordingURL  *string       `json:"recording_url" gorm:"type:text"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Meeting.
func (Meeting) TableName() string {
	return "meetings"
}

// CreateMeetingRequest is the body of POST /api/meetings.
type CreateMeetingRequest struct {
	Name    string `json:"meetingname"`
	AgentID string `json:"agentId"`
}

// MeetingResponse is the API representation of a meeting.
type MeetingResponse struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Status        MeetingStatus `json:"status"`
	AgentID       string        `json:"agent_id"`
	StartedAt     *time.Time    `json:"started_at"`
	EndedAt       *time.Time    `json:"ended_at"`
	TranscriptURL *string       `json:"transcript_url"`
	RecordingURL  *string       `json:"recording_url"`
	CreatedAt     time.Time     `json:"created_at"`
}

// MeetingUpdate carries the columns a webhook transition is allowed to touch.
// Nil fields are left unchanged.
type MeetingUpdate struct {
	Status        *MeetingStatus
	StartedAt     *time.Time
	EndedAt       *time.Time
	TranscriptURL *string
	RecordingURL  *string
}
