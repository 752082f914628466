// Package meeting implements meeting scheduling and the webhook-driven
// lifecycle transitions.
package meeting

import (
	"context"
	"errors"
	"time"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/agentmeet/agentmeet-service/internal/repository"
	"github.com/agentmeet/agentmeet-service/internal/stream"
	"github.com/agentmeet/agentmeet-service/pkg/avatar"
	"github.com/agentmeet/agentmeet-service/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrMeetingNotFound means the referenced meeting row does not exist.
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrAgentNotFound means the referenced agent row does not exist.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrStateMismatch means the meeting exists but is not in the status the
	// transition requires. Benign under at-least-once delivery.
	ErrStateMismatch = errors.New("meeting not in required state")
	// ErrMeetingNameTaken means the unique meeting name is already used.
	ErrMeetingNameTaken = errors.New("meeting name already registered")
)

// CallClient is the slice of the platform client the meeting service needs.
type CallClient interface {
	CreateCall(ctx context.Context, callID string, input stream.CreateCallInput) error
	EndCall(ctx context.Context, callID string) error
	ConnectAgent(ctx context.Context, callID, agentUserID, instructions string) error
	UpsertUsers(ctx context.Context, users []stream.UpsertUser) error
}

// Service coordinates meeting persistence and call platform commands.
type Service struct {
	repos repository.RepositoryManager
	calls CallClient
	now   func() time.Time
}

// NewService creates a meeting service.
func NewService(repos repository.RepositoryManager, calls CallClient) *Service {
	return &Service{repos: repos, calls: calls, now: time.Now}
}

// Create schedules a meeting: it persists the row (status UPCOMING), creates
// the platform call carrying the meeting id as custom metadata, and upserts
// the agent as a platform call user.
func (s *Service) Create(ctx context.Context, userID string, req domain.CreateMeetingRequest) (*domain.Meeting, error) {
	existing, err := s.repos.Meetings().GetByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMeetingNameTaken
	}

	agent, err := s.repos.Agents().GetByID(ctx, req.AgentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}

	meeting := &domain.Meeting{
		Name:    req.Name,
		Status:  domain.MeetingStatusUpcoming,
		UserID:  userID,
		AgentID: agent.ID,
	}
	if err := s.repos.Meetings().Create(ctx, meeting); err != nil {
		return nil, err
	}

	err = s.calls.CreateCall(ctx, meeting.ID, stream.CreateCallInput{
		CreatedByID: userID,
		Custom: map[string]interface{}{
			"meetingId":   meeting.ID,
			"meetingName": meeting.Name,
		},
		SettingsOverride: &stream.CallSettings{
			Transcription: &stream.TranscriptionSettings{
				Language:          "en",
				Mode:              "auto-on",
				ClosedCaptionMode: "auto-on",
			},
			Recording: &stream.RecordingSettings{
				Mode:    "auto-on",
				Quality: "1080p",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	err = s.calls.UpsertUsers(ctx, []stream.UpsertUser{{
		ID:    agent.ID,
		Name:  agent.Name,
		Role:  "user",
		Image: avatar.URI(agent.Name, avatar.VariantBotttsNeutral),
	}})
	if err != nil {
		return nil, err
	}

	logger.Base().Info("meeting scheduled",
		zap.String("meeting_id", meeting.ID),
		zap.String("agent_id", agent.ID))
	return meeting, nil
}

// ListByUser returns the user's meetings, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Meeting, error) {
	return s.repos.Meetings().GetByUserID(ctx, userID)
}

// Cancel is the user-initiated side branch of the state machine: it moves an
// UPCOMING or ACTIVE meeting to CANCELLED and, when the call is live, ends
// it on the platform.
func (s *Service) Cancel(ctx context.Context, userID, meetingID string) error {
	meeting, err := s.repos.Meetings().GetByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if meeting == nil || meeting.UserID != userID {
		return ErrMeetingNotFound
	}
	if !CanCancel(meeting.Status) {
		return ErrStateMismatch
	}

	cancelled := domain.MeetingStatusCancelled
	ok, err := s.repos.Meetings().UpdateIfStatus(ctx, meetingID, meeting.Status,
		domain.MeetingUpdate{Status: &cancelled})
	if err != nil {
		return err
	}
	if !ok {
		return s.resolveNoRows(ctx, meetingID)
	}

	if meeting.Status == domain.MeetingStatusActive {
		if err := s.calls.EndCall(ctx, meetingID); err != nil {
			return err
		}
	}
	return nil
}

// HandleSessionStarted processes call.session_started: it guards on
// UPCOMING, stamps the start time, moves to ACTIVE and attaches the AI voice
// agent with the agent's stored instructions. The attach runs only after the
// guarded write succeeded, so a redelivered event never attaches twice.
func (s *Service) HandleSessionStarted(ctx context.Context, meetingID string) error {
	meeting, err := s.repos.Meetings().GetByIDAndStatus(ctx, meetingID, domain.MeetingStatusUpcoming)
	if err != nil {
		return err
	}
	if meeting == nil {
		return s.resolveNoRows(ctx, meetingID)
	}

	agent, err := s.repos.Agents().GetByID(ctx, meeting.AgentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return ErrAgentNotFound
	}

	next, err := NextStatus(meeting.Status, stream.EventSessionStarted)
	if err != nil {
		return ErrStateMismatch
	}

	startedAt := s.now()
	ok, err := s.repos.Meetings().UpdateIfStatus(ctx, meetingID, domain.MeetingStatusUpcoming,
		domain.MeetingUpdate{Status: &next, StartedAt: &startedAt})
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race against a concurrent delivery.
		return s.resolveNoRows(ctx, meetingID)
	}

	if err := s.calls.ConnectAgent(ctx, meetingID, agent.ID, agent.Instructions); err != nil {
		return err
	}

	logger.Base().Info("meeting active",
		zap.String("meeting_id", meetingID),
		zap.String("agent_id", agent.ID))
	return nil
}

// HandleParticipantLeft processes call.session_participant_left by telling
// the platform to end the call. Status is intentionally untouched; the
// matching call.session_ended delivery performs the transition.
func (s *Service) HandleParticipantLeft(ctx context.Context, meetingID string) error {
	return s.calls.EndCall(ctx, meetingID)
}

// HandleSessionEnded processes call.session_ended: ACTIVE -> PROCESSING with
// the end time stamped.
func (s *Service) HandleSessionEnded(ctx context.Context, meetingID string) error {
	next, err := NextStatus(domain.MeetingStatusActive, stream.EventSessionEnded)
	if err != nil {
		return ErrStateMismatch
	}

	endedAt := s.now()
	ok, err := s.repos.Meetings().UpdateIfStatus(ctx, meetingID, domain.MeetingStatusActive,
		domain.MeetingUpdate{Status: &next, EndedAt: &endedAt})
	if err != nil {
		return err
	}
	if !ok {
		return s.resolveNoRows(ctx, meetingID)
	}

	logger.Base().Info("meeting processing", zap.String("meeting_id", meetingID))
	return nil
}

// HandleTranscriptionReady attaches the transcript URL to a PROCESSING
// meeting. Status is unchanged.
func (s *Service) HandleTranscriptionReady(ctx context.Context, meetingID, url string) error {
	ok, err := s.repos.Meetings().UpdateIfStatus(ctx, meetingID, domain.MeetingStatusProcessing,
		domain.MeetingUpdate{TranscriptURL: &url})
	if err != nil {
		return err
	}
	if !ok {
		return s.resolveNoRows(ctx, meetingID)
	}
	return nil
}

// HandleRecordingReady attaches the recording URL to a PROCESSING meeting.
// Status is unchanged.
func (s *Service) HandleRecordingReady(ctx context.Context, meetingID, url string) error {
	ok, err := s.repos.Meetings().UpdateIfStatus(ctx, meetingID, domain.MeetingStatusProcessing,
		domain.MeetingUpdate{RecordingURL: &url})
	if err != nil {
		return err
	}
	if !ok {
		return s.resolveNoRows(ctx, meetingID)
	}
	return nil
}

// resolveNoRows disambiguates a conditional write that matched zero rows by
// re-reading the row: a missing meeting is not-found, an existing one in
// another state is a benign duplicate or out-of-order delivery.
func (s *Service) resolveNoRows(ctx context.Context, meetingID string) error {
	meeting, err := s.repos.Meetings().GetByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if meeting == nil {
		return ErrMeetingNotFound
	}
	logger.Base().Debug("ignoring delivery for advanced meeting",
		zap.String("meeting_id", meetingID),
		zap.String("status", string(meeting.Status)))
	return ErrStateMismatch
}
