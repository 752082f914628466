package meeting

import (
	"context"
	"testing"
	"time"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *memRepos, *fakeCallClient) {
	t.Helper()
	repos := newMemRepos()
	calls := &fakeCallClient{}
	svc := NewService(repos, calls)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return svc, repos, calls
}

func seedMeeting(t *testing.T, repos *memRepos, id string, status domain.MeetingStatus) *domain.Meeting {
	t.Helper()
	agent := &domain.Agent{ID: "agent-1", Name: "tutor", Instructions: "be helpful", UserID: "user-1"}
	require.NoError(t, repos.Agents().Create(context.Background(), agent))

	meeting := &domain.Meeting{ID: id, Name: "meeting-" + id, Status: status, UserID: "user-1", AgentID: agent.ID}
	require.NoError(t, repos.Meetings().Create(context.Background(), meeting))
	return meeting
}

func TestHandleSessionStartedActivatesAndAttachesAgent(t *testing.T) {
	svc, repos, calls := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusUpcoming)

	require.NoError(t, svc.HandleSessionStarted(context.Background(), "m1"))

	stored, err := repos.Meetings().GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusActive, stored.Status)
	require.NotNil(t, stored.StartedAt)

	require.Len(t, calls.connectedCalls, 1)
	assert.Equal(t, "m1", calls.connectedCalls[0].callID)
	assert.Equal(t, "agent-1", calls.connectedCalls[0].agentUserID)
	assert.Equal(t, "be helpful", calls.connectedCalls[0].instructions)
}

func TestHandleSessionStartedDuplicateDeliveryIsBenign(t *testing.T) {
	svc, repos, calls := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusUpcoming)

	require.NoError(t, svc.HandleSessionStarted(context.Background(), "m1"))
	err := svc.HandleSessionStarted(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrStateMismatch)

	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MeetingStatusActive, stored.Status)
	// The voice agent must be attached exactly once.
	assert.Len(t, calls.connectedCalls, 1)
}

func TestHandleSessionStartedMissingMeeting(t *testing.T) {
	svc, _, calls := newTestService(t)

	err := svc.HandleSessionStarted(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMeetingNotFound)
	assert.Empty(t, calls.connectedCalls)
}

func TestHandleSessionStartedMissingAgent(t *testing.T) {
	svc, repos, calls := newTestService(t)
	meeting := &domain.Meeting{ID: "m1", Name: "orphan", Status: domain.MeetingStatusUpcoming, UserID: "user-1", AgentID: "ghost"}
	require.NoError(t, repos.Meetings().Create(context.Background(), meeting))

	err := svc.HandleSessionStarted(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.Empty(t, calls.connectedCalls)

	// No mutation happened.
	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MeetingStatusUpcoming, stored.Status)
}

func TestHandleParticipantLeftEndsCallWithoutStatusChange(t *testing.T) {
	svc, repos, calls := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusActive)

	require.NoError(t, svc.HandleParticipantLeft(context.Background(), "m1"))

	assert.Equal(t, []string{"m1"}, calls.endedCalls)
	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MeetingStatusActive, stored.Status)
}

func TestHandleSessionEndedMovesToProcessing(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusActive)

	require.NoError(t, svc.HandleSessionEnded(context.Background(), "m1"))

	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MeetingStatusProcessing, stored.Status)
	require.NotNil(t, stored.EndedAt)
}

func TestHandleSessionEndedRequiresActive(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusUpcoming)

	err := svc.HandleSessionEnded(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrStateMismatch)

	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MeetingStatusUpcoming, stored.Status)
	assert.Nil(t, stored.EndedAt)
}

func TestHandleTranscriptionReady(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusProcessing)

	require.NoError(t, svc.HandleTranscriptionReady(context.Background(), "m1", "https://x/t.vtt"))

	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MeetingStatusProcessing, stored.Status)
	require.NotNil(t, stored.TranscriptURL)
	assert.Equal(t, "https://x/t.vtt", *stored.TranscriptURL)
}

func TestHandleRecordingReadyRequiresProcessing(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusActive)

	err := svc.HandleRecordingReady(context.Background(), "m1", "https://x/r.mp4")
	assert.ErrorIs(t, err, ErrStateMismatch)

	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Nil(t, stored.RecordingURL)
}

func TestReplayNeverChangesFinalState(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusUpcoming)

	run := func() domain.Meeting {
		_ = svc.HandleSessionStarted(context.Background(), "m1")
		_ = svc.HandleSessionEnded(context.Background(), "m1")
		_ = svc.HandleTranscriptionReady(context.Background(), "m1", "https://x/t.vtt")
		stored, err := repos.Meetings().GetByID(context.Background(), "m1")
		require.NoError(t, err)
		return *stored
	}

	first := run()
	replayed := run()
	assert.Equal(t, first.Status, replayed.Status)
	assert.Equal(t, first.StartedAt, replayed.StartedAt)
	assert.Equal(t, first.EndedAt, replayed.EndedAt)
	assert.Equal(t, first.TranscriptURL, replayed.TranscriptURL)
}

func TestCreateSchedulesCallAndUpsertsAgentUser(t *testing.T) {
	svc, repos, calls := newTestService(t)
	agent := &domain.Agent{Name: "tutor", Instructions: "be helpful", UserID: "user-1"}
	require.NoError(t, repos.Agents().Create(context.Background(), agent))

	meeting, err := svc.Create(context.Background(), "user-1", domain.CreateMeetingRequest{
		Name:    "standup",
		AgentID: agent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusUpcoming, meeting.Status)
	assert.Equal(t, []string{meeting.ID}, calls.createdCalls)
	require.Len(t, calls.upsertedUsers, 1)
	assert.Equal(t, agent.ID, calls.upsertedUsers[0].ID)
	assert.Equal(t, "user", calls.upsertedUsers[0].Role)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, repos, _ := newTestService(t)
	agent := &domain.Agent{Name: "tutor", Instructions: "x", UserID: "user-1"}
	require.NoError(t, repos.Agents().Create(context.Background(), agent))

	_, err := svc.Create(context.Background(), "user-1", domain.CreateMeetingRequest{Name: "standup", AgentID: agent.ID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "user-1", domain.CreateMeetingRequest{Name: "standup", AgentID: agent.ID})
	assert.ErrorIs(t, err, ErrMeetingNameTaken)
}

func TestCreateRejectsMissingAgent(t *testing.T) {
	svc, _, calls := newTestService(t)

	_, err := svc.Create(context.Background(), "user-1", domain.CreateMeetingRequest{Name: "standup", AgentID: "ghost"})
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.Empty(t, calls.createdCalls)
}

func TestCancelUpcomingMeeting(t *testing.T) {
	svc, repos, calls := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusUpcoming)

	require.NoError(t, svc.Cancel(context.Background(), "user-1", "m1"))

	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MeetingStatusCancelled, stored.Status)
	// The call was never live, nothing to end.
	assert.Empty(t, calls.endedCalls)
}

func TestCancelActiveMeetingEndsCall(t *testing.T) {
	svc, repos, calls := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusActive)

	require.NoError(t, svc.Cancel(context.Background(), "user-1", "m1"))

	stored, _ := repos.Meetings().GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MeetingStatusCancelled, stored.Status)
	assert.Equal(t, []string{"m1"}, calls.endedCalls)
}

func TestCancelRejectsForeignAndTerminalMeetings(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedMeeting(t, repos, "m1", domain.MeetingStatusProcessing)

	assert.ErrorIs(t, svc.Cancel(context.Background(), "someone-else", "m1"), ErrMeetingNotFound)
	assert.ErrorIs(t, svc.Cancel(context.Background(), "user-1", "m1"), ErrStateMismatch)
}
