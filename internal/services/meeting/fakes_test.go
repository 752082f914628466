package meeting

import (
	"context"
	"sync"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/agentmeet/agentmeet-service/internal/repository"
	"github.com/agentmeet/agentmeet-service/internal/stream"
	"github.com/google/uuid"
)

// memRepos is an in-memory repository.RepositoryManager for service tests.
type memRepos struct {
	users    *memUserRepo
	agents   *memAgentRepo
	meetings *memMeetingRepo
}

func newMemRepos() *memRepos {
	return &memRepos{
		users:    &memUserRepo{users: map[string]domain.User{}},
		agents:   &memAgentRepo{agents: map[string]domain.Agent{}},
		meetings: &memMeetingRepo{meetings: map[string]domain.Meeting{}},
	}
}

func (m *memRepos) Users() repository.UserRepository       { return m.users }
func (m *memRepos) Agents() repository.AgentRepository     { return m.agents }
func (m *memRepos) Meetings() repository.MeetingRepository { return m.meetings }
func (m *memRepos) Ping(ctx context.Context) error         { return nil }
func (m *memRepos) Close() error                           { return nil }

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (r *memUserRepo) Upsert(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := u
		return &copied, nil
	}
	return nil, nil
}

type memAgentRepo struct {
	mu     sync.Mutex
	agents map[string]domain.Agent
}

func (r *memAgentRepo) Create(ctx context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	r.agents[agent.ID] = *agent
	return nil
}

func (r *memAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		copied := a
		return &copied, nil
	}
	return nil, nil
}

func (r *memAgentRepo) GetByName(ctx context.Context, name string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agents {
		if a.Name == name {
			copied := a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memAgentRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Agent
	for _, a := range r.agents {
		if a.UserID == userID {
			copied := a
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memMeetingRepo struct {
	mu       sync.Mutex
	meetings map[string]domain.Meeting
}

func (r *memMeetingRepo) Create(ctx context.Context, meeting *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	if meeting.Status == "" {
		meeting.Status = domain.MeetingStatusUpcoming
	}
	r.meetings[meeting.ID] = *meeting
	return nil
}

func (r *memMeetingRepo) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meetings[id]; ok {
		copied := m
		return &copied, nil
	}
	return nil, nil
}

func (r *memMeetingRepo) GetByName(ctx context.Context, name string) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.meetings {
		if m.Name == name {
			copied := m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memMeetingRepo) GetByIDAndStatus(ctx context.Context, id string, status domain.MeetingStatus) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meetings[id]; ok && m.Status == status {
		copied := m
		return &copied, nil
	}
	return nil, nil
}

func (r *memMeetingRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Meeting
	for _, m := range r.meetings {
		if m.UserID == userID {
			copied := m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memMeetingRepo) UpdateIfStatus(ctx context.Context, id string, expected domain.MeetingStatus, update domain.MeetingUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok || m.Status != expected {
		return false, nil
	}
	if update.Status != nil {
		m.Status = *update.Status
	}
	if update.StartedAt != nil {
		m.StartedAt = update.StartedAt
	}
	if update.EndedAt != nil {
		m.EndedAt = update.EndedAt
	}
	if update.TranscriptURL != nil {
		m.TranscriptURL = update.TranscriptURL
	}
	if update.RecordingURL != nil {
		m.RecordingURL = update.RecordingURL
	}
	r.meetings[id] = m
	return true, nil
}

// fakeCallClient records platform commands issued by the service.
type fakeCallClient struct {
	mu             sync.Mutex
	createdCalls   []string
	endedCalls     []string
	connectedCalls []connectedAgent
	upsertedUsers  []stream.UpsertUser

	connectErr error
	endErr     error
}

type connectedAgent struct {
	callID       string
	agentUserID  string
	instructions string
}

func (f *fakeCallClient) CreateCall(ctx context.Context, callID string, input stream.CreateCallInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdCalls = append(f.createdCalls, callID)
	return nil
}

func (f *fakeCallClient) EndCall(ctx context.Context, callID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endErr != nil {
		return f.endErr
	}
	f.endedCalls = append(f.endedCalls, callID)
	return nil
}

func (f *fakeCallClient) ConnectAgent(ctx context.Context, callID, agentUserID, instructions string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connectedCalls = append(f.connectedCalls, connectedAgent{callID, agentUserID, instructions})
	return nil
}

func (f *fakeCallClient) UpsertUsers(ctx context.Context, users []stream.UpsertUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertedUsers = append(f.upsertedUsers, users...)
	return nil
}
