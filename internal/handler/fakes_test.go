package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/agentmeet/agentmeet-service/internal/repository"
	"github.com/agentmeet/agentmeet-service/internal/stream"
	"github.com/agentmeet/agentmeet-service/pkg/redis"
	"github.com/google/uuid"
)

// memStore is an in-memory repository.RepositoryManager for handler tests.
type memStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	agents   map[string]domain.Agent
	meetings map[string]domain.Meeting
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]domain.User{},
		agents:   map[string]domain.Agent{},
		meetings: map[string]domain.Meeting{},
	}
}

func (s *memStore) Users() repository.UserRepository       { return (*memUsers)(s) }
func (s *memStore) Agents() repository.AgentRepository     { return (*memAgents)(s) }
func (s *memStore) Meetings() repository.MeetingRepository { return (*memMeetings)(s) }
func (s *memStore) Ping(ctx context.Context) error         { return nil }
func (s *memStore) Close() error                           { return nil }

type memUsers memStore

func (s *memUsers) Upsert(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copied := u
		return &copied, nil
	}
	return nil, nil
}

type memAgents memStore

func (s *memAgents) Create(ctx context.Context, agent *domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	s.agents[agent.ID] = *agent
	return nil
}

func (s *memAgents) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.agents[id]; ok {
		copied := a
		return &copied, nil
	}
	return nil, nil
}

func (s *memAgents) GetByName(ctx context.Context, name string) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.Name == name {
			copied := a
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memAgents) GetByUserID(ctx context.Context, userID string) ([]*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Agent
	for _, a := range s.agents {
		if a.UserID == userID {
			copied := a
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memMeetings memStore

func (s *memMeetings) Create(ctx context.Context, meeting *domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	s.meetings[meeting.ID] = *meeting
	return nil
}

func (s *memMeetings) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.meetings[id]; ok {
		copied := m
		return &copied, nil
	}
	return nil, nil
}

func (s *memMeetings) GetByName(ctx context.Context, name string) (*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.meetings {
		if m.Name == name {
			copied := m
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memMeetings) GetByIDAndStatus(ctx context.Context, id string, status domain.MeetingStatus) (*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.meetings[id]; ok && m.Status == status {
		copied := m
		return &copied, nil
	}
	return nil, nil
}

func (s *memMeetings) GetByUserID(ctx context.Context, userID string) ([]*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Meeting
	for _, m := range s.meetings {
		if m.UserID == userID {
			copied := m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memMeetings) UpdateIfStatus(ctx context.Context, id string, expected domain.MeetingStatus, update domain.MeetingUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
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
	s.meetings[id] = m
	return true, nil
}

// fakePlatform records call platform commands. It satisfies both the meeting
// service's CallClient and the token handler's CallUserClient.
type fakePlatform struct {
	mu            sync.Mutex
	createdCalls  []string
	endedCalls    []string
	upsertedUsers []stream.UpsertUser
	tokens        []string
	tokenErr      error
}

func (f *fakePlatform) CreateCall(ctx context.Context, callID string, input stream.CreateCallInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdCalls = append(f.createdCalls, callID)
	return nil
}

func (f *fakePlatform) EndCall(ctx context.Context, callID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endedCalls = append(f.endedCalls, callID)
	return nil
}

func (f *fakePlatform) ConnectAgent(ctx context.Context, callID, agentUserID, instructions string) error {
	return nil
}

func (f *fakePlatform) UpsertUsers(ctx context.Context, users []stream.UpsertUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertedUsers = append(f.upsertedUsers, users...)
	return nil
}

func (f *fakePlatform) UserToken(userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	f.tokens = append(f.tokens, userID)
	return "token-" + userID, nil
}

// authedRequest builds a request carrying an authenticated user, bypassing
// the JWT middleware.
func authedRequest(r *http.Request, user *AuthUser) *http.Request {
	return r.WithContext(withUser(r.Context(), user))
}

// fakeRedis implements redis.RedisServiceInterface over a map.
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}}
}

func (f *fakeRedis) GenerateKey(keyType redis.KeyType, identifier string) string {
	return string(keyType) + ":" + identifier
}

func (f *fakeRedis) GetValue(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", redis.ErrKeyNotExist
	}
	return v, nil
}

func (f *fakeRedis) SetValue(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeRedis) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

func (f *fakeRedis) DelValue(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}
