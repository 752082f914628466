package repository

import (
	"context"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AgentRepository defines persistence operations for agents.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByName(ctx context.Context, name string) (*domain.Agent, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Agent, error)
}

// MeetingRepository defines persistence operations for meetings. The webhook
// core mutates meetings exclusively through UpdateIfStatus, the conditional
// single-record write that doubles as the optimistic concurrency guard.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	GetByName(ctx context.Context, name string) (*domain.Meeting, error)
	GetByIDAndStatus(ctx context.Context, id string, status domain.MeetingStatus) (*domain.Meeting, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Meeting, error)

	// UpdateIfStatus applies the update only when the meeting currently has
	// the expected status. It returns false (and no error) when zero rows
	// matched, i.e. the meeting is missing or its state already moved on.
	UpdateIfStatus(ctx context.Context, id string, expected domain.MeetingStatus, update domain.MeetingUpdate) (bool, error)
}

// RepositoryManager combines all repositories behind a single dependency.
type RepositoryManager interface {
	Users() UserRepository
	Agents() AgentRepository
	Meetings() MeetingRepository

	Ping(ctx context.Context) error
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM.
type GormRepositoryManager struct {
	db          *gorm.DB
	userRepo    *GormUserRepository
	agentRepo   *GormAgentRepository
	meetingRepo *GormMeetingRepository
}

// NewGormRepositoryManager creates a repository manager over an open GORM
// connection.
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:          db,
		userRepo:    NewGormUserRepository(db),
		agentRepo:   NewGormAgentRepository(db),
		meetingRepo: NewGormMeetingRepository(db),
	}
}

// Users returns the user repository.
func (m *GormRepositoryManager) Users() UserRepository {
	return m.userRepo
}

// Agents returns the agent repository.
func (m *GormRepositoryManager) Agents() AgentRepository {
	return m.agentRepo
}

// Meetings returns the meeting repository.
func (m *GormRepositoryManager) Meetings() MeetingRepository {
	return m.meetingRepo
}

// Ping checks the database connection.
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
