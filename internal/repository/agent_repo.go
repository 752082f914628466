package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAgentRepository implements AgentRepository using GORM.
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GORM agent repository.
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Create creates a new agent, assigning an ID when the caller left it empty.
func (r *GormAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	return nil
}

// GetByID retrieves an agent by ID. Returns (nil, nil) when no row exists.
func (r *GormAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).First(&agent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// GetByName retrieves an agent by its unique name. Returns (nil, nil) when no
// row exists.
func (r *GormAgentRepository) GetByName(ctx context.Context, name string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).First(&agent, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent by name: %w", err)
	}
	return &agent, nil
}

// GetByUserID retrieves all agents owned by a user, newest first.
func (r *GormAgentRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get agents by user ID: %w", err)
	}
	return agents, nil
}
