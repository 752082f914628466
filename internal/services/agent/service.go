// Package agent implements agent persona registration.
package agent

import (
	"context"
	"errors"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/agentmeet/agentmeet-service/internal/repository"
	"github.com/agentmeet/agentmeet-service/pkg/logger"
	"go.uber.org/zap"
)

// ErrAgentNameTaken means the unique agent name is already registered.
var ErrAgentNameTaken = errors.New("agent name already registered")

// Service provides agent registration and lookup.
type Service struct {
	repos repository.RepositoryManager
}

// NewService creates an agent service.
func NewService(repos repository.RepositoryManager) *Service {
	return &Service{repos: repos}
}

// Create registers a new agent persona for the user. Names are globally
// unique.
func (s *Service) Create(ctx context.Context, userID string, req domain.CreateAgentRequest) (*domain.Agent, error) {
	existing, err := s.repos.Agents().GetByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAgentNameTaken
	}

	agent := &domain.Agent{
		Name:         req.Name,
		Instructions: req.Instructions,
		UserID:       userID,
	}
	if err := s.repos.Agents().Create(ctx, agent); err != nil {
		return nil, err
	}

	logger.Base().Info("agent registered",
		zap.String("agent_id", agent.ID),
		zap.String("user_id", userID))
	return agent, nil
}

// ListByUser returns the user's agents, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Agent, error) {
	return s.repos.Agents().GetByUserID(ctx, userID)
}
