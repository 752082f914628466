package domain

import "time"

// Agent is a reusable AI persona: a unique name plus free-text behavioral
// instructions. Agents are referenced by meetings and are read-only from the
// webhook core's perspective.
type Agent struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
	Instructions string    `json:"instructions" gorm:"type:text;not null"`
	UserID       string    `json:"user_id" gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Agent.
func (Agent) TableName() string {
	return "agents"
}

// CreateAgentRequest is the body of POST /api/agents.
type CreateAgentRequest struct {
	Name         string `json:"agentname"`
	Instructions string `json:"agentInst"`
}

// AgentResponse is the API representation of an agent.
type AgentResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
}
