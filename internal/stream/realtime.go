package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/agentmeet/agentmeet-service/pkg/logger"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RealtimeSession is one live AI voice agent attached to a call. It wraps
// the websocket the platform bridges to the OpenAI realtime API; audio stays
// inside the platform, we only drive the session configuration.
type RealtimeSession struct {
	callID string
	conn   *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// realtimeCommand is the JSON frame format of the realtime control channel.
type realtimeCommand struct {
	Type    string          `json:"type"`
	Session *sessionPayload `json:"session,omitempty"`
}

type sessionPayload struct {
	Instructions string `json:"instructions,omitempty"`
}

// ConnectAgent attaches an AI voice agent to the call, configured with the
// agent's instruction text. The session is tracked per call and torn down by
// EndCall. Calling it twice for the same call replaces the session.
func (c *Client) ConnectAgent(ctx context.Context, callID, agentUserID, instructions string) error {
	token, err := c.UserToken(agentUserID)
	if err != nil {
		return err
	}

	endpoint, err := url.Parse(c.cfg.RealtimeURL)
	if err != nil {
		return fmt.Errorf("invalid realtime URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("api_key", c.cfg.APIKey)
	q.Set("call_type", DefaultCallType)
	q.Set("call_id", callID)
	q.Set("agent_user_id", agentUserID)
	q.Set("openai_api_key", c.cfg.OpenAIAPIKey)
	endpoint.RawQuery = q.Encode()

	header := map[string][]string{"Authorization": {token}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		return fmt.Errorf("failed to open realtime session for call %s: %w", callID, err)
	}

	session := &RealtimeSession{callID: callID, conn: conn}
	if err := session.UpdateSession(instructions); err != nil {
		_ = session.Close()
		return err
	}

	c.mu.Lock()
	if prev := c.sessions[callID]; prev != nil {
		_ = prev.Close()
	}
	c.sessions[callID] = session
	c.mu.Unlock()

	logger.Base().Info("voice agent attached",
		zap.String("call_id", callID),
		zap.String("agent_user_id", agentUserID))
	return nil
}

// ActiveSessions returns the number of live agent sessions.
func (c *Client) ActiveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// UpdateSession pushes the agent instructions to the live session.
func (s *RealtimeSession) UpdateSession(instructions string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("realtime session for call %s is closed", s.callID)
	}

	frame, err := json.Marshal(realtimeCommand{
		Type:    "session.update",
		Session: &sessionPayload{Instructions: instructions},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session update: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to send session update for call %s: %w", s.callID, err)
	}
	return nil
}

// Close shuts the websocket down. Safe to call more than once.
func (s *RealtimeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
