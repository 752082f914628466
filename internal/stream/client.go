// Package stream is the thin client for the external video call platform.
// The core only issues commands through it; all media and transport handling
// is internal to the platform.
package stream

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCallType is the platform call type used for all meetings. A call is
// addressed as "<type>:<id>" on the wire, which is why webhook payloads carry
// a colon-delimited call_cid.
const DefaultCallType = "default"

// Config carries the platform credentials and endpoints. It is built once at
// startup; the client never reads the environment itself.
type Config struct {
	APIKey       string
	APISecret    string
	BaseURL      string
	RealtimeURL  string
	OpenAIAPIKey string
	HTTPTimeout  time.Duration
}

// Client is an explicitly constructed platform client, injected into the
// handlers and services that need it.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu       sync.Mutex
	sessions map[string]*RealtimeSession // call id -> live agent session
}

// NewClient creates a platform client from config.
func NewClient(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		sessions:   make(map[string]*RealtimeSession),
	}
}

// VerifyWebhook reports whether signature is a valid HMAC-SHA256 of the raw
// request body under the API secret. The body must be the exact bytes as
// received; re-encoding before verification invalidates the signature.
func (c *Client) VerifyWebhook(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// UserToken returns a platform user token for the given user id: an HS256
// JWT signed with the API secret, valid for one hour.
func (c *Client) UserToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(c.cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign user token: %w", err)
	}
	return signed, nil
}

// serverToken returns the JWT the client authenticates its own API calls
// with.
func (c *Client) serverToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
		"iat":    now.Unix(),
		"exp":    now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(c.cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign server token: %w", err)
	}
	return signed, nil
}

// CallSettings mirrors the platform's settings_override block.
type CallSettings struct {
	Transcription *TranscriptionSettings `json:"transcription,omitempty"`
	Recording     *RecordingSettings     `json:"recording,omitempty"`
}

// TranscriptionSettings configures call transcription.
type TranscriptionSettings struct {
	Language          string `json:"language,omitempty"`
	Mode              string `json:"mode,omitempty"`
	ClosedCaptionMode string `json:"closed_caption_mode,omitempty"`
}

// RecordingSettings configures call recording.
type RecordingSettings struct {
	Mode    string `json:"mode,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// CreateCallInput is the payload for creating a call.
type CreateCallInput struct {
	CreatedByID      string                 `json:"created_by_id"`
	Custom           map[string]interface{} `json:"custom,omitempty"`
	SettingsOverride *CallSettings          `json:"settings_override,omitempty"`
}

// UpsertUser is one entry of an upsert-users command.
type UpsertUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Image string `json:"image,omitempty"`
}

// CreateCall creates (or gets) the platform call identified by callID.
func (c *Client) CreateCall(ctx context.Context, callID string, input CreateCallInput) error {
	path := fmt.Sprintf("/video/call/%s/%s", DefaultCallType, callID)
	return c.post(ctx, path, map[string]interface{}{"data": input})
}

// EndCall instructs the platform to end the call and tears down any live
// agent session attached to it.
func (c *Client) EndCall(ctx context.Context, callID string) error {
	c.mu.Lock()
	session := c.sessions[callID]
	delete(c.sessions, callID)
	c.mu.Unlock()
	if session != nil {
		_ = session.Close()
	}

	path := fmt.Sprintf("/video/call/%s/%s/mark_ended", DefaultCallType, callID)
	return c.post(ctx, path, struct{}{})
}

// UpsertUsers creates or updates platform users.
func (c *Client) UpsertUsers(ctx context.Context, users []UpsertUser) error {
	userMap := make(map[string]UpsertUser, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	return c.post(ctx, "/video/users", map[string]interface{}{"users": userMap})
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s%s?api_key=%s", c.cfg.BaseURL, path, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	token, err := c.serverToken()
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("stream-auth-type", "jwt")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("platform returned %d for %s: %s", resp.StatusCode, path, string(msg))
	}
	return nil
}
