// Package suada provides a minimal client for the Suada public chat API.
package suada

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultBaseURL is the production Suada public API endpoint.
const DefaultBaseURL = "https://suada.ai/api/public"

// defaultUserAgent identifies this client on outbound requests.
const defaultUserAgent = "SuadaMCP/1.0 Go"

// Config holds Suada API connection settings.
type Config struct {
	APIKey    string // Bearer token (required)
	BaseURL   string // defaults to DefaultBaseURL
	UserAgent string // defaults to defaultUserAgent
}

// Client is a Suada API client. One Chat call performs exactly one HTTP
// round trip; there are no retries. A Client is safe for concurrent use.
type Client struct {
	HTTPClient *http.Client
	Config     Config
}

// NewClient returns a client with the given config. HTTPClient may be
// swapped after construction (tests point it at a local server).
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("suada api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{Config: cfg, HTTPClient: http.DefaultClient}, nil
}

// ChatPayload is the outbound body for the chat endpoint.
type ChatPayload struct {
	Message                string
	ExternalUserIdentifier string
	Context                map[string]any
	ConversationID         string
}

// MarshalJSON emits message unconditionally, externalUserIdentifier and
// conversationId only when set, and context whenever it is non-nil — an
// empty-but-present context map still produces a "context" key.
func (p ChatPayload) MarshalJSON() ([]byte, error) {
	m := map[string]any{"message": p.Message}
	if p.ExternalUserIdentifier != "" {
		m["externalUserIdentifier"] = p.ExternalUserIdentifier
	}
	if p.Context != nil {
		m["context"] = p.Context
	}
	if p.ConversationID != "" {
		m["conversationId"] = p.ConversationID
	}
	return json.Marshal(m)
}

// ChatResponse is the normalized chat result. Optional upstream fields are
// defaulted to empty values, never nil. Raw retains the verbatim decoded
// body for traceability.
type ChatResponse struct {
	Response        string
	Metrics         map[string]any
	Insights        []string
	Recommendations []string
	Risks           []string
	Reasoning       string
	Raw             map[string]any
}

// APIError is returned when the chat endpoint answers with a non-2xx
// status. Message is the upstream error body's "message" field when one
// could be parsed, else empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("suada api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("suada api status %d", e.StatusCode)
}

// DecodeError is returned when the chat endpoint answers 2xx but the body
// cannot be parsed. It is neither an HTTP nor a transport failure: there is
// no upstream error status to report.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode chat response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Chat sends one message to the chat endpoint and returns the normalized
// response. Non-2xx statuses come back as *APIError; transport and decode
// failures as wrapped plain errors.
func (c *Client) Chat(ctx context.Context, payload ChatPayload) (*ChatResponse, error) {
	if payload.Message == "" {
		return nil, errors.New("chat message is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	u := c.Config.BaseURL + "/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return normalize(raw), nil
}

// readAPIError extracts the upstream "message" field from an error body if
// one is there; a body that is not JSON just yields the bare status.
func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	apiErr.Message = getString(body, "message")
	return apiErr
}

// normalize pulls the named optional fields out of the decoded body,
// substituting empty values for anything absent or mistyped.
func normalize(raw map[string]any) *ChatResponse {
	return &ChatResponse{
		Response:        getString(raw, "response"),
		Metrics:         getMap(raw, "metrics"),
		Insights:        getStringSlice(raw, "insights"),
		Recommendations: getStringSlice(raw, "recommendations"),
		Risks:           getStringSlice(raw, "risks"),
		Reasoning:       getString(raw, "reasoning"),
		Raw:             raw,
	}
}

func getString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func getMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func getStringSlice(m map[string]any, key string) []string {
	out := []string{}
	arr, ok := m[key].([]any)
	if !ok {
		return out
	}
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
