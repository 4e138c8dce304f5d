// Package connector adapts model context requests to the Suada chat API.
//
// Process is a total function: every failure — missing user identifier,
// transport fault, upstream error status — comes back as a Response with
// Error set, never as a Go error.
package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"suada-mcp/internal/logging"
	"suada-mcp/internal/suada"
)

// genericCommFailure is the error text used when the upstream gives us no
// message of its own.
const genericCommFailure = "failed to communicate with Suada API"

// Request is one inbound model context request.
type Request struct {
	Query          string         `json:"query"`
	Context        map[string]any `json:"context,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Response is the normalized result. When Error is non-empty it is the
// authoritative channel and Content is empty.
type Response struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Error    string         `json:"error,omitempty"`
}

// Insights is the structured block extracted from a successful chat
// response, stored under Metadata["suada_data"].
type Insights struct {
	Metrics         map[string]any `json:"metrics"`
	Insights        []string       `json:"insights"`
	Recommendations []string       `json:"recommendations"`
	Risks           []string       `json:"risks"`
	Reasoning       string         `json:"reasoning"`
}

// Connector is the direct client: one Suada API client plus an optional
// default user identifier for requests that do not carry their own.
type Connector struct {
	client         *suada.Client
	externalUserID string
	logger         *slog.Logger
}

// New returns a connector over the given client. externalUserID is the
// fallback user identifier; it may be empty if every request supplies one.
func New(client *suada.Client, externalUserID string) *Connector {
	return &Connector{
		client:         client,
		externalUserID: externalUserID,
		logger:         logging.New("connector"),
	}
}

// Process forwards one request to Suada and normalizes the outcome. It
// never returns a Go error.
func (c *Connector) Process(ctx context.Context, req Request) Response {
	userID := req.UserID
	if userID == "" {
		userID = c.externalUserID
	}
	if userID == "" {
		c.logger.Error("request rejected: no user identifier")
		return Response{
			Metadata: map[string]any{},
			Error:    "user identifier is required: set it on the request or configure a default",
		}
	}

	reqContext := req.Context
	if reqContext == nil {
		reqContext = map[string]any{}
	}

	c.logger.Info("sending request to suada", "query", req.Query)
	resp, err := c.client.Chat(ctx, suada.ChatPayload{
		Message:                req.Query,
		ExternalUserIdentifier: userID,
		Context:                reqContext,
		ConversationID:         req.ConversationID,
	})
	if err != nil {
		return c.failure(err)
	}

	return Response{
		Content: resp.Response,
		Metadata: map[string]any{
			"suada_data": Insights{
				Metrics:         resp.Metrics,
				Insights:        resp.Insights,
				Recommendations: resp.Recommendations,
				Risks:           resp.Risks,
				Reasoning:       resp.Reasoning,
			},
			"raw_response": resp.Raw,
		},
	}
}

// failure maps a chat error to the uniform error response. status_code is
// set whenever the failure carries an HTTP status, and explicitly nil for
// transport-level faults. A malformed success body is neither: it lands in
// the catch-all with the fault's description and empty metadata.
func (c *Connector) failure(err error) Response {
	c.logger.Error("api request failed", "error", err)

	var decodeErr *suada.DecodeError
	if errors.As(err, &decodeErr) {
		return Response{
			Metadata: map[string]any{},
			Error:    fmt.Sprintf("unexpected error: %v", err),
		}
	}

	message := genericCommFailure
	var statusCode any

	var apiErr *suada.APIError
	if errors.As(err, &apiErr) {
		statusCode = apiErr.StatusCode
		if apiErr.Message != "" {
			message = apiErr.Message
		}
	}

	return Response{
		Metadata: map[string]any{"status_code": statusCode},
		Error:    message,
	}
}
