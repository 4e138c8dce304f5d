// Package mcp exposes the Suada chat API as Model Context Protocol tools.
// Transport, framing, and JSON-RPC dispatch belong to the MCP SDK; this
// package only supplies tool schemas and handler bodies.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"suada-mcp/internal/logging"
	"suada-mcp/internal/suada"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// APIKeyEnv is the environment variable consulted when no explicit API key
// is configured.
const APIKeyEnv = "SUADA_API_KEY"

// ChatCaller is the one capability handlers need from the Suada client.
type ChatCaller interface {
	Chat(ctx context.Context, payload suada.ChatPayload) (*suada.ChatResponse, error)
}

// Options configures a Server. APIKey falls back to the SUADA_API_KEY
// environment variable; a missing key is a construction error. Client, when
// set, replaces the API-key-derived Suada client (tests inject stubs here).
type Options struct {
	Name    string
	Version string
	APIKey  string
	BaseURL string
	Client  ChatCaller
}

// Server wraps the MCP SDK server with the two Suada tools registered.
// Handlers share only the immutable chat client and are safe to invoke
// concurrently.
type Server struct {
	MCPServer *sdkmcp.Server

	client ChatCaller
}

// NewServer builds a server and registers its tools. The tool set is fixed
// for the life of the process.
func NewServer(opts Options) (*Server, error) {
	if opts.Name == "" {
		opts.Name = "suada"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	client := opts.Client
	if client == nil {
		key := opts.APIKey
		if key == "" {
			key = os.Getenv(APIKeyEnv)
		}
		if key == "" {
			return nil, fmt.Errorf("suada api key is required: pass one explicitly or set %s", APIKeyEnv)
		}
		c, err := suada.NewClient(suada.Config{APIKey: key, BaseURL: opts.BaseURL})
		if err != nil {
			return nil, fmt.Errorf("suada client: %w", err)
		}
		client = c
	}

	s := &Server{client: client}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: opts.Name, Version: opts.Version},
		nil,
	)
	s.registerTools()

	logging.New("mcp").Info("initialized suada MCP server", "name", opts.Name, "version", opts.Version)
	return s, nil
}

// Run serves MCP over the given transport until ctx is canceled.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	return s.MCPServer.Run(ctx, transport)
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "business_analyst",
		Description: "Get business insights and analysis from Suada AI. Input should be a specific business question.",
	}, s.handleBusinessAnalyst)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "data_retrieval",
		Description: "Retrieve specific data from a connected data source in Suada.",
	}, s.handleDataRetrieval)
}

// --- Tool input/output types ---

type businessAnalystInput struct {
	Query string `json:"query" jsonschema:"the business question to analyze"`
}

type businessAnalystOutput struct {
	Response        string         `json:"response"`
	Metrics         map[string]any `json:"metrics"`
	Insights        []string       `json:"insights"`
	Recommendations []string       `json:"recommendations"`
	Risks           []string       `json:"risks"`
}

type dataRetrievalInput struct {
	DataSource string `json:"data_source" jsonschema:"the name of the data source to query"`
	Query      string `json:"query" jsonschema:"the query to execute against the data source"`
}

type dataRetrievalOutput struct {
	Data     string            `json:"data"`
	Metadata retrievalMetadata `json:"metadata"`
}

type retrievalMetadata struct {
	Source string `json:"source"`
	Query  string `json:"query"`
}

// --- Tool handlers ---

func (s *Server) handleBusinessAnalyst(ctx context.Context, _ *sdkmcp.CallToolRequest, input businessAnalystInput) (*sdkmcp.CallToolResult, businessAnalystOutput, error) {
	logger := logging.New("mcp")
	logger.Info("executing business analyst tool", "query", input.Query)

	resp, err := s.client.Chat(ctx, suada.ChatPayload{Message: input.Query})
	if err != nil {
		logger.Error("business analyst tool failed", "error", err)
		return nil, businessAnalystOutput{}, &ToolExecutionError{
			Message: fmt.Sprintf("failed to get business insights: %v", err),
		}
	}

	return nil, businessAnalystOutput{
		Response:        resp.Response,
		Metrics:         orEmptyMap(resp.Metrics),
		Insights:        orEmptySlice(resp.Insights),
		Recommendations: orEmptySlice(resp.Recommendations),
		Risks:           orEmptySlice(resp.Risks),
	}, nil
}

// orEmptyMap and orEmptySlice substitute empty collections for null fields
// so tool output never carries JSON null.
func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *Server) handleDataRetrieval(ctx context.Context, _ *sdkmcp.CallToolRequest, input dataRetrievalInput) (*sdkmcp.CallToolResult, dataRetrievalOutput, error) {
	logger := logging.New("mcp")
	logger.Info("executing data retrieval tool", "data_source", input.DataSource, "query", input.Query)

	// The data source is not routed anywhere; it is interpolated into a
	// natural-language instruction and the upstream model handles it.
	message := fmt.Sprintf("Retrieve data from %s: %s", input.DataSource, input.Query)

	resp, err := s.client.Chat(ctx, suada.ChatPayload{Message: message})
	if err != nil {
		logger.Error("data retrieval tool failed", "error", err)
		return nil, dataRetrievalOutput{}, &ToolExecutionError{
			Message: fmt.Sprintf("failed to retrieve data: %v", err),
		}
	}

	return nil, dataRetrievalOutput{
		Data: resp.Response,
		Metadata: retrievalMetadata{
			Source: input.DataSource,
			Query:  input.Query,
		},
	}, nil
}

// ToolExecutionError is the single fault type tool handlers raise. The SDK
// runtime owns its wire-level representation.
type ToolExecutionError struct {
	Message string
}

func (e *ToolExecutionError) Error() string { return e.Message }

// IsToolExecutionError reports whether err is (or wraps) a tool-execution
// fault.
func IsToolExecutionError(err error) bool {
	var te *ToolExecutionError
	return errors.As(err, &te)
}
