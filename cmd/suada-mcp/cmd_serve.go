package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"suada-mcp/internal/logging"
	mcpserver "suada-mcp/internal/mcp"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	serveAPIKey    string
	serveName      string
	serveVersion   string
	serveHTTPAddr  string
	serveHTTPToken string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Suada MCP tool server",
	Long: `Starts the MCP server exposing the business_analyst and data_retrieval
tools. By default it serves over stdin/stdout for host-managed processes; with
--http it serves the SDK's streamable HTTP endpoint at /mcp instead.

In stdio mode the server monitors for parent process death and self-terminates
when the host disconnects, to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Suada API key (default $SUADA_API_KEY)")
	serveCmd.Flags().StringVar(&serveName, "server-name", "", "MCP server name")
	serveCmd.Flags().StringVar(&serveVersion, "server-version", "", "MCP server version")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "Serve MCP over HTTP on this address instead of stdio")
	serveCmd.Flags().StringVar(&serveHTTPToken, "token", "", "Bearer token protecting the HTTP endpoint")
}

func runServe(cmd *cobra.Command, _ []string) error {
	name := cfg.ServerName
	if serveName != "" {
		name = serveName
	}
	ver := cfg.ServerVersion
	if serveVersion != "" {
		ver = serveVersion
	}
	apiKey := cfg.APIKey
	if serveAPIKey != "" {
		apiKey = serveAPIKey
	}

	srv, err := mcpserver.NewServer(mcpserver.Options{
		Name:    name,
		Version: ver,
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return err
	}

	logger := logging.New("serve")

	addr := cfg.HTTPAddr
	if serveHTTPAddr != "" {
		addr = serveHTTPAddr
	}
	if addr != "" {
		token := cfg.HTTPToken
		if serveHTTPToken != "" {
			token = serveHTTPToken
		}
		if token == "" {
			logger.Warn("no bearer token configured; the HTTP endpoint is open")
		}
		logger.Info("starting suada MCP server over HTTP", "addr", addr)
		return http.ListenAndServe(addr, srv.HTTPHandler(token))
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logger.Info("starting suada MCP server over stdio (parent watchdog active)")
	return srv.Run(ctx, &sdkmcp.StdioTransport{})
}
