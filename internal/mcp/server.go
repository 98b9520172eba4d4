// Package mcp implements a Model Context Protocol server exposing gitwork's
// session analysis as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fakeyudi/gitwork/internal/collector"
	"github.com/fakeyudi/gitwork/internal/logging"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "gitwork"
	// serverVersion is the MCP server implementation version.
	serverVersion = "1.0.0"

	// toolCount is the expected number of registered tools.
	toolCount = 2
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil discards logs.
	Logger *slog.Logger

	// Runner executes git for the sessions tool. Nil runs the git binary.
	Runner collector.GitRunner

	// Now anchors relative windows such as "last N days". Nil uses time.Now.
	Now func() time.Time
}

// Server wraps the MCP SDK server with gitwork tool registrations.
type Server struct {
	inner  *mcpsdk.Server
	mu     sync.RWMutex
	tools  []string
	logger *slog.Logger
	runner collector.GitRunner
	now    func() time.Time
}

// NewServer creates a new MCP server with all gitwork tools registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{
		inner:  inner,
		tools:  make([]string, 0, toolCount),
		logger: logger,
		runner: deps.Runner,
		now:    now,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	s.logger.Info("mcp server starting", "tools", s.ListToolNames())
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all gitwork MCP tools to the server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSessions,
		Description: sessionsToolDescription,
	}, withLogging(s.logger, ToolNameSessions, s.handleSessions))
	s.trackTool(ToolNameSessions)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameTimeline,
		Description: timelineToolDescription,
	}, withLogging(s.logger, ToolNameTimeline, s.handleTimeline))
	s.trackTool(ToolNameTimeline)
}

// withLogging wraps an MCP tool handler to attach the server logger to the
// context and log the outcome of each call.
func withLogging[Input any](
	logger *slog.Logger,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()
		ctx = logging.WithLogger(ctx, logger.With("tool", toolName))

		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}
		logger.Debug("tool call", "tool", toolName, "status", status, "elapsed", time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	sessionsToolDescription = "Reconstruct work sessions from local git repositories. " +
		"Collects commits and reflog sync events for a time window, groups them into sessions, " +
		"and reports periods where several repositories were worked on in parallel. " +
		"Returns a Markdown or JSON report."

	timelineToolDescription = "Run session segmentation and parallel-work detection on " +
		"caller-supplied commits and anchor events (RFC3339 timestamps). " +
		"Returns the sessions per repository and the overlap periods as JSON."
)
