// Package mcpserver exposes the outline as MCP tools, so an assistant can
// browse and rename the nodes of a STIX bundle.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/icons"
	"github.com/oakwood-commons/stixoutline/internal/outline"
)

// Tool names.
const (
	ToolOpen     = "outline_open"
	ToolChildren = "outline_children"
	ToolItem     = "outline_item"
	ToolFind     = "outline_find"
	ToolRename   = "outline_rename"
)

// Server holds one workspace and projector. Tool calls are serialized.
type Server struct {
	mu    sync.Mutex
	log   logr.Logger
	ws    *host.Workspace
	proj  *outline.Projector
	paths map[string]string // uri -> file path
}

// Option configures a Server.
type Option func(*options)

type options struct {
	log   logr.Logger
	icons *icons.Resolver
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithIcons sets the icon resolver.
func WithIcons(r *icons.Resolver) Option {
	return func(o *options) { o.icons = r }
}

// New returns a server with an empty workspace.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Server, error) {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	ws := host.NewWorkspace()
	popts := []outline.Option{
		outline.WithConfig(cfg),
		outline.WithLogger(o.log.WithName("outline")),
		outline.WithContextSetter(ws),
	}
	if o.icons != nil {
		popts = append(popts, outline.WithIcons(o.icons))
	}
	proj, err := outline.New(ws, popts...)
	if err != nil {
		return nil, err
	}
	outline.Bind(ctx, proj, ws, nil)
	return &Server{log: o.log, ws: ws, proj: proj, paths: map[string]string{}}, nil
}

// Register adds the outline tools to srv.
func (s *Server) Register(srv *mcp.Server) {
	addTool(s, srv, &mcp.Tool{
		Name:        ToolOpen,
		Description: "Open a JSON file, or inline JSON text, and make it the outlined document.",
		InputSchema: inputSchema(map[string]any{
			"path":     map[string]any{"type": "string", "description": "File to open"},
			"text":     map[string]any{"type": "string", "description": "Inline document text, used when path is empty"},
			"language": map[string]any{"type": "string", "description": "Language of inline text (default json)"},
		}, nil),
	}, s.open)
	addTool(s, srv, &mcp.Tool{
		Name:        ToolChildren,
		Description: "List the items below a node. Omit id for the top level.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "integer", "description": "Node identity (byte offset)"},
		}, nil),
	}, s.children)
	addTool(s, srv, &mcp.Tool{
		Name:        ToolItem,
		Description: "Describe one node: label, icon, collapsible state and source range.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "integer", "description": "Node identity (byte offset)"},
		}, []string{"id"}),
	}, s.item)
	addTool(s, srv, &mcp.Tool{
		Name:        ToolFind,
		Description: `Find objects matching a CEL predicate over "_", e.g. _.type == "indicator".`,
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "CEL expression"},
		}, []string{"query"}),
	}, s.find)
	addTool(s, srv, &mcp.Tool{
		Name:        ToolRename,
		Description: "Rename a node: the key of a property value, or an array element or root value itself.",
		InputSchema: inputSchema(map[string]any{
			"id":    map[string]any{"type": "integer", "description": "Node identity (byte offset)"},
			"value": map[string]any{"type": "string", "description": "New label, written between quotes"},
			"save":  map[string]any{"type": "boolean", "description": "Write the document back to its file"},
		}, []string{"id", "value"}),
	}, s.rename)
}

// NewMCPServer returns an MCP server with the outline tools registered.
func (s *Server) NewMCPServer(name, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	s.Register(srv)
	return srv
}

// RunStdio serves the tools over stdin and stdout until ctx is done.
func (s *Server) RunStdio(ctx context.Context, name, version string) error {
	return s.NewMCPServer(name, version).Run(ctx, &mcp.StdioTransport{})
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// addTool registers fn, decoding its arguments into Req and encoding its
// result as JSON text. Failures become tool errors.
func addTool[Req any](s *Server, srv *mcp.Server, tool *mcp.Tool, fn func(context.Context, Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r Req
		if args := req.Params.Arguments; len(args) > 0 {
			if err := json.Unmarshal(args, &r); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}
		s.mu.Lock()
		resp, err := fn(ctx, r)
		s.mu.Unlock()
		if err != nil {
			s.log.V(1).Info("tool failed", "tool", tool.Name, "error", err.Error())
			return toolError(err), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

// errNoDocument is returned by node tools before outline_open.
var errNoDocument = errors.New("no document is open; call " + ToolOpen + " first")
