package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/outline"
	"github.com/oakwood-commons/stixoutline/internal/query"
)

// session is one editor connection. Handlers run in message order on the
// connection's read loop and hold mu for their whole duration. Renames run
// on their own goroutine and take mu only between client round trips.
type session struct {
	mu       sync.Mutex
	log      logr.Logger
	name     string
	version  string
	ws       *host.Workspace
	store    *config.Store
	proj     *outline.Projector
	cmds     outline.Commands
	conn     *jsonrpc2.Conn
	unbind   func()
	shutdown bool
	pending  sync.WaitGroup
}

func newSession(ctx context.Context, srv *Server) (*session, error) {
	s := &session{
		log:     srv.log,
		name:    srv.name,
		version: srv.version,
		ws:      host.NewWorkspace(),
		store:   config.NewStore(srv.cfg),
	}
	opts := []outline.Option{
		outline.WithConfig(srv.cfg),
		outline.WithLogger(srv.log.WithName("outline")),
		outline.WithPrompter(s),
		outline.WithContextSetter(s),
	}
	if srv.icons != nil {
		opts = append(opts, outline.WithIcons(srv.icons))
	}
	proj, err := outline.New(window{s: s}, opts...)
	if err != nil {
		return nil, err
	}
	s.proj = proj
	s.cmds = outline.Commands{Projector: proj}
	proj.Subscribe(s.publishChange)
	s.unbind = outline.Bind(ctx, proj, s.ws, s.store)
	return s, nil
}

func (s *session) connect(ctx context.Context, stream jsonrpc2.ObjectStream) *jsonrpc2.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))
	return s.conn
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unbind != nil {
		s.unbind()
		s.unbind = nil
	}
}

// wait blocks until running renames have finished.
func (s *session) wait() { s.pending.Wait() }

func (s *session) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.V(1).Info("handling request", "method", req.Method, "notification", req.Notif)

	switch req.Method {
	case MethodInitialize:
		return s.initialize(), nil
	case MethodInitialized:
		return nil, nil
	case MethodShutdown:
		s.shutdown = true
		return nil, nil
	case MethodExit:
		go conn.Close()
		return nil, nil
	}
	if s.shutdown {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: "server is shutting down"}
	}

	switch req.Method {
	case MethodDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		doc := params.TextDocument
		s.ws.Open(string(doc.URI), string(doc.LanguageID), doc.Text)
		return nil, rpcError(s.ws.Activate(string(doc.URI)))
	case MethodDidChange:
		var params didChangeParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return nil, rpcError(s.didChange(params))
	case MethodDidClose:
		var params protocol.DidCloseTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return nil, rpcError(s.ws.Close(string(params.TextDocument.URI)))
	case MethodDidChangeConfig:
		var params SettingsParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return nil, rpcError(s.didChangeConfiguration(params))
	case MethodExecuteCommand:
		var params protocol.ExecuteCommandParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return nil, rpcError(s.executeCommand(ctx, params))
	case MethodSetActiveDocument:
		var params DocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return nil, rpcError(s.ws.Activate(string(params.URI)))
	case MethodChildren:
		var params NodeParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		ids := s.proj.Children(params.identity())
		if ids == nil {
			ids = []outline.Identity{}
		}
		return ids, nil
	case MethodItem:
		var params NodeParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		item, ok := s.proj.Item(params.identity())
		if !ok {
			return nil, nil
		}
		return ItemResult{Item: item, Path: item.Path.String()}, nil
	case MethodFind:
		var params FindParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		ids, err := s.proj.Find(params.Query)
		if err != nil {
			return nil, rpcError(err)
		}
		if ids == nil {
			ids = []outline.Identity{}
		}
		return ids, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found: " + req.Method}
}

func (s *session) initialize() *protocol.InitializeResult {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindIncremental,
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: outline.CommandNames(),
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: s.name, Version: s.version},
	}
}

func (s *session) didChange(params didChangeParams) error {
	uri := string(params.TextDocument.URI)
	var changes []host.Change
	flush := func() error {
		if len(changes) == 0 {
			return nil
		}
		err := s.ws.Apply(uri, changes)
		changes = nil
		return err
	}
	for _, c := range params.ContentChanges {
		if c.Range != nil {
			changes = append(changes, host.Change{Range: toHostRange(*c.Range), Text: c.Text})
			continue
		}
		if err := flush(); err != nil {
			return err
		}
		if err := s.ws.Replace(uri, c.Text); err != nil {
			return err
		}
	}
	return flush()
}

// didChangeConfiguration is called with mu held; the store notifies the
// projector on this goroutine.
func (s *session) didChangeConfiguration(params SettingsParams) error {
	settings := params.Settings.StixOutline
	return s.store.Update(func(c *config.Config) {
		if settings.AutoRefresh != nil {
			c.Outline.AutoRefresh = *settings.AutoRefresh
		}
		if settings.RenameMode != nil {
			c.Rename.Mode = config.RenameMode(*settings.RenameMode)
		}
	})
}

func (s *session) executeCommand(ctx context.Context, params protocol.ExecuteCommandParams) error {
	if params.Command != outline.CmdRenameNode {
		return s.cmds.Execute(ctx, params.Command, params.Arguments)
	}
	id, err := outline.IdentityArg(params.Arguments)
	if err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.rename(context.WithoutCancel(ctx), id); err != nil {
			s.log.Error(err, "rename failed", "id", int(id))
		}
	}()
	return nil
}

// rename runs the prompt and the edit commit without holding mu, so the
// read loop keeps delivering the client's replies and document changes.
func (s *session) rename(ctx context.Context, id outline.Identity) error {
	s.mu.Lock()
	placeholder := s.store.Get().Rename.Placeholder
	s.mu.Unlock()

	value, ok, err := s.Prompt(ctx, placeholder)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	edit, found := s.proj.RenameEdit(id, value)
	ed := s.proj.Tracker().Editor()
	s.mu.Unlock()
	if !found {
		return nil
	}
	if ed == nil {
		return host.ErrNoActiveEditor
	}
	if err := ed.ApplyEdits(ctx, []host.TextEdit{edit}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.proj.RefreshNode(id)
	return nil
}

func (s *session) publishChange(c outline.Change) {
	s.notify(MethodDidChangeTreeData, TreeChange{Kind: c.Kind.String(), ID: int(c.ID), Path: c.Path.String()})
}

func (s *session) notify(method string, params any) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Notify(context.Background(), method, params); err != nil {
		s.log.Error(err, "notify failed", "method", method)
	}
}

// Prompt implements host.Prompter by asking the client.
func (s *session) Prompt(ctx context.Context, placeholder string) (string, bool, error) {
	var res PromptResult
	if err := s.conn.Call(ctx, MethodPrompt, PromptParams{Placeholder: placeholder}, &res); err != nil {
		return "", false, fmt.Errorf("prompt: %w", err)
	}
	if res.Value == nil {
		return "", false, nil
	}
	return *res.Value, true, nil
}

// SetContext implements host.ContextSetter by notifying the client.
func (s *session) SetContext(_ context.Context, key string, value any) error {
	s.notify(MethodSetContext, ContextParams{Key: key, Value: value})
	return nil
}

func decode(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return nil
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

// rpcError maps domain errors onto JSON-RPC error codes.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc2.Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, host.ErrUnknownDocument),
		errors.Is(err, host.ErrNoActiveEditor),
		errors.Is(err, query.ErrCompile),
		errors.Is(err, query.ErrNotPredicate),
		errors.Is(err, outline.ErrUnknownCommand):
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
}
