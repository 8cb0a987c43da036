package server

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/outline"
)

const docURI = "file:///bundle.json"

// client is a scripted editor. It keeps its own copy of the document and
// answers prompt and applyEdit requests the way an editor would.
type client struct {
	t      *testing.T
	conn   *jsonrpc2.Conn
	answer *string

	mu      sync.Mutex
	doc     *host.Buffer
	notes   chan *jsonrpc2.Request
	applied chan string
}

func newClient(t *testing.T) *client {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	srv := New(cfg, WithVersion("test"))

	serverSide, clientSide := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ServeStream(ctx, jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}))
	}()

	c := &client{
		t:       t,
		notes:   make(chan *jsonrpc2.Request, 64),
		applied: make(chan string, 4),
	}
	c.conn = jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(c.handle)))
	t.Cleanup(func() {
		_ = c.conn.Close()
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return c
}

func (c *client) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case MethodPrompt:
		return PromptResult{Value: c.answer}, nil
	case MethodApplyEdit:
		var params protocol.ApplyWorkspaceEditParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		c.mu.Lock()
		var changes []contentChange
		for _, edit := range params.Edit.Changes[docURI] {
			r := edit.Range
			if _, err := c.doc.Apply(host.Change{Range: toHostRange(r), Text: edit.NewText}); err != nil {
				c.mu.Unlock()
				return nil, err
			}
			changes = append(changes, contentChange{Range: &r, Text: edit.NewText})
		}
		text := c.doc.Text()
		c.mu.Unlock()
		err := conn.Notify(ctx, MethodDidChange, didChangeParams{
			TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI}},
			ContentChanges: changes,
		})
		if err != nil {
			return nil, err
		}
		c.applied <- text
		return protocol.ApplyWorkspaceEditResponse{Applied: true}, nil
	}
	if req.Notif {
		c.notes <- req
	}
	return nil, nil
}

func (c *client) call(method string, params, result any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.conn.Call(ctx, method, params, result)
}

func (c *client) open(text string) {
	c.t.Helper()
	c.mu.Lock()
	c.doc = host.NewBuffer(docURI, "json", text)
	c.mu.Unlock()
	require.NoError(c.t, c.conn.Notify(context.Background(), MethodDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: "json", Version: 1, Text: text},
	}))
}

// next waits for the next notification with the given method.
func (c *client) next(method string) *jsonrpc2.Request {
	c.t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case req := <-c.notes:
			if req.Method == method {
				return req
			}
		case <-timeout:
			c.t.Fatalf("no %s notification", method)
			return nil
		}
	}
}

func id(n int) NodeParams { return NodeParams{ID: &n} }

func TestInitialize(t *testing.T) {
	c := newClient(t)
	var res protocol.InitializeResult
	require.NoError(t, c.call(MethodInitialize, protocol.InitializeParams{}, &res))
	require.Equal(t, "stixoutline", res.ServerInfo.Name)
	require.Equal(t, "test", res.ServerInfo.Version)
	require.ElementsMatch(t, outline.CommandNames(), res.Capabilities.ExecuteCommandProvider.Commands)
}

func TestOpenChildrenAndItem(t *testing.T) {
	c := newClient(t)
	c.open(`{"a": 1, "b": [2,3]}`)

	ctxNote := c.next(MethodSetContext)
	var ctxParams ContextParams
	require.NoError(t, json.Unmarshal(*ctxNote.Params, &ctxParams))
	require.Equal(t, "jsonOutlineEnabled", ctxParams.Key)
	require.Equal(t, true, ctxParams.Value)

	var ids []int
	require.NoError(t, c.call(MethodChildren, NodeParams{}, &ids))
	require.Equal(t, []int{6, 14}, ids)

	var item ItemResult
	require.NoError(t, c.call(MethodItem, id(14), &item))
	require.Equal(t, "[ 2 ] b", item.Label)
	require.Equal(t, ".b", item.Path)
	require.Equal(t, outline.Collapsed, item.Collapsible)

	var missing *ItemResult
	require.NoError(t, c.call(MethodItem, id(500), &missing))
	require.Nil(t, missing)
}

func TestIncrementalChangeIsScoped(t *testing.T) {
	c := newClient(t)
	text := `{"objects": [{"id": "a"}, {"id": "b"}]}`
	c.open(text)
	c.next(MethodDidChangeTreeData)

	r := protocol.Range{
		Start: protocol.Position{Character: 33},
		End:   protocol.Position{Character: 36},
	}
	require.NoError(t, c.conn.Notify(context.Background(), MethodDidChange, didChangeParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI}},
		ContentChanges: []contentChange{{Range: &r, Text: `"c"`}},
	}))
	note := c.next(MethodDidChangeTreeData)
	var change TreeChange
	require.NoError(t, json.Unmarshal(*note.Params, &change))
	require.Equal(t, "subtreeChanged", change.Kind)
	require.Equal(t, 26, change.ID)
	require.Equal(t, ".objects[1]", change.Path)

	var item ItemResult
	require.NoError(t, c.call(MethodItem, id(33), &item))
	require.Equal(t, `id: "c"`, item.Label)
}

func TestRenameRoundTrip(t *testing.T) {
	c := newClient(t)
	answer := "label"
	c.answer = &answer
	c.open(`{"name": "old"}`)

	require.NoError(t, c.call(MethodExecuteCommand, protocol.ExecuteCommandParams{
		Command:   outline.CmdRenameNode,
		Arguments: []any{9},
	}, nil))

	select {
	case text := <-c.applied:
		require.Equal(t, `{"label": "old"}`, text)
	case <-time.After(5 * time.Second):
		t.Fatal("edit never applied")
	}

	// the refresh after the commit sees the edited text
	require.Eventually(t, func() bool {
		var item ItemResult
		if err := c.call(MethodItem, id(10), &item); err != nil {
			return false
		}
		return item.Label == `label: "old"`
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRenameCancelled(t *testing.T) {
	c := newClient(t)
	c.open(`{"name": "old"}`)
	require.NoError(t, c.call(MethodExecuteCommand, protocol.ExecuteCommandParams{
		Command:   outline.CmdRenameNode,
		Arguments: []any{9},
	}, nil))

	// a later request is answered, and no edit was requested
	var ids []int
	require.NoError(t, c.call(MethodChildren, NodeParams{}, &ids))
	require.Equal(t, []int{9}, ids)
	select {
	case <-c.applied:
		t.Fatal("cancelled rename applied an edit")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOpenSelectionReveals(t *testing.T) {
	c := newClient(t)
	c.open("{\n  \"a\": 1\n}")
	require.NoError(t, c.call(MethodExecuteCommand, protocol.ExecuteCommandParams{
		Command:   outline.CmdOpenSelection,
		Arguments: []any{9, 10},
	}, nil))
	note := c.next(MethodReveal)
	var params RevealParams
	require.NoError(t, json.Unmarshal(*note.Params, &params))
	require.Equal(t, protocol.Position{Line: 1, Character: 7}, params.Range.Start)
	require.Equal(t, protocol.Position{Line: 1, Character: 8}, params.Range.End)
}

func TestConfigurationAndFind(t *testing.T) {
	c := newClient(t)
	c.open(`{"objects": [{"type": "indicator"}, {"type": "malware"}]}`)

	var ids []int
	require.NoError(t, c.call(MethodFind, FindParams{Query: `_.type == "malware"`}, &ids))
	require.Equal(t, []int{36}, ids)

	err := c.call(MethodFind, FindParams{Query: `_.type ==`}, &ids)
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)

	var settings SettingsParams
	off := false
	settings.Settings.StixOutline.AutoRefresh = &off
	require.NoError(t, c.call(MethodDidChangeConfig, settings, nil))

	bad := "sideways"
	settings.Settings.StixOutline.RenameMode = &bad
	require.Error(t, c.call(MethodDidChangeConfig, settings, nil))
}

func TestErrors(t *testing.T) {
	c := newClient(t)
	var rpcErr *jsonrpc2.Error

	err := c.call("stixOutline/unknown", nil, nil)
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)

	err = c.call(MethodSetActiveDocument, DocumentParams{URI: "file:///missing.json"}, nil)
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)

	err = c.call(MethodExecuteCommand, protocol.ExecuteCommandParams{Command: "stixOutline.nope"}, nil)
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)

	require.NoError(t, c.call(MethodShutdown, nil, nil))
	err = c.call(MethodChildren, NodeParams{}, nil)
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, int64(jsonrpc2.CodeInvalidRequest), rpcErr.Code)
}
