package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	jsonrpc2ws "github.com/sourcegraph/jsonrpc2/websocket"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/oakwood-commons/stixoutline/internal/config"
)

func TestWebsocket(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	ts := httptest.NewServer(New(cfg))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)

	conn := jsonrpc2.NewConn(ctx, jsonrpc2ws.NewObjectStream(ws), jsonrpc2.HandlerWithError(
		func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (any, error) { return nil, nil }))
	defer conn.Close()

	var res protocol.InitializeResult
	require.NoError(t, conn.Call(ctx, MethodInitialize, protocol.InitializeParams{}, &res))
	require.Equal(t, "stixoutline", res.ServerInfo.Name)

	require.NoError(t, conn.Notify(ctx, MethodDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: "json", Version: 1, Text: `[1, 2]`},
	}))
	var ids []int
	require.NoError(t, conn.Call(ctx, MethodChildren, NodeParams{}, &ids))
	require.Equal(t, []int{1, 4}, ids)
}
