package server

import (
	"context"
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/oakwood-commons/stixoutline/internal/host"
)

// window hands the projector editors whose edits and selections go to the
// client rather than straight into the workspace buffer.
type window struct {
	s *session
}

func (w window) ActiveEditor() host.Editor {
	ed := w.s.ws.ActiveEditor()
	if ed == nil {
		return nil
	}
	return &remoteEditor{s: w.s, doc: ed.Document()}
}

type remoteEditor struct {
	s   *session
	doc host.Document
}

func (e *remoteEditor) Document() host.Document { return e.doc }

// ApplyEdits asks the client to apply edits and returns once it has
// answered. Clients send the resulting didChange before the answer.
func (e *remoteEditor) ApplyEdits(ctx context.Context, edits []host.TextEdit) error {
	uri := protocol.DocumentURI(e.doc.URI())
	changes := make([]protocol.TextEdit, 0, len(edits))
	for _, edit := range edits {
		changes = append(changes, protocol.TextEdit{Range: toProtocolRange(edit.Range), NewText: edit.NewText})
	}
	params := protocol.ApplyWorkspaceEditParams{
		Label: "Rename outline node",
		Edit:  protocol.WorkspaceEdit{Changes: map[protocol.DocumentURI][]protocol.TextEdit{uri: changes}},
	}
	var res protocol.ApplyWorkspaceEditResponse
	if err := e.s.conn.Call(ctx, MethodApplyEdit, params, &res); err != nil {
		return fmt.Errorf("apply edit: %w", err)
	}
	if !res.Applied {
		return fmt.Errorf("client rejected edit: %s", res.FailureReason)
	}
	return nil
}

func (e *remoteEditor) Reveal(_ context.Context, r host.Range) error {
	e.s.notify(MethodReveal, RevealParams{URI: protocol.DocumentURI(e.doc.URI()), Range: toProtocolRange(r)})
	return nil
}
