package outline

import (
	"context"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
)

// Events is the part of a workspace the projector listens to.
type Events interface {
	OnDidChangeActiveEditor(fn func(host.Editor)) func()
	OnDidChangeTextDocument(fn func(host.ChangeEvent)) func()
}

// Bind wires p to editor and content events and, when store is non-nil, to
// configuration changes. The active document is loaded before Bind
// returns. The returned function removes every subscription.
func Bind(ctx context.Context, p *Projector, events Events, store *config.Store) (unbind func()) {
	var cancels []func()
	cancels = append(cancels,
		events.OnDidChangeActiveEditor(func(host.Editor) { p.OnActiveDocumentChanged(ctx) }),
		events.OnDidChangeTextDocument(p.OnDocumentEdited),
	)
	if store != nil {
		cancels = append(cancels, store.Subscribe(p.OnConfigChanged))
	}
	p.OnActiveDocumentChanged(ctx)
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
