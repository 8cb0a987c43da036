package outline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/oakwood-commons/stixoutline/internal/host"
)

// Command names understood by Commands.Execute.
const (
	CmdRefresh       = "stixOutline.refresh"
	CmdRefreshNode   = "stixOutline.refreshNode"
	CmdRenameNode    = "stixOutline.renameNode"
	CmdOpenSelection = "stixOutline.openSelection"
)

// ErrUnknownCommand is returned for names outside CommandNames.
var ErrUnknownCommand = errors.New("unknown command")

// CommandNames lists the commands in registration order.
func CommandNames() []string {
	return []string{CmdRefresh, CmdRefreshNode, CmdRenameNode, CmdOpenSelection}
}

// Commands dispatches named commands with loosely typed arguments, as they
// arrive from a host bridge.
type Commands struct {
	Projector *Projector
}

// Execute runs the command name. Node commands take an identity as their
// first argument; openSelection takes a range or a [start, end) span.
func (c Commands) Execute(ctx context.Context, name string, args []any) error {
	p := c.Projector
	switch name {
	case CmdRefresh:
		p.Refresh()
		return nil
	case CmdRefreshNode:
		id, err := IdentityArg(args)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		p.RefreshNode(id)
		return nil
	case CmdRenameNode:
		id, err := IdentityArg(args)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return p.Rename(ctx, id)
	case CmdOpenSelection:
		r, err := c.rangeArg(args)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return p.Select(ctx, r)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

// IdentityArg reads an identity from the first argument. JSON numbers,
// numeric strings and Go integers are accepted.
func IdentityArg(args []any) (Identity, error) {
	if len(args) == 0 {
		return 0, errors.New("missing node identity")
	}
	n, err := intArg(args[0])
	if err != nil {
		return 0, fmt.Errorf("node identity: %w", err)
	}
	return Identity(n), nil
}

func intArg(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case Identity:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(v)
	}
	return 0, fmt.Errorf("unsupported argument %T", v)
}

// rangeArg accepts a host.Range, a JSON range object, a Span, or two
// offsets in the tracked snapshot.
func (c Commands) rangeArg(args []any) (host.Range, error) {
	p := c.Projector
	switch len(args) {
	case 1:
		switch v := args[0].(type) {
		case host.Range:
			return v, nil
		case Span:
			return p.spanRange(v), nil
		case map[string]any:
			data, err := json.Marshal(v)
			if err != nil {
				return host.Range{}, err
			}
			var r host.Range
			if err := json.Unmarshal(data, &r); err != nil {
				return host.Range{}, fmt.Errorf("range: %w", err)
			}
			return r, nil
		}
		return host.Range{}, fmt.Errorf("unsupported range %T", args[0])
	case 2:
		start, err := intArg(args[0])
		if err != nil {
			return host.Range{}, err
		}
		end, err := intArg(args[1])
		if err != nil {
			return host.Range{}, err
		}
		return p.spanRange(Span{Start: start, End: end}), nil
	}
	return host.Range{}, errors.New("expected a range or a start and end offset")
}

func (p *Projector) spanRange(s Span) host.Range {
	return host.Range{Start: p.tracker.PositionAt(s.Start), End: p.tracker.PositionAt(s.End)}
}
