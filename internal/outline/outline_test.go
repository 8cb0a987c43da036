package outline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/icons"
	"github.com/oakwood-commons/stixoutline/internal/jsonc"
	"github.com/oakwood-commons/stixoutline/internal/query"
)

const bundleURI = "file:///bundle.json"

type fixture struct {
	p       *Projector
	ws      *host.Workspace
	changes []Change
}

func newFixture(t *testing.T, text string, opts ...Option) *fixture {
	t.Helper()
	ws := host.NewWorkspace()
	ws.Open(bundleURI, "json", text)
	require.NoError(t, ws.Activate(bundleURI))
	p, err := New(ws, append([]Option{WithContextSetter(ws)}, opts...)...)
	require.NoError(t, err)
	f := &fixture{p: p, ws: ws}
	t.Cleanup(Bind(context.Background(), p, ws, nil))
	p.Subscribe(func(c Change) { f.changes = append(f.changes, c) })
	return f
}

func (f *fixture) text(t *testing.T) string {
	t.Helper()
	buf, ok := f.ws.Buffer(bundleURI)
	require.True(t, ok)
	return buf.Text()
}

// edit replaces length bytes at offset in the bundle buffer.
func (f *fixture) edit(t *testing.T, offset, length int, text string) {
	t.Helper()
	buf, ok := f.ws.Buffer(bundleURI)
	require.True(t, ok)
	r := host.Range{Start: buf.PositionAt(offset), End: buf.PositionAt(offset + length)}
	require.NoError(t, f.ws.Apply(bundleURI, []host.Change{{Range: r, Text: text}}))
}

// batchEdit replaces Length bytes at Offset, addressed in the text left by
// the edits before it in the same batch.
type batchEdit struct {
	Offset int
	Length int
	Text   string
}

// editBatch sends edits as one change event, applied in order.
func (f *fixture) editBatch(t *testing.T, edits ...batchEdit) {
	t.Helper()
	sim := host.NewBuffer(bundleURI, "json", f.text(t))
	changes := make([]host.Change, 0, len(edits))
	for _, e := range edits {
		c := host.Change{
			Range: host.Range{Start: sim.PositionAt(e.Offset), End: sim.PositionAt(e.Offset + e.Length)},
			Text:  e.Text,
		}
		_, err := sim.Apply(c)
		require.NoError(t, err)
		changes = append(changes, c)
	}
	require.NoError(t, f.ws.Apply(bundleURI, changes))
	require.Equal(t, sim.Text(), f.text(t))
}

func at(t *testing.T, text, needle string) Identity {
	t.Helper()
	i := strings.Index(text, needle)
	require.GreaterOrEqual(t, i, 0, "missing %q", needle)
	return Identity(i)
}

func TestChildrenAndLabels(t *testing.T) {
	f := newFixture(t, `{"a": 1, "b": [2,3]}`)
	p := f.p
	require.True(t, p.Enabled())

	require.Equal(t, []Identity{6, 14}, p.Children(Root))
	require.Equal(t, p.Children(Root), p.Children(Root))

	a, ok := p.Item(6)
	require.True(t, ok)
	require.Equal(t, "a: 1", a.Label)
	require.Equal(t, CollapsibleNone, a.Collapsible)
	require.Equal(t, "number", a.ContextValue)
	require.Empty(t, a.Highlights)

	b, ok := p.Item(14)
	require.True(t, ok)
	require.Equal(t, "[ 2 ] b", b.Label)
	require.Equal(t, Collapsed, b.Collapsible)
	require.Equal(t, ".b", b.Path.String())
	require.Equal(t, CmdOpenSelection, b.Command.Name)
	require.Equal(t, Span{Start: 14, End: 19}, b.Command.Span)
	require.Equal(t, host.Range{
		Start: host.Position{Line: 0, Character: 14},
		End:   host.Position{Line: 0, Character: 19},
	}, b.Command.Range)

	require.Equal(t, []Identity{15, 17}, p.Children(14))
	first, ok := p.Item(15)
	require.True(t, ok)
	require.Equal(t, "0: 2", first.Label)
	second, _ := p.Item(17)
	require.Equal(t, "1: 3", second.Label)

	root, ok := p.Item(Root)
	require.True(t, ok)
	require.Equal(t, "{ 2 }", root.Label)
	require.Equal(t, Expanded, root.Collapsible)

	// an offset inside a key addresses the property's value
	inKey, ok := p.Item(10)
	require.True(t, ok)
	require.Equal(t, Identity(14), inKey.ID)

	require.Empty(t, p.Children(6))
	_, ok = p.Item(500)
	require.False(t, ok)
	require.Empty(t, p.Children(500))
}

func TestLabelHighlights(t *testing.T) {
	text := `{"id": "bundle--1", "type": {"a": 1}, "ids": [], "spec_version": "2.1"}`
	f := newFixture(t, text)

	tests := []struct {
		name       string
		needle     string
		label      string
		highlights []Span
	}{
		{name: "scalar id", needle: `"bundle--1"`, label: `id: "bundle--1"`, highlights: []Span{{0, 2}}},
		{name: "container type", needle: `{"a"`, label: "{ 1 } type", highlights: []Span{{6, 10}}},
		{name: "empty array", needle: `[]`, label: "[  ] ids"},
		{name: "plain key", needle: `"2.1"`, label: `spec_version: "2.1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := f.p.Item(at(t, text, tt.needle))
			require.True(t, ok)
			require.Equal(t, tt.label, item.Label)
			require.Equal(t, tt.highlights, item.Highlights)
		})
	}
}

func TestCollapsibleState(t *testing.T) {
	text := `[{"a": 1}, [1], [1, 2], [], "s", null]`
	f := newFixture(t, text)
	ids := f.p.Children(Root)
	require.Len(t, ids, 6)

	want := []struct {
		label string
		state Collapsible
	}{
		{"0: { 1 }", Expanded},
		{"1: [ 1 ]", Expanded},
		{"2: [ 2 ]", Collapsed},
		{"3: [  ]", Collapsed},
		{`4: "s"`, CollapsibleNone},
		{"5: null", CollapsibleNone},
	}
	for i, id := range ids {
		item, ok := f.p.Item(id)
		require.True(t, ok)
		require.Equal(t, want[i].label, item.Label)
		require.Equal(t, want[i].state, item.Collapsible, item.Label)
	}
	require.Equal(t, "expanded", Expanded.String())
}

func TestIcons(t *testing.T) {
	const (
		light = "resources/stix/malware" + icons.Suffix
		dark  = "resources/stix/dark/malware" + icons.Suffix
		x     = "resources/stix/x" + icons.Suffix
	)
	tests := []struct {
		name  string
		files fstest.MapFS
		want  icons.Icon
	}{
		{
			name:  "light and dark",
			files: fstest.MapFS{light: {}, dark: {}},
			want:  icons.Icon{Name: "malware", Light: light, Dark: dark},
		},
		{
			name:  "dark variant only",
			files: fstest.MapFS{dark: {}},
			want:  icons.Icon{Name: "malware", Light: dark, Dark: dark},
		},
		{
			name:  "no asset",
			files: fstest.MapFS{},
			want:  icons.Icon{Name: "x", Light: x, Dark: x},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := icons.New(tt.files, icons.DefaultOptions())
			require.NoError(t, err)
			f := newFixture(t, `{"type": "malware", "n": 1, "s": "v", "ok": true, "o": {"type": 5}}`, WithIcons(r))
			root, ok := f.p.Item(Root)
			require.True(t, ok)
			require.Equal(t, tt.want, root.Icon)

			ids := f.p.Children(Root)
			require.Len(t, ids, 5)
			typeItem, _ := f.p.Item(ids[0])
			require.Equal(t, "string", typeItem.Icon.Name)
			n, _ := f.p.Item(ids[1])
			require.Equal(t, "resources/light/number.svg", n.Icon.Light)
			require.Equal(t, "resources/dark/number.svg", n.Icon.Dark)
			b, _ := f.p.Item(ids[3])
			require.Equal(t, "boolean", b.Icon.Name)
			o, _ := f.p.Item(ids[4])
			require.True(t, o.Icon.IsZero(), "non-string type has no icon")
		})
	}
}

func TestRenameTo(t *testing.T) {
	valueMode, err := config.Default()
	require.NoError(t, err)
	valueMode.Rename.Mode = config.RenameValue

	tests := []struct {
		name   string
		text   string
		needle string
		opts   []Option
		value  string
		want   string
	}{
		{name: "property value renames key", text: `{"name": "old"}`, needle: `"old"`, value: "new", want: `{"new": "old"}`},
		{name: "value mode replaces value", text: `{"name": "old"}`, needle: `"old"`, value: "new", want: `{"name": "new"}`, opts: []Option{WithConfig(valueMode)}},
		{name: "array element", text: `[1,2,3]`, needle: `1`, value: "x", want: `["x",2,3]`},
		{name: "root value", text: `"abc"`, needle: `"abc"`, value: "x", want: `"x"`},
		{name: "offset inside key", text: `{"name": {"a": 1}}`, needle: `ame`, value: "n", want: `{"n": {"a": 1}}`},
		{name: "no escaping", text: `{"k": 1}`, needle: `1`, value: `a"b`, want: `{"a"b": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.text, tt.opts...)
			require.NoError(t, f.p.RenameTo(context.Background(), at(t, tt.text, tt.needle), tt.value))
			require.Equal(t, tt.want, f.text(t))
			require.Equal(t, tt.want, f.p.Tracker().Text(), "tree re-read after commit")
			require.NotEmpty(t, f.changes)
		})
	}
}

func TestRenameUnresolved(t *testing.T) {
	f := newFixture(t, `[1,2,3]`)
	require.NoError(t, f.p.RenameTo(context.Background(), 500, "x"))
	require.NoError(t, f.p.RenameTo(context.Background(), Root, "x"))
	require.Equal(t, `[1,2,3]`, f.text(t))
	require.Empty(t, f.changes)

	_, ok := f.p.RenameEdit(500, "x")
	require.False(t, ok)
}

func TestRenamePrompt(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelled", func(t *testing.T) {
		prompt := host.PromptFunc(func(context.Context, string) (string, bool, error) { return "", false, nil })
		f := newFixture(t, `{"name": "old"}`, WithPrompter(prompt))
		require.NoError(t, f.p.Rename(ctx, 9))
		require.Equal(t, `{"name": "old"}`, f.text(t))
		require.Empty(t, f.changes)
	})

	t.Run("accepted", func(t *testing.T) {
		var placeholder string
		prompt := host.PromptFunc(func(_ context.Context, ph string) (string, bool, error) {
			placeholder = ph
			return "label", true, nil
		})
		f := newFixture(t, `{"name": "old"}`, WithPrompter(prompt))
		require.NoError(t, f.p.Rename(ctx, 9))
		require.Equal(t, "Enter the new label", placeholder)
		require.Equal(t, `{"label": "old"}`, f.text(t))
	})

	t.Run("prompt error", func(t *testing.T) {
		boom := errors.New("boom")
		prompt := host.PromptFunc(func(context.Context, string) (string, bool, error) { return "", false, boom })
		f := newFixture(t, `{"name": "old"}`, WithPrompter(prompt))
		require.ErrorIs(t, f.p.Rename(ctx, 9), boom)
	})

	t.Run("no prompter", func(t *testing.T) {
		f := newFixture(t, `{"name": "old"}`)
		require.ErrorIs(t, f.p.Rename(ctx, 9), ErrNoPrompter)
	})
}

func TestEditNotifiesNearestAncestor(t *testing.T) {
	text := `{"objects": [{"id": "a"}, {"id": "b"}]}`
	f := newFixture(t, text)
	f.changes = nil

	f.edit(t, strings.Index(text, `"b"`), 3, `"c"`)
	require.Len(t, f.changes, 1)
	c := f.changes[0]
	require.Equal(t, SubtreeChanged, c.Kind)
	require.Equal(t, at(t, text, `{"id": "b"}`), c.ID)
	require.Equal(t, ".objects[1]", c.Path.String())
	require.Equal(t, `{"objects": [{"id": "a"}, {"id": "c"}]}`, f.p.Tracker().Text())

	item, ok := f.p.Item(c.ID)
	require.True(t, ok)
	require.Equal(t, "1: { 1 }", item.Label)
}

func TestEditBatchScopesEachChange(t *testing.T) {
	ones := strings.Repeat("1", 20)
	text := `{"a": [` + ones + `, 2], "b": {"c": 3, "d": 4}, "z": {"y": 0}}`
	shrunk := strings.Replace(text, ones, "1", 1)

	paths := func(changes []Change) []string {
		out := make([]string, 0, len(changes))
		for _, c := range changes {
			out = append(out, c.Kind.String()+":"+c.Path.String())
		}
		return out
	}

	tests := []struct {
		name  string
		edits func() []batchEdit
		want  []string
	}{
		{
			name: "ascending",
			edits: func() []batchEdit {
				return []batchEdit{
					{Offset: strings.Index(text, ones), Length: len(ones), Text: "1"},
					{Offset: strings.Index(shrunk, "0}}"), Length: 1, Text: "7"},
				}
			},
			want: []string{SubtreeChanged.String() + ":.a", SubtreeChanged.String() + ":.z"},
		},
		{
			name: "descending",
			edits: func() []batchEdit {
				return []batchEdit{
					{Offset: strings.Index(text, "0}}"), Length: 1, Text: "7"},
					{Offset: strings.Index(text, ones), Length: len(ones), Text: "1"},
				}
			},
			want: []string{SubtreeChanged.String() + ":.z", SubtreeChanged.String() + ":.a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, text)
			f.changes = nil
			f.editBatch(t, tt.edits()...)
			require.Equal(t, tt.want, paths(f.changes))
			require.Equal(t, `{"a": [1, 2], "b": {"c": 3, "d": 4}, "z": {"y": 7}}`, f.p.Tracker().Text())

			ids := map[string]Identity{}
			for _, c := range f.changes {
				ids[c.Path.String()] = c.ID
			}
			require.Equal(t, at(t, text, "["), ids[".a"])
			require.Equal(t, at(t, text, `{"y"`), ids[".z"])
		})
	}
}

func TestEditBatchInsideInsertedTextRefreshesAll(t *testing.T) {
	text := `{"a": [1, 2], "z": {"y": 0}}`
	f := newFixture(t, text)
	f.changes = nil

	end := strings.Index(text, "]")
	f.editBatch(t,
		batchEdit{Offset: end, Text: ", 55"},
		batchEdit{Offset: end + 3, Length: 1, Text: "6"},
	)
	require.Contains(t, f.changes, Change{Kind: FullRefresh, ID: Root})
	require.Equal(t, `{"a": [1, 2, 56], "z": {"y": 0}}`, f.p.Tracker().Text())
}

func TestPreEditOffset(t *testing.T) {
	earlier := []host.Change{
		{RangeOffset: 10, RangeLength: 5, Text: "ab"},
		{RangeOffset: 2, RangeLength: 0, Text: "xyz"},
	}
	tests := []struct {
		offset int
		want   int
		ok     bool
	}{
		{offset: 0, want: 0, ok: true},
		{offset: 2, want: 2, ok: true},
		{offset: 3, ok: false},
		{offset: 5, want: 2, ok: true},
		{offset: 13, want: 10, ok: true},
		{offset: 14, ok: false},
		{offset: 15, want: 15, ok: true},
		{offset: 20, want: 20, ok: true},
	}
	for _, tt := range tests {
		got, ok := preEditOffset(tt.offset, earlier)
		require.Equal(t, tt.ok, ok, "offset %d", tt.offset)
		if tt.ok {
			require.Equal(t, tt.want, got, "offset %d", tt.offset)
		}
	}
}

func TestChildrenAlwaysResolve(t *testing.T) {
	tests := []struct {
		name string
		text string
		root []int
	}{
		{name: "empty array slot", text: `[1,,2]`, root: []int{1}},
		{name: "duplicate keys", text: `{"a":1,"a":2}`, root: []int{5}},
		{name: "missing value", text: `{"a": [1, {"b": }, 3], "c": 4}`},
		{name: "double comma in object", text: `{"a": 1,, "b": 2}`},
		{name: "unterminated", text: `{"objects": [{"type": "indicator"}, {"type": `},
		{name: "stray tokens", text: `[{"x": 1}, , {"y"}, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.text)
			if tt.root != nil {
				want := make([]Identity, 0, len(tt.root))
				for _, id := range tt.root {
					want = append(want, Identity(id))
				}
				require.Equal(t, want, f.p.Children(Root))
			}
			var walk func(id Identity)
			walk = func(id Identity) {
				for _, c := range f.p.Children(id) {
					item, ok := f.p.Item(c)
					require.True(t, ok, "child %d of %d does not resolve", c, id)
					require.Equal(t, c, item.ID)
					walk(c)
				}
			}
			walk(Root)
		})
	}
}

func TestEditAtTopLevelRefreshesAll(t *testing.T) {
	f := newFixture(t, `{"a": 1}`)
	f.changes = nil
	f.edit(t, 6, 1, "2")
	require.Equal(t, []Change{{Kind: FullRefresh, ID: Root}}, f.changes)
}

func TestEditOfOtherDocumentIgnored(t *testing.T) {
	f := newFixture(t, `{"a": 1}`)
	f.ws.Open("file:///other.json", "json", `[]`)
	f.changes = nil
	require.NoError(t, f.ws.Replace("file:///other.json", `[1]`))
	require.Empty(t, f.changes)
}

func TestAutoRefreshOff(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Outline.AutoRefresh = false
	f := newFixture(t, `{"a": 1}`, WithConfig(cfg))
	require.False(t, f.p.AutoRefresh())
	f.changes = nil

	f.edit(t, 6, 1, "2")
	require.Empty(t, f.changes)
	require.Equal(t, `{"a": 1}`, f.p.Tracker().Text())

	require.NoError(t, Commands{Projector: f.p}.Execute(context.Background(), CmdRefresh, nil))
	require.Equal(t, []Change{{Kind: FullRefresh, ID: Root}}, f.changes)
	require.Equal(t, `{"a": 2}`, f.p.Tracker().Text())
}

func TestSwitchToNonJSONDisables(t *testing.T) {
	f := newFixture(t, `{"a": 1}`)
	enabled, ok := f.ws.Context("jsonOutlineEnabled")
	require.True(t, ok)
	require.Equal(t, true, enabled)

	f.ws.Open("file:///notes.txt", "plaintext", "hello")
	require.NoError(t, f.ws.Activate("file:///notes.txt"))
	require.False(t, f.p.Enabled())
	require.Empty(t, f.p.Children(Root))
	_, ok = f.p.Item(Root)
	require.False(t, ok)
	enabled, _ = f.ws.Context("jsonOutlineEnabled")
	require.Equal(t, false, enabled)
	require.Equal(t, DocumentReplaced, f.changes[len(f.changes)-1].Kind)

	f.ws.Open("untitled:Untitled-1", "json", "{}")
	require.NoError(t, f.ws.Activate("untitled:Untitled-1"))
	require.False(t, f.p.Enabled())

	require.NoError(t, f.ws.Activate(""))
	require.False(t, f.p.Enabled())
	require.Nil(t, f.p.Tracker().Tree())

	require.NoError(t, f.ws.Activate(bundleURI))
	require.True(t, f.p.Enabled())
	require.Len(t, f.p.Children(Root), 1)
}

func TestIdentityRoundTrip(t *testing.T) {
	texts := []string{
		`{"a": 1, "b": [2,3]}`,
		`{"type": "bundle", "objects": [{"type": "indicator", "labels": ["x", "y"]}, {"nested": {"deep": [null, true]}}]}`,
		`[[], {}, [[1]], {"": 0}]`,
	}
	for _, text := range texts {
		f := newFixture(t, text)
		var walk func(id Identity)
		walk = func(id Identity) {
			for _, child := range f.p.Children(id) {
				item, ok := f.p.Item(child)
				require.True(t, ok, text)
				require.Equal(t, child, item.ID, "%s: %s", text, item.Label)
				walk(child)
			}
		}
		walk(Root)

		jsonc.Walk(f.p.Tracker().Tree(), func(n *jsonc.Node) bool {
			if n.Type == jsonc.PropertyNode || n.KeyNode() == n {
				return true
			}
			item, ok := f.p.Item(Identity(n.Offset))
			require.True(t, ok)
			require.Equal(t, Identity(n.Offset), item.ID)
			return true
		})
	}
}

func TestFind(t *testing.T) {
	text := `{"type": "bundle", "objects": [{"type": "indicator", "name": "a"}, {"type": "malware"}, {"type": "indicator", "name": "b"}]}`
	f := newFixture(t, text)

	ids, err := f.p.Find(`_.type == "indicator"`)
	require.NoError(t, err)
	require.Equal(t, []Identity{
		at(t, text, `{"type": "indicator", "name": "a"}`),
		at(t, text, `{"type": "indicator", "name": "b"}`),
	}, ids)

	ids, err = f.p.Find(`_.name.startsWith("b")`)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	_, err = f.p.Find(`_.type ==`)
	require.ErrorIs(t, err, query.ErrCompile)
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	var revealed []host.Reveal
	prompt := host.PromptFunc(func(context.Context, string) (string, bool, error) { return "k", true, nil })
	f := newFixture(t, `{"a": [1, 2]}`, WithPrompter(prompt))
	f.ws.OnDidReveal(func(r host.Reveal) { revealed = append(revealed, r) })
	cmds := Commands{Projector: f.p}

	rangeArg := map[string]any{
		"start": map[string]any{"line": float64(0), "character": float64(6)},
		"end":   map[string]any{"line": float64(0), "character": float64(12)},
	}
	require.NoError(t, cmds.Execute(ctx, CmdOpenSelection, []any{rangeArg}))
	require.NoError(t, cmds.Execute(ctx, CmdOpenSelection, []any{float64(7), float64(8)}))
	require.Len(t, revealed, 2)
	require.Equal(t, host.Position{Character: 6}, revealed[0].Range.Start)
	require.Equal(t, host.Position{Character: 8}, revealed[1].Range.End)

	f.changes = nil
	require.NoError(t, cmds.Execute(ctx, CmdRefreshNode, []any{float64(6)}))
	require.Equal(t, SubtreeChanged, f.changes[0].Kind)
	require.Equal(t, Identity(6), f.changes[0].ID)

	require.NoError(t, cmds.Execute(ctx, CmdRenameNode, []any{"6"}))
	require.Equal(t, `{"k": [1, 2]}`, f.text(t))

	require.ErrorIs(t, cmds.Execute(ctx, "stixOutline.nope", nil), ErrUnknownCommand)
	require.Error(t, cmds.Execute(ctx, CmdRefreshNode, nil))
	require.Error(t, cmds.Execute(ctx, CmdOpenSelection, []any{true}))
	require.Len(t, CommandNames(), 4)
}

func TestIdentityArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []any
		want    Identity
		wantErr bool
	}{
		{name: "float", args: []any{float64(12)}, want: 12},
		{name: "int", args: []any{3}, want: 3},
		{name: "string", args: []any{"-1"}, want: Root},
		{name: "fraction", args: []any{1.5}, wantErr: true},
		{name: "empty", wantErr: true},
		{name: "bool", args: []any{true}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IdentityArg(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBindFollowsConfig(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	store := config.NewStore(cfg)

	ws := host.NewWorkspace()
	ws.Open(bundleURI, "json", `{"a": 1}`)
	require.NoError(t, ws.Activate(bundleURI))
	p, err := New(ws, WithConfig(cfg))
	require.NoError(t, err)
	unbind := Bind(context.Background(), p, ws, store)
	require.True(t, p.Enabled())

	require.NoError(t, store.Update(func(c *config.Config) { c.Outline.Languages = []string{"jsonc"} }))
	require.False(t, p.Enabled())
	require.NoError(t, store.Update(func(c *config.Config) { c.Outline.AutoRefresh = false }))
	require.False(t, p.AutoRefresh())

	unbind()
	require.NoError(t, store.Update(func(c *config.Config) { c.Outline.Languages = []string{"json"} }))
	require.False(t, p.Enabled(), "no updates after unbind")
}

func TestSTIXType(t *testing.T) {
	text := `{"type": "bundle", "objects": [{"type": "malware"}, {"type": 7}, [1]]}`
	f := newFixture(t, text)

	tag, ok := f.p.STIXType(Root)
	require.True(t, ok)
	require.Equal(t, "bundle", tag)

	tag, ok = f.p.STIXType(at(t, text, `{"type": "malware"}`))
	require.True(t, ok)
	require.Equal(t, "malware", tag)

	_, ok = f.p.STIXType(at(t, text, `{"type": 7}`))
	require.False(t, ok, "type must be a string")
	_, ok = f.p.STIXType(at(t, text, `[1]`))
	require.False(t, ok)
	_, ok = f.p.STIXType(Identity(999))
	require.False(t, ok)
}
