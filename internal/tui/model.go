// Package tui is a terminal viewer for the outline of one JSON file.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/icons"
	"github.com/oakwood-commons/stixoutline/internal/outline"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Options configures the viewer.
type Options struct {
	Path    string
	Config  config.Config
	Icons   *icons.Resolver
	Logger  logr.Logger
	NoColor bool
	Theme   *Theme
	// Width and Height force a window size; 0 waits for the terminal.
	Width  int
	Height int
}

type mode int

const (
	modeBrowse mode = iota
	modeRename
	modeFind
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusError
	statusSuccess
)

type row struct {
	item     outline.Item
	depth    int
	parent   bool
	expanded bool
}

func (r row) key() string { return r.item.Path.String() }

type pollMsg struct{}

type stamp struct {
	mod  time.Time
	size int64
}

// Model is the bubbletea model. Expansion is remembered by structural
// path, so it survives edits that move nodes around.
type Model struct {
	ctx    context.Context
	ws     *host.Workspace
	proj   *outline.Projector
	cfg    config.Config
	uri    string
	path   string
	log    logr.Logger
	st     styles
	poll   time.Duration
	file   stamp
	unbind func()

	expanded map[string]bool
	rows     []row
	cursor   int
	offset   int
	width    int
	height   int

	mode     mode
	input    textinput.Model
	renameID outline.Identity
	matches  []outline.Identity
	match    int

	preview    string
	status     string
	statusKind statusKind
	dirty      bool
	stale      bool
	quitting   bool
}

// New opens the file at opts.Path and builds the initial outline.
func New(ctx context.Context, opts Options) (*Model, error) {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	ws := host.NewWorkspace()
	uri, err := host.OpenFile(ws, opts.Path)
	if err != nil {
		return nil, err
	}
	popts := []outline.Option{
		outline.WithConfig(opts.Config),
		outline.WithLogger(log.WithName("outline")),
		outline.WithContextSetter(ws),
	}
	if opts.Icons != nil {
		popts = append(popts, outline.WithIcons(opts.Icons))
	}
	proj, err := outline.New(ws, popts...)
	if err != nil {
		return nil, err
	}
	th := DefaultTheme()
	if opts.Theme != nil {
		th = *opts.Theme
	}

	ti := textinput.New()
	ti.CharLimit = 500
	ti.SetWidth(defaultWidth - 4)
	ti.Prompt = ""

	m := &Model{
		ctx:      ctx,
		ws:       ws,
		proj:     proj,
		cfg:      opts.Config,
		uri:      uri,
		path:     opts.Path,
		log:      log,
		st:       newStyles(th, opts.NoColor),
		poll:     opts.Config.TUI.PollInterval,
		expanded: map[string]bool{},
		width:    opts.Width,
		height:   opts.Height,
		input:    ti,
	}
	m.unbind = outline.Bind(ctx, proj, ws, nil)
	proj.Subscribe(func(outline.Change) { m.stale = true })
	ws.OnDidReveal(m.onReveal)
	if fi, err := os.Stat(opts.Path); err == nil {
		m.file = stamp{mod: fi.ModTime(), size: fi.Size()}
	}
	m.rebuild()
	return m, nil
}

// Close releases the projector's subscriptions.
func (m *Model) Close() {
	if m.unbind != nil {
		m.unbind()
		m.unbind = nil
	}
}

// Run starts the viewer and blocks until the user quits.
func Run(ctx context.Context, opts Options, progOpts ...tea.ProgramOption) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	defer m.Close()
	progOpts = append(progOpts, tea.WithContext(ctx))
	if opts.Width > 0 && opts.Height > 0 {
		progOpts = append(progOpts, tea.WithWindowSize(opts.Width, opts.Height))
	}
	_, err = tea.NewProgram(m, progOpts...).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	if m.poll <= 0 {
		return nil
	}
	return tea.Tick(m.poll, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(10, msg.Width-4))
	case pollMsg:
		m.reloadIfChanged()
		cmd = m.tick()
	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.mode != modeBrowse {
			cmd = m.updateInput(msg)
		} else {
			cmd = m.updateBrowse(msg)
		}
	default:
		if m.mode != modeBrowse {
			m.input, cmd = m.input.Update(msg)
		}
	}
	if m.stale {
		m.rebuild()
	}
	m.scroll()
	return m, cmd
}

func (m *Model) updateBrowse(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.move(-m.bodyHeight())
	case "pgdown":
		m.move(m.bodyHeight())
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, len(m.rows)-1)
	case "right", "l":
		m.expandOrDescend()
	case "left", "h":
		m.collapseOrAscend()
	case "space", "tab":
		if r, ok := m.current(); ok && r.parent {
			m.setExpanded(r, !r.expanded)
		}
	case "enter":
		m.reveal()
	case "r":
		return m.startRename()
	case "R":
		m.proj.Refresh()
		m.setStatus(statusInfo, "refreshed")
	case "s":
		m.save()
	case "/":
		return m.startInput(modeFind, `CEL query, e.g. _.type == "indicator"`, "")
	case "n":
		m.nextMatch()
	}
	return nil
}

func (m *Model) updateInput(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		if m.mode == modeRename {
			m.setStatus(statusInfo, "rename cancelled")
		}
		m.endInput()
		return nil
	case "enter":
		value := m.input.Value()
		md := m.mode
		m.endInput()
		if md == modeRename {
			m.rename(value)
		} else {
			m.find(value)
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) startInput(md mode, placeholder, value string) tea.Cmd {
	m.mode = md
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) endInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) startRename() tea.Cmd {
	r, ok := m.current()
	if !ok {
		return nil
	}
	m.renameID = r.item.ID
	return m.startInput(modeRename, m.cfg.Rename.Placeholder, "")
}

func (m *Model) rename(value string) {
	if err := m.proj.RenameTo(m.ctx, m.renameID, value); err != nil {
		m.setStatus(statusError, err.Error())
		return
	}
	m.dirty = true
	m.setStatus(statusSuccess, "renamed; press s to save")
}

func (m *Model) find(expr string) {
	ids, err := m.proj.Find(expr)
	if err != nil {
		m.setStatus(statusError, err.Error())
		return
	}
	m.matches, m.match = ids, -1
	if len(ids) == 0 {
		m.setStatus(statusInfo, "no matches")
		return
	}
	m.nextMatch()
}

func (m *Model) nextMatch() {
	if len(m.matches) == 0 {
		return
	}
	m.match = (m.match + 1) % len(m.matches)
	item, ok := m.proj.Item(m.matches[m.match])
	if !ok {
		m.setStatus(statusError, "match no longer resolves")
		return
	}
	for i := range item.Path {
		m.expanded[item.Path[:i].String()] = true
	}
	m.rebuild()
	for i, r := range m.rows {
		if r.item.ID == item.ID {
			m.cursor = i
			break
		}
	}
	m.setStatus(statusInfo, fmt.Sprintf("match %d of %d", m.match+1, len(m.matches)))
}

func (m *Model) reveal() {
	r, ok := m.current()
	if !ok {
		return
	}
	if err := m.proj.Select(m.ctx, r.item.Command.Range); err != nil {
		m.setStatus(statusError, err.Error())
	}
}

func (m *Model) onReveal(rv host.Reveal) {
	buf, ok := m.ws.Buffer(rv.URI)
	if !ok {
		return
	}
	text := buf.Slice(buf.OffsetAt(rv.Range.Start), buf.OffsetAt(rv.Range.End))
	m.preview = rv.Range.String() + "  " + strings.Join(strings.Fields(text), " ")
}

func (m *Model) save() {
	if err := host.SaveFile(m.ws, m.uri, m.path); err != nil {
		m.setStatus(statusError, err.Error())
		return
	}
	if fi, err := os.Stat(m.path); err == nil {
		m.file = stamp{mod: fi.ModTime(), size: fi.Size()}
	}
	m.dirty = false
	m.setStatus(statusSuccess, "saved "+filepath.Base(m.path))
}

// reloadIfChanged feeds a changed file on disk through the workspace, so
// the projector sees it as an edit.
func (m *Model) reloadIfChanged() {
	fi, err := os.Stat(m.path)
	if err != nil {
		m.setStatus(statusError, err.Error())
		return
	}
	now := stamp{mod: fi.ModTime(), size: fi.Size()}
	if now == m.file {
		return
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		m.setStatus(statusError, err.Error())
		return
	}
	m.file = now
	if err := m.ws.Replace(m.uri, string(data)); err != nil {
		m.setStatus(statusError, err.Error())
		return
	}
	m.log.V(1).Info("reloaded file", "path", m.path, "bytes", len(data))
	switch {
	case m.dirty:
		m.dirty = false
		m.setStatus(statusError, "file changed on disk; unsaved rename discarded")
	case !m.proj.AutoRefresh():
		m.setStatus(statusInfo, "file changed on disk; press R to refresh")
	default:
		m.setStatus(statusInfo, "reloaded")
	}
}

func (m *Model) rebuild() {
	m.stale = false
	prev := ""
	if r, ok := m.current(); ok {
		prev = r.key()
	}
	var rows []row
	var walk func(id outline.Identity, depth int)
	walk = func(id outline.Identity, depth int) {
		for _, c := range m.proj.Children(id) {
			item, ok := m.proj.Item(c)
			if !ok {
				continue
			}
			r := row{item: item, depth: depth}
			r.parent = item.Collapsible != outline.CollapsibleNone && len(m.proj.Children(c)) > 0
			open, set := m.expanded[r.key()]
			if !set {
				open = item.Collapsible == outline.Expanded
			}
			r.expanded = r.parent && open
			rows = append(rows, r)
			if r.expanded {
				walk(c, depth+1)
			}
		}
	}
	walk(outline.Root, 0)
	m.rows = rows
	for i, r := range rows {
		if r.key() == prev {
			m.cursor = i
			return
		}
	}
	m.cursor = min(m.cursor, max(0, len(rows)-1))
}

func (m *Model) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) move(delta int) {
	m.cursor = max(0, min(len(m.rows)-1, m.cursor+delta))
}

func (m *Model) setExpanded(r row, open bool) {
	m.expanded[r.key()] = open
	m.rebuild()
}

func (m *Model) expandOrDescend() {
	r, ok := m.current()
	if !ok || !r.parent {
		return
	}
	if !r.expanded {
		m.setExpanded(r, true)
		return
	}
	m.move(1)
}

func (m *Model) collapseOrAscend() {
	r, ok := m.current()
	if !ok {
		return
	}
	if r.expanded {
		m.setExpanded(r, false)
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < r.depth {
			m.cursor = i
			return
		}
	}
}

func (m *Model) setStatus(kind statusKind, msg string) {
	m.statusKind, m.status = kind, msg
}

func (m *Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// bodyHeight is the number of outline rows that fit between the header
// and the footer lines.
func (m *Model) bodyHeight() int {
	_, h := m.size()
	reserved := 3
	if m.mode != modeBrowse {
		reserved++
	}
	return max(1, h-reserved)
}

func (m *Model) scroll() {
	body := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+body {
		m.offset = m.cursor - body + 1
	}
	m.offset = max(0, min(m.offset, max(0, len(m.rows)-body)))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
