package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/stixoutline/internal/outline"
)

const helpLine = "↑↓ move  ←→ fold  enter select  r rename  / find  n next  s save  R refresh  q quit"

func (m *Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	w, _ := m.size()
	var b strings.Builder

	b.WriteString(m.st.header.Render(padRight(truncate(m.headerText(), w), w)))
	b.WriteByte('\n')

	body := m.bodyHeight()
	end := min(len(m.rows), m.offset+body)
	lines := 0
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.rows[i], i == m.cursor, w))
		b.WriteByte('\n')
		lines++
	}
	if len(m.rows) == 0 {
		b.WriteString(m.st.muted.Render(truncate(m.emptyText(), w)))
		b.WriteByte('\n')
		lines++
	}
	for ; lines < body; lines++ {
		b.WriteByte('\n')
	}

	if m.mode != modeBrowse {
		label := "rename: "
		if m.mode == modeFind {
			label = "find: "
		}
		b.WriteString(m.st.key.Render(label) + m.input.View())
		b.WriteByte('\n')
	}
	b.WriteString(m.st.muted.Render(truncate(m.preview, w)))
	b.WriteByte('\n')
	b.WriteString(m.statusText(w))

	v := tea.NewView(b.String())
	v.AltScreen = true
	return v
}

func (m *Model) headerText() string {
	parts := []string{filepath.Base(m.path)}
	if m.dirty {
		parts[0] += " [modified]"
	}
	if !m.proj.Enabled() {
		parts = append(parts, "outline disabled")
	} else if root, ok := m.proj.Item(outline.Root); ok {
		parts = append(parts, root.Label)
	}
	if n := len(m.proj.Tracker().ParseErrors()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d parse errors", n))
	}
	return " " + strings.Join(parts, "  ")
}

func (m *Model) emptyText() string {
	if !m.proj.Enabled() {
		return "no outline for this document"
	}
	return "empty document"
}

func (m *Model) statusText(w int) string {
	if m.status == "" {
		return m.st.muted.Render(truncate(helpLine, w))
	}
	msg := truncate(m.status, w)
	switch m.statusKind {
	case statusError:
		return m.st.statusErr.Render(msg)
	case statusSuccess:
		return m.st.statusOK.Render(msg)
	}
	return m.st.status.Render(msg)
}

// renderRow draws one item. The label is cut to the room left after the
// indent, fold marker and type hint; highlighted key spans are styled only
// where they survive the cut.
func (m *Model) renderRow(r row, selected bool, w int) string {
	marker := "  "
	switch {
	case r.parent && r.expanded:
		marker = "▾ "
	case r.parent:
		marker = "▸ "
	}
	prefix := strings.Repeat("  ", r.depth) + marker
	hint := ""
	if tag, ok := m.proj.STIXType(r.item.ID); ok {
		hint = " (" + tag + ")"
	}
	room := w - runewidth.StringWidth(prefix) - runewidth.StringWidth(hint)
	label := truncate(r.item.Label, room)

	if selected {
		return m.st.selected.Render(padRight(prefix+label+hint, w))
	}
	return m.st.muted.Render(prefix) + m.styleLabel(label, r.item.Highlights) + m.st.muted.Render(hint)
}

func (m *Model) styleLabel(label string, spans []outline.Span) string {
	var b strings.Builder
	pos := 0
	for _, sp := range spans {
		if sp.Start < pos || sp.End > len(label) || sp.Start >= sp.End {
			continue
		}
		b.WriteString(m.st.value.Render(label[pos:sp.Start]))
		b.WriteString(m.st.key.Render(label[sp.Start:sp.End]))
		pos = sp.End
	}
	b.WriteString(m.st.value.Render(label[pos:]))
	return b.String()
}

func padRight(s string, w int) string {
	if n := runewidth.StringWidth(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}
