package host

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Buffer is an in-memory Document with a line index.
type Buffer struct {
	uri        string
	languageID string
	version    int
	text       string
	lineStarts []int
}

// NewBuffer returns a buffer holding text at version 1.
func NewBuffer(uri, languageID, text string) *Buffer {
	b := &Buffer{uri: uri, languageID: languageID, version: 1}
	b.setText(text)
	return b
}

func (b *Buffer) URI() string        { return b.uri }
func (b *Buffer) LanguageID() string { return b.languageID }
func (b *Buffer) Version() int       { return b.version }
func (b *Buffer) Text() string       { return b.text }

// Scheme is the URI scheme; a bare path counts as a file.
func (b *Buffer) Scheme() string {
	u, err := url.Parse(b.uri)
	if err != nil || u.Scheme == "" {
		return "file"
	}
	return u.Scheme
}

// SetLanguageID changes the declared language, as when a user picks a
// different mode for an open file.
func (b *Buffer) SetLanguageID(id string) { b.languageID = id }

func (b *Buffer) setText(text string) {
	b.text = text
	b.lineStarts = b.lineStarts[:0]
	b.lineStarts = append(b.lineStarts, 0)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			b.lineStarts = append(b.lineStarts, i+1)
		case '\n':
			b.lineStarts = append(b.lineStarts, i+1)
		}
	}
}

// lineEnd is the offset of the line break ending line, or the text length.
func (b *Buffer) lineEnd(line int) int {
	if line+1 >= len(b.lineStarts) {
		return len(b.text)
	}
	end := b.lineStarts[line+1]
	for end > b.lineStarts[line] && (b.text[end-1] == '\n' || b.text[end-1] == '\r') {
		end--
	}
	return end
}

// PositionAt converts a byte offset to a position. Offsets are clamped to
// the text; an offset inside a multi-byte character maps to its start.
func (b *Buffer) PositionAt(offset int) Position {
	offset = max(0, min(offset, len(b.text)))
	line := sort.Search(len(b.lineStarts), func(i int) bool { return b.lineStarts[i] > offset }) - 1
	start := b.lineStarts[line]
	end := min(offset, b.lineEnd(line))
	char := 0
	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(b.text[i:])
		if i+size > end {
			break
		}
		char += utf16Len(r)
		i += size
	}
	return Position{Line: line, Character: char}
}

// OffsetAt converts a position to a byte offset. Positions past the end of
// a line clamp to the line end; lines past the end clamp to the text end.
func (b *Buffer) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(b.lineStarts) {
		return len(b.text)
	}
	i := b.lineStarts[pos.Line]
	end := b.lineEnd(pos.Line)
	for units := 0; i < end && units < pos.Character; {
		r, size := utf8.DecodeRuneInString(b.text[i:])
		units += utf16Len(r)
		i += size
	}
	return i
}

// Slice returns the text between two byte offsets, clamped to the text.
func (b *Buffer) Slice(start, end int) string {
	start = max(0, min(start, len(b.text)))
	end = max(start, min(end, len(b.text)))
	return b.text[start:end]
}

// Apply applies one change addressed by its Range and bumps the version.
// The returned change has RangeOffset and RangeLength filled in.
func (b *Buffer) Apply(c Change) (Change, error) {
	start, end := b.OffsetAt(c.Range.Start), b.OffsetAt(c.Range.End)
	if end < start {
		return c, fmt.Errorf("apply change to %s: range %s is inverted", b.uri, c.Range)
	}
	c.RangeOffset = start
	c.RangeLength = end - start
	var sb strings.Builder
	sb.Grow(len(b.text) - c.RangeLength + len(c.Text))
	sb.WriteString(b.text[:start])
	sb.WriteString(c.Text)
	sb.WriteString(b.text[end:])
	b.setText(sb.String())
	b.version++
	return c, nil
}

// Replace swaps the whole text and returns the equivalent change.
func (b *Buffer) Replace(text string) Change {
	c := Change{
		Range:       Range{Start: Position{}, End: b.PositionAt(len(b.text))},
		RangeOffset: 0,
		RangeLength: len(b.text),
		Text:        text,
	}
	b.setText(text)
	b.version++
	return c
}

func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
