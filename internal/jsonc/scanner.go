package jsonc

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

// SyntaxKind identifies the kind of token produced by the Scanner.
type SyntaxKind int

const (
	OpenBraceToken SyntaxKind = iota + 1
	CloseBraceToken
	OpenBracketToken
	CloseBracketToken
	CommaToken
	ColonToken
	NullKeyword
	TrueKeyword
	FalseKeyword
	StringLiteral
	NumericLiteral
	LineCommentTrivia
	BlockCommentTrivia
	LineBreakTrivia
	Trivia
	Unknown
	EOF
)

var syntaxKindNames = map[SyntaxKind]string{
	OpenBraceToken:     "{",
	CloseBraceToken:    "}",
	OpenBracketToken:   "[",
	CloseBracketToken:  "]",
	CommaToken:         ",",
	ColonToken:         ":",
	NullKeyword:        "null",
	TrueKeyword:        "true",
	FalseKeyword:       "false",
	StringLiteral:      "string",
	NumericLiteral:     "number",
	LineCommentTrivia:  "line comment",
	BlockCommentTrivia: "block comment",
	LineBreakTrivia:    "line break",
	Trivia:             "whitespace",
	Unknown:            "unknown",
	EOF:                "EOF",
}

func (k SyntaxKind) String() string {
	if name, ok := syntaxKindNames[k]; ok {
		return name
	}
	return "invalid"
}

// ScanError describes a lexical problem with the most recent token.
type ScanError int

const (
	ScanNone ScanError = iota
	ScanUnexpectedEndOfComment
	ScanUnexpectedEndOfString
	ScanUnexpectedEndOfNumber
	ScanInvalidUnicode
	ScanInvalidEscapeCharacter
	ScanInvalidCharacter
)

// Scanner tokenizes JSON with comments. Offsets are byte offsets into the
// scanned text.
type Scanner struct {
	text         string
	ignoreTrivia bool

	pos         int
	tokenOffset int
	token       SyntaxKind
	value       string
	err         ScanError
}

// NewScanner returns a scanner positioned at the start of text. When
// ignoreTrivia is set, whitespace, line breaks and comments are skipped.
func NewScanner(text string, ignoreTrivia bool) *Scanner {
	return &Scanner{text: text, ignoreTrivia: ignoreTrivia, token: Unknown}
}

// SetPosition moves the scanner to pos and resets the current token.
func (s *Scanner) SetPosition(pos int) {
	s.pos = pos
	s.value = ""
	s.tokenOffset = 0
	s.token = Unknown
	s.err = ScanNone
}

// Pos is the offset just past the current token.
func (s *Scanner) Pos() int { return s.pos }

// Token is the kind of the current token.
func (s *Scanner) Token() SyntaxKind { return s.token }

// TokenValue is the decoded value of the current token. For strings the
// quotes are removed and escapes resolved.
func (s *Scanner) TokenValue() string { return s.value }

// TokenOffset is the byte offset where the current token starts.
func (s *Scanner) TokenOffset() int { return s.tokenOffset }

// TokenLength is the byte length of the current token in the source text.
func (s *Scanner) TokenLength() int { return s.pos - s.tokenOffset }

// TokenError reports a lexical error for the current token, if any.
func (s *Scanner) TokenError() ScanError { return s.err }

// Scan advances to the next token and returns its kind.
func (s *Scanner) Scan() SyntaxKind {
	for {
		kind := s.scanNext()
		if !s.ignoreTrivia || kind < LineCommentTrivia || kind > Trivia {
			return kind
		}
	}
}

func (s *Scanner) scanNext() SyntaxKind {
	s.value = ""
	s.err = ScanNone
	s.tokenOffset = s.pos

	if s.pos >= len(s.text) {
		s.tokenOffset = len(s.text)
		s.token = EOF
		return s.token
	}

	ch := s.text[s.pos]

	if isWhitespace(ch) {
		for s.pos < len(s.text) && isWhitespace(s.text[s.pos]) {
			s.pos++
		}
		s.value = s.text[s.tokenOffset:s.pos]
		s.token = Trivia
		return s.token
	}

	if isLineBreak(ch) {
		s.pos++
		if ch == '\r' && s.pos < len(s.text) && s.text[s.pos] == '\n' {
			s.pos++
		}
		s.value = s.text[s.tokenOffset:s.pos]
		s.token = LineBreakTrivia
		return s.token
	}

	switch ch {
	case '{':
		return s.single(OpenBraceToken)
	case '}':
		return s.single(CloseBraceToken)
	case '[':
		return s.single(OpenBracketToken)
	case ']':
		return s.single(CloseBracketToken)
	case ':':
		return s.single(ColonToken)
	case ',':
		return s.single(CommaToken)
	case '"':
		s.pos++
		s.value = s.scanString()
		s.token = StringLiteral
		return s.token
	case '/':
		return s.scanComment()
	case '-':
		s.pos++
		if s.pos == len(s.text) || !isDigit(s.text[s.pos]) {
			s.value = "-"
			s.token = Unknown
			return s.token
		}
		s.value = "-" + s.scanNumber()
		s.token = NumericLiteral
		return s.token
	}

	if isDigit(ch) {
		s.value = s.scanNumber()
		s.token = NumericLiteral
		return s.token
	}

	for s.pos < len(s.text) && isUnknownContent(s.text[s.pos]) {
		s.pos++
	}
	if s.pos != s.tokenOffset {
		s.value = s.text[s.tokenOffset:s.pos]
		switch s.value {
		case "true":
			s.token = TrueKeyword
		case "false":
			s.token = FalseKeyword
		case "null":
			s.token = NullKeyword
		default:
			s.token = Unknown
		}
		return s.token
	}

	s.pos++
	s.value = string(ch)
	s.token = Unknown
	return s.token
}

func (s *Scanner) single(kind SyntaxKind) SyntaxKind {
	s.pos++
	s.value = s.text[s.tokenOffset:s.pos]
	s.token = kind
	return kind
}

func (s *Scanner) scanComment() SyntaxKind {
	start := s.pos
	if s.pos+1 < len(s.text) && s.text[s.pos+1] == '/' {
		s.pos += 2
		for s.pos < len(s.text) && !isLineBreak(s.text[s.pos]) {
			s.pos++
		}
		s.value = s.text[start:s.pos]
		s.token = LineCommentTrivia
		return s.token
	}
	if s.pos+1 < len(s.text) && s.text[s.pos+1] == '*' {
		s.pos += 2
		closed := false
		for s.pos < len(s.text)-1 {
			if s.text[s.pos] == '*' && s.text[s.pos+1] == '/' {
				s.pos += 2
				closed = true
				break
			}
			s.pos++
		}
		if !closed {
			s.pos = len(s.text)
			s.err = ScanUnexpectedEndOfComment
		}
		s.value = s.text[start:s.pos]
		s.token = BlockCommentTrivia
		return s.token
	}
	s.pos++
	s.value = "/"
	s.token = Unknown
	return s.token
}

// scanString reads a string body; the opening quote is already consumed.
func (s *Scanner) scanString() string {
	var b strings.Builder
	start := s.pos
	for {
		if s.pos >= len(s.text) {
			b.WriteString(s.text[start:s.pos])
			s.err = ScanUnexpectedEndOfString
			break
		}
		ch := s.text[s.pos]
		if ch == '"' {
			b.WriteString(s.text[start:s.pos])
			s.pos++
			break
		}
		if ch == '\\' {
			b.WriteString(s.text[start:s.pos])
			s.pos++
			if s.pos >= len(s.text) {
				s.err = ScanUnexpectedEndOfString
				break
			}
			esc := s.text[s.pos]
			s.pos++
			switch esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'u':
				r := s.scanHexDigits(4)
				if r < 0 {
					s.err = ScanInvalidUnicode
					break
				}
				if utf16.IsSurrogate(rune(r)) && s.pos+1 < len(s.text) && s.text[s.pos] == '\\' && s.text[s.pos+1] == 'u' {
					save := s.pos
					s.pos += 2
					if low := s.scanHexDigits(4); low >= 0 {
						if pair := utf16.DecodeRune(rune(r), rune(low)); pair != unicode.ReplacementChar {
							b.WriteRune(pair)
							break
						}
					}
					s.pos = save
				}
				b.WriteRune(rune(r))
			default:
				s.err = ScanInvalidEscapeCharacter
			}
			start = s.pos
			continue
		}
		if ch < 0x20 {
			if isLineBreak(ch) {
				b.WriteString(s.text[start:s.pos])
				s.err = ScanUnexpectedEndOfString
				break
			}
			s.err = ScanInvalidCharacter
		}
		s.pos++
	}
	return b.String()
}

func (s *Scanner) scanHexDigits(count int) int {
	value := 0
	digits := 0
	for digits < count && s.pos < len(s.text) {
		ch := s.text[s.pos]
		switch {
		case ch >= '0' && ch <= '9':
			value = value*16 + int(ch-'0')
		case ch >= 'A' && ch <= 'F':
			value = value*16 + int(ch-'A') + 10
		case ch >= 'a' && ch <= 'f':
			value = value*16 + int(ch-'a') + 10
		default:
			return -1
		}
		s.pos++
		digits++
	}
	if digits < count {
		return -1
	}
	return value
}

func (s *Scanner) scanNumber() string {
	start := s.pos
	if s.text[s.pos] == '0' {
		s.pos++
	} else {
		s.pos++
		for s.pos < len(s.text) && isDigit(s.text[s.pos]) {
			s.pos++
		}
	}
	if s.pos < len(s.text) && s.text[s.pos] == '.' {
		s.pos++
		if s.pos < len(s.text) && isDigit(s.text[s.pos]) {
			s.pos++
			for s.pos < len(s.text) && isDigit(s.text[s.pos]) {
				s.pos++
			}
		} else {
			s.err = ScanUnexpectedEndOfNumber
			return s.text[start:s.pos]
		}
	}
	end := s.pos
	if s.pos < len(s.text) && (s.text[s.pos] == 'E' || s.text[s.pos] == 'e') {
		s.pos++
		if s.pos < len(s.text) && (s.text[s.pos] == '+' || s.text[s.pos] == '-') {
			s.pos++
		}
		if s.pos < len(s.text) && isDigit(s.text[s.pos]) {
			s.pos++
			for s.pos < len(s.text) && isDigit(s.text[s.pos]) {
				s.pos++
			}
			end = s.pos
		} else {
			s.err = ScanUnexpectedEndOfNumber
		}
	}
	return s.text[start:end]
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\v' || ch == '\f'
}

func isLineBreak(ch byte) bool {
	return ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isUnknownContent(ch byte) bool {
	if isWhitespace(ch) || isLineBreak(ch) {
		return false
	}
	switch ch {
	case '{', '}', '[', ']', '"', ':', ',', '/':
		return false
	}
	return true
}
