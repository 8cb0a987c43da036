package jsonc

import "strconv"

// Visitor receives parse events from Visit. Every callback is optional.
// Returning false from a callback stops the walk; no further callbacks fire.
type Visitor struct {
	OnObjectBegin    func(offset, length int) bool
	OnObjectProperty func(name string, offset, length int) bool
	OnObjectEnd      func(offset, length int) bool
	OnArrayBegin     func(offset, length int) bool
	OnArrayEnd       func(offset, length int) bool
	// OnLiteralValue receives a string, float64, bool or nil.
	OnLiteralValue func(value any, offset, length int) bool
	OnSeparator    func(sep byte, offset, length int) bool
	OnComment      func(offset, length int) bool
	OnError        func(code ParseErrorCode, offset, length int) bool
}

// ParseOptions tunes how strictly the text is read.
type ParseOptions struct {
	DisallowComments   bool
	AllowTrailingComma bool
	AllowEmptyContent  bool
}

// Visit walks text and reports structure to v. It recovers from errors
// and keeps going until the end of the text or until a callback stops it.
// The result is false when the text holds no value.
func Visit(text string, v Visitor, opts ParseOptions) bool {
	w := &walker{sc: NewScanner(text, false), v: v, opts: opts}
	w.next()
	if w.tok() == EOF {
		if opts.AllowEmptyContent {
			return true
		}
		w.fail(CodeValueExpected, nil, nil)
		return false
	}
	if !w.value() {
		w.fail(CodeValueExpected, nil, nil)
		return false
	}
	if w.tok() != EOF {
		w.fail(CodeEndOfFileExpected, nil, nil)
	}
	return true
}

type walker struct {
	sc      *Scanner
	v       Visitor
	opts    ParseOptions
	stopped bool
}

func (w *walker) tok() SyntaxKind {
	if w.stopped {
		return EOF
	}
	return w.sc.Token()
}

func (w *walker) keep(ok bool) {
	if !ok {
		w.stopped = true
	}
}

func (w *walker) span() (int, int) {
	return w.sc.TokenOffset(), w.sc.TokenLength()
}

func (w *walker) next() SyntaxKind {
	for !w.stopped {
		kind := w.sc.Scan()
		switch w.sc.TokenError() {
		case ScanInvalidUnicode:
			w.report(CodeInvalidUnicode)
		case ScanInvalidEscapeCharacter:
			w.report(CodeInvalidEscapeCharacter)
		case ScanUnexpectedEndOfNumber:
			w.report(CodeUnexpectedEndOfNumber)
		case ScanUnexpectedEndOfComment:
			if !w.opts.DisallowComments {
				w.report(CodeUnexpectedEndOfComment)
			}
		case ScanUnexpectedEndOfString:
			w.report(CodeUnexpectedEndOfString)
		case ScanInvalidCharacter:
			w.report(CodeInvalidCharacter)
		}
		switch kind {
		case LineCommentTrivia, BlockCommentTrivia:
			if w.opts.DisallowComments {
				w.report(CodeInvalidCommentToken)
			} else if w.v.OnComment != nil && !w.stopped {
				w.keep(w.v.OnComment(w.span()))
			}
		case Unknown:
			w.report(CodeInvalidSymbol)
		case Trivia, LineBreakTrivia:
		default:
			return kind
		}
	}
	return EOF
}

func (w *walker) report(code ParseErrorCode) {
	if w.v.OnError != nil && !w.stopped {
		off, n := w.span()
		w.keep(w.v.OnError(code, off, n))
	}
}

// fail reports code and then skips tokens until one in skipAfter (which is
// consumed) or one in skipUntil (which is not).
func (w *walker) fail(code ParseErrorCode, skipAfter, skipUntil []SyntaxKind) {
	w.report(code)
	if len(skipAfter)+len(skipUntil) == 0 {
		return
	}
	for tok := w.tok(); tok != EOF; tok = w.next() {
		if containsKind(skipAfter, tok) {
			w.next()
			return
		}
		if containsKind(skipUntil, tok) {
			return
		}
	}
}

func containsKind(kinds []SyntaxKind, k SyntaxKind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func (w *walker) value() bool {
	switch w.tok() {
	case OpenBracketToken:
		return w.array()
	case OpenBraceToken:
		return w.object()
	case StringLiteral:
		return w.str(true)
	default:
		return w.literal()
	}
}

func (w *walker) str(isValue bool) bool {
	value := w.sc.TokenValue()
	off, n := w.span()
	switch {
	case w.stopped:
	case isValue && w.v.OnLiteralValue != nil:
		w.keep(w.v.OnLiteralValue(value, off, n))
	case !isValue && w.v.OnObjectProperty != nil:
		w.keep(w.v.OnObjectProperty(value, off, n))
	}
	w.next()
	return true
}

func (w *walker) literal() bool {
	var value any
	switch w.tok() {
	case NumericLiteral:
		f, err := strconv.ParseFloat(w.sc.TokenValue(), 64)
		if err != nil {
			w.report(CodeInvalidNumberFormat)
			f = 0
		}
		value = f
	case NullKeyword:
		value = nil
	case TrueKeyword:
		value = true
	case FalseKeyword:
		value = false
	default:
		return false
	}
	if w.v.OnLiteralValue != nil && !w.stopped {
		off, n := w.span()
		w.keep(w.v.OnLiteralValue(value, off, n))
	}
	w.next()
	return true
}

func (w *walker) separator(sep byte) {
	if w.v.OnSeparator != nil && !w.stopped {
		off, n := w.span()
		w.keep(w.v.OnSeparator(sep, off, n))
	}
}

func (w *walker) property() bool {
	if w.tok() != StringLiteral {
		w.fail(CodePropertyNameExpected, nil, []SyntaxKind{CloseBraceToken, CommaToken})
		return false
	}
	w.str(false)
	if w.tok() == ColonToken {
		w.separator(':')
		w.next()
		if !w.value() {
			w.fail(CodeValueExpected, nil, []SyntaxKind{CloseBraceToken, CommaToken})
		}
	} else {
		w.fail(CodeColonExpected, nil, []SyntaxKind{CloseBraceToken, CommaToken})
	}
	return true
}

func (w *walker) object() bool {
	if w.v.OnObjectBegin != nil && !w.stopped {
		w.keep(w.v.OnObjectBegin(w.span()))
	}
	w.next()
	needsComma := false
	for tok := w.tok(); tok != CloseBraceToken && tok != EOF; tok = w.tok() {
		if tok == CommaToken {
			if !needsComma {
				w.fail(CodeValueExpected, nil, nil)
			}
			w.separator(',')
			w.next()
			if w.tok() == CloseBraceToken && w.opts.AllowTrailingComma {
				break
			}
		} else if needsComma {
			w.fail(CodeCommaExpected, nil, nil)
		}
		if !w.property() {
			w.fail(CodeValueExpected, nil, []SyntaxKind{CloseBraceToken, CommaToken})
		}
		needsComma = true
	}
	if w.v.OnObjectEnd != nil && !w.stopped {
		w.keep(w.v.OnObjectEnd(w.span()))
	}
	if w.tok() != CloseBraceToken {
		w.fail(CodeCloseBraceExpected, []SyntaxKind{CloseBraceToken}, nil)
	} else {
		w.next()
	}
	return true
}

func (w *walker) array() bool {
	if w.v.OnArrayBegin != nil && !w.stopped {
		w.keep(w.v.OnArrayBegin(w.span()))
	}
	w.next()
	needsComma := false
	for tok := w.tok(); tok != CloseBracketToken && tok != EOF; tok = w.tok() {
		if tok == CommaToken {
			if !needsComma {
				w.fail(CodeValueExpected, nil, nil)
			}
			w.separator(',')
			w.next()
			if w.tok() == CloseBracketToken && w.opts.AllowTrailingComma {
				break
			}
		} else if needsComma {
			w.fail(CodeCommaExpected, nil, nil)
		}
		if !w.value() {
			w.fail(CodeValueExpected, nil, []SyntaxKind{CloseBracketToken, CommaToken})
		}
		needsComma = true
	}
	if w.v.OnArrayEnd != nil && !w.stopped {
		w.keep(w.v.OnArrayEnd(w.span()))
	}
	if w.tok() != CloseBracketToken {
		w.fail(CodeCloseBracketExpected, []SyntaxKind{CloseBracketToken}, nil)
	} else {
		w.next()
	}
	return true
}
