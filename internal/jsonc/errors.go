package jsonc

import "fmt"

// ParseErrorCode classifies a recoverable parse error.
type ParseErrorCode int

const (
	CodeInvalidSymbol ParseErrorCode = iota + 1
	CodeInvalidNumberFormat
	CodePropertyNameExpected
	CodeValueExpected
	CodeColonExpected
	CodeCommaExpected
	CodeCloseBraceExpected
	CodeCloseBracketExpected
	CodeEndOfFileExpected
	CodeInvalidCommentToken
	CodeUnexpectedEndOfComment
	CodeUnexpectedEndOfString
	CodeUnexpectedEndOfNumber
	CodeInvalidUnicode
	CodeInvalidEscapeCharacter
	CodeInvalidCharacter
)

var parseErrorNames = map[ParseErrorCode]string{
	CodeInvalidSymbol:          "invalid symbol",
	CodeInvalidNumberFormat:    "invalid number format",
	CodePropertyNameExpected:   "property name expected",
	CodeValueExpected:          "value expected",
	CodeColonExpected:          "colon expected",
	CodeCommaExpected:          "comma expected",
	CodeCloseBraceExpected:     "closing brace expected",
	CodeCloseBracketExpected:   "closing bracket expected",
	CodeEndOfFileExpected:      "end of file expected",
	CodeInvalidCommentToken:    "comments are not permitted",
	CodeUnexpectedEndOfComment: "unexpected end of comment",
	CodeUnexpectedEndOfString:  "unexpected end of string",
	CodeUnexpectedEndOfNumber:  "unexpected end of number",
	CodeInvalidUnicode:         "invalid unicode sequence",
	CodeInvalidEscapeCharacter: "invalid escape character",
	CodeInvalidCharacter:       "invalid character",
}

func (c ParseErrorCode) String() string {
	if name, ok := parseErrorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("parse error %d", int(c))
}

// ParseError is a recoverable error found while walking the text.
type ParseError struct {
	Code   ParseErrorCode
	Offset int
	Length int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Code, e.Offset)
}
