// Package bnf tokenizes and parses the BNF grammar dialect of spec.md §4.1
// into the dialect-neutral notation.Grammar IR.
package bnf

import (
	"strconv"
	"strings"

	"github.com/parsekit/lrforge/internal/perr"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokID
	tokString
	tokDefine
	tokPipe
	tokSemi
	tokInvalid
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "eof"
	case tokID:
		return "identifier"
	case tokString:
		return "string"
	case tokDefine:
		return "definition operator"
	case tokPipe:
		return "|"
	case tokSemi:
		return ";"
	default:
		return "invalid"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  perr.Position
}

// lexer is an ordered-dispatch, sticky scanner: at each position it tries,
// in a fixed order, the angle-bracket identifier, the quoted string forms,
// the definition operators, the punctuation, and finally a bare identifier.
// The first shape that matches at the current byte wins, matching spec.md
// §4.1's "tried in order, first match wins" front-end tokenizers.
type lexer struct {
	src        string
	pos        int
	lineStarts []int
}

func newLexer(src string) *lexer {
	l := &lexer{src: src, lineStarts: []int{0}}
	for i, b := range []byte(src) {
		if b == '\n' {
			l.lineStarts = append(l.lineStarts, i+1)
		}
	}
	return l
}

func (l *lexer) position(offset int) perr.Position {
	line := 0
	for i, start := range l.lineStarts {
		if start <= offset {
			line = i
		} else {
			break
		}
	}
	return perr.Position{Offset: offset, Line: line + 1, Col: offset - l.lineStarts[line] + 1}
}

func isIDStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIDPart(b byte) bool {
	return isIDStart(b) || (b >= '0' && b <= '9') || b == '-'
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			l.pos++
			continue
		}
		break
	}
}

func (l *lexer) next() (*token, error) {
	l.skipWhitespace()
	start := l.pos
	pos := l.position(start)
	if l.pos >= len(l.src) {
		return &token{kind: tokEOF, pos: pos}, nil
	}

	b := l.src[l.pos]
	switch {
	case b == '<':
		return l.lexAngle(pos)
	case b == '"':
		return l.lexQuoted(pos, '"')
	case b == '\'':
		return l.lexSingleQuoted(pos)
	case strings.HasPrefix(l.src[l.pos:], "::="):
		l.pos += 3
		return &token{kind: tokDefine, text: "::=", pos: pos}, nil
	case b == '=':
		l.pos++
		return &token{kind: tokDefine, text: "=", pos: pos}, nil
	case b == ':':
		l.pos++
		return &token{kind: tokDefine, text: ":", pos: pos}, nil
	case b == '|':
		l.pos++
		return &token{kind: tokPipe, text: "|", pos: pos}, nil
	case b == ';':
		l.pos++
		return &token{kind: tokSemi, text: ";", pos: pos}, nil
	case isIDStart(b):
		j := l.pos + 1
		for j < len(l.src) && isIDPart(l.src[j]) {
			j++
		}
		text := l.src[l.pos:j]
		l.pos = j
		return &token{kind: tokID, text: text, pos: pos}, nil
	default:
		l.pos++
		return &token{kind: tokInvalid, text: string(b), pos: pos}, nil
	}
}

// lexAngle reads `<...>`, where `>>` inside the brackets is the literal `>`
// escape spec.md §4.1 requires.
func (l *lexer) lexAngle(pos perr.Position) (*token, error) {
	l.pos++ // consume '<'
	var b strings.Builder
	for l.pos < len(l.src) {
		if l.src[l.pos] == '>' {
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '>' {
				b.WriteByte('>')
				l.pos += 2
				continue
			}
			l.pos++
			return &token{kind: tokID, text: b.String(), pos: pos}, nil
		}
		b.WriteByte(l.src[l.pos])
		l.pos++
	}
	return nil, &perr.NotationError{Dialect: "bnf", Pos: pos, Message: "unterminated angle-bracket identifier"}
}

func (l *lexer) lexQuoted(pos perr.Position, quote byte) (*token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		if l.src[l.pos] == quote {
			l.pos++
			raw := l.src[start:l.pos]
			decoded, err := strconv.Unquote(raw)
			if err != nil {
				return nil, &perr.NotationError{Dialect: "bnf", Pos: pos, Message: "malformed string literal: " + err.Error()}
			}
			return &token{kind: tokString, text: decoded, pos: pos}, nil
		}
		l.pos++
	}
	return nil, &perr.NotationError{Dialect: "bnf", Pos: pos, Message: "unterminated string literal"}
}

// lexSingleQuoted re-encodes a single-quoted literal to double-quoted form
// (unescape `'`, escape bare `"`) and decodes it with the same JSON-string
// decoder used for double-quoted strings, per spec.md §4.1.
func (l *lexer) lexSingleQuoted(pos perr.Position) (*token, error) {
	l.pos++
	// Re-encode to double-quoted form: `'` needs no escaping once the quote
	// character changes, and a bare `"` must gain one, per spec.md §4.1.
	var reencoded strings.Builder
	reencoded.WriteByte('"')
	for l.pos < len(l.src) {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			if l.src[l.pos+1] == '\'' {
				reencoded.WriteByte('\'')
			} else {
				reencoded.WriteByte('\\')
				reencoded.WriteByte(l.src[l.pos+1])
			}
			l.pos += 2
			continue
		}
		if l.src[l.pos] == '\'' {
			l.pos++
			reencoded.WriteByte('"')
			decoded, err := strconv.Unquote(reencoded.String())
			if err != nil {
				return nil, &perr.NotationError{Dialect: "bnf", Pos: pos, Message: "malformed string literal: " + err.Error()}
			}
			return &token{kind: tokString, text: decoded, pos: pos}, nil
		}
		if l.src[l.pos] == '"' {
			reencoded.WriteByte('\\')
		}
		reencoded.WriteByte(l.src[l.pos])
		l.pos++
	}
	return nil, &perr.NotationError{Dialect: "bnf", Pos: pos, Message: "unterminated string literal"}
}
