package compiler

import (
	"regexp"
	"strings"
)

// TokenType distinguishes the kinds of template tags.
type TokenType int

const (
	TokenText     TokenType = iota // static markup
	TokenName                      // {{field}}, {{{field}}}, {{&field}}
	TokenSection                   // {{#block}} ... {{/block}}
	TokenInverted                  // {{^block}} ... {{/block}}
	TokenElse                      // {{else}} inside a block
	TokenPartial                   // {{> name}} left after expansion
)

// Token is one lexed unit. Block tokens carry their nested tokens.
type Token struct {
	Type TokenType

	// Value is the trimmed tag text without sigil, or the literal text.
	Value string

	// Raw is the tag exactly as written in the source.
	Raw string

	// Unescaped marks triple-mustache and ampersand tags.
	Unescaped bool

	Children []Token
	Line     int
	Column   int
}

const (
	openDelim   = "{{"
	closeDelim  = "}}"
	tripleClose = "}}}"
)

var firstWordRegex = regexp.MustCompile(`^\s*(\w+)`)

// lexer converts markup into a nested token list.
type lexer struct {
	src  string
	file string
	pos  int
	line int
	col  int
}

type openBlock struct {
	token  Token
	parent []Token
}

// Lex tokenizes markup. file is used only for error positions.
func Lex(src, file string) ([]Token, error) {
	l := &lexer{src: src, file: file, line: 1, col: 1}
	return l.run()
}

func (l *lexer) run() ([]Token, error) {
	var (
		tokens []Token
		stack  []openBlock
	)

	for l.pos < len(l.src) {
		idx := strings.Index(l.src[l.pos:], openDelim)
		if idx < 0 {
			tokens = append(tokens, l.text(len(l.src)-l.pos))
			break
		}
		if idx > 0 {
			tokens = append(tokens, l.text(idx))
		}

		line, col := l.line, l.col
		start := l.pos
		triple := strings.HasPrefix(l.src[l.pos:], "{{{")

		closer := closeDelim
		bodyStart := start + len(openDelim)
		if triple {
			closer = tripleClose
			bodyStart = start + 3
		}
		end := strings.Index(l.src[bodyStart:], closer)
		if end < 0 {
			return nil, l.errorAt(line, col, "unclosed tag")
		}
		body := l.src[bodyStart : bodyStart+end]
		raw := l.src[start : bodyStart+end+len(closer)]
		l.advance(len(raw))

		tag := strings.TrimSpace(body)
		if triple {
			if tag == "" {
				return nil, l.errorAt(line, col, "empty tag")
			}
			tokens = append(tokens, Token{Type: TokenName, Value: tag, Raw: raw, Unescaped: true, Line: line, Column: col})
			continue
		}
		if tag == "" {
			return nil, l.errorAt(line, col, "empty tag")
		}

		sigil := tag[0]
		value := strings.TrimSpace(tag[1:])

		switch sigil {
		case '!':
			// comment
		case '>':
			tokens = append(tokens, Token{Type: TokenPartial, Value: value, Raw: raw, Line: line, Column: col})
		case '&':
			if value == "" {
				return nil, l.errorAt(line, col, "empty tag")
			}
			tokens = append(tokens, Token{Type: TokenName, Value: value, Raw: raw, Unescaped: true, Line: line, Column: col})
		case '#', '^':
			if value == "" {
				return nil, l.errorAt(line, col, "empty section tag")
			}
			typ := TokenSection
			if sigil == '^' {
				typ = TokenInverted
			}
			stack = append(stack, openBlock{
				token:  Token{Type: typ, Value: value, Raw: raw, Line: line, Column: col},
				parent: tokens,
			})
			tokens = nil
		case '/':
			if len(stack) == 0 {
				return nil, l.errorAt(line, col, "unopened section \""+value+"\"")
			}
			open := stack[len(stack)-1]
			if !closes(open.token.Value, value) {
				return nil, l.errorAt(open.token.Line, open.token.Column, "unclosed section \""+open.token.Value+"\"")
			}
			stack = stack[:len(stack)-1]
			block := open.token
			block.Children = tokens
			tokens = append(open.parent, block)
		default:
			if tag == "else" {
				if len(stack) == 0 {
					return nil, l.errorAt(line, col, "else outside of a block")
				}
				tokens = append(tokens, Token{Type: TokenElse, Value: tag, Raw: raw, Line: line, Column: col})
				continue
			}
			tokens = append(tokens, Token{Type: TokenName, Value: tag, Raw: raw, Line: line, Column: col})
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1].token
		return nil, l.errorAt(open.Line, open.Column, "unclosed section \""+open.Value+"\"")
	}
	return tokens, nil
}

// closes reports whether a closing tag matches an opening tag. The closer
// may repeat the whole opening text, its first word ("section", "if"), or
// the section name.
func closes(open, closer string) bool {
	if closer == open {
		return true
	}
	closer = strings.ToLower(closer)
	if m := firstWordRegex.FindStringSubmatch(open); m != nil && strings.ToLower(m[1]) == closer {
		return true
	}
	if m := branchRegex.FindStringSubmatch(open); m != nil && strings.ToLower(m[2]) == closer {
		return true
	}
	return false
}

func (l *lexer) text(n int) Token {
	tok := Token{Type: TokenText, Value: l.src[l.pos : l.pos+n], Line: l.line, Column: l.col}
	tok.Raw = tok.Value
	l.advance(n)
	return tok
}

func (l *lexer) advance(n int) {
	for _, r := range l.src[l.pos : l.pos+n] {
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
	l.pos += n
}

func (l *lexer) errorAt(line, col int, msg string) *SyntaxError {
	return &SyntaxError{File: l.file, Line: line, Column: col, Message: msg}
}
