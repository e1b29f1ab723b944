/*
Package ron parses the parenthesised object notation used for canonical zerv documents,
raw schema definitions and branch rules.

Only the subset the engine needs is supported: named structs, tuples, lists, string-keyed
maps, identifiers, quoted strings, integers and comments.

Usage:

	node, err := ron.Parse(`(core: [var("major")], precedence_order: [Core])`)
*/
package ron

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrSyntax is returned (wrapped) for every malformed document.
	ErrSyntax = errors.New("malformed notation")
)

// Kind is a parsed node kind.
type Kind int

// Node kinds
const (
	KindStruct Kind = iota // (a: 1, b: 2) or Name(a: 1)
	KindTuple              // (1, 2), Some(1), var("major"), ()
	KindList               // [1, 2]
	KindMap                // {"a": 1}
	KindIdent              // None, true, Core
	KindString             // "text"
	KindNumber             // 42, -7
)

var kindNames = map[Kind]string{
	KindStruct: "struct",
	KindTuple:  "tuple",
	KindList:   "list",
	KindMap:    "map",
	KindIdent:  "identifier",
	KindString: "string",
	KindNumber: "number",
}

// String returns the human readable kind name.
func (k Kind) String() string {
	return kindNames[k]
}

// Node is one parsed value.
type Node struct {
	Kind    Kind
	Name    string  // struct/tuple prefix name or identifier text
	Fields  []Field // KindStruct
	Items   []*Node // KindTuple, KindList
	Entries []Entry // KindMap
	Text    string  // KindString (unquoted) or KindNumber (literal)
	Line    int
	Col     int
}

// Field is a named struct member.
type Field struct {
	Name  string
	Value *Node
}

// Entry is a map member.
type Entry struct {
	Key   *Node
	Value *Node
}

// Errorf builds a positioned ErrSyntax error for the node.
func (n *Node) Errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d col %d: %s", ErrSyntax, n.Line, n.Col, fmt.Sprintf(format, args...))
}

// IsIdent reports whether the node is the given bare identifier.
func (n *Node) IsIdent(name string) bool {
	return n.Kind == KindIdent && n.Name == name
}

// IsEmpty reports whether the node is the unit value "()".
func (n *Node) IsEmpty() bool {
	return n.Kind == KindTuple && n.Name == "" && len(n.Items) == 0
}

// Option unwraps None / Some(x). The boolean is false for None.
func (n *Node) Option() (*Node, bool, error) {
	if n.IsIdent("None") {
		return nil, false, nil
	}
	if n.Kind == KindTuple && n.Name == "Some" && len(n.Items) == 1 {
		return n.Items[0], true, nil
	}
	return nil, false, n.Errorf("expected None or Some(...), got %s", n.Kind)
}

// Uint returns the node as a non-negative integer.
func (n *Node) Uint() (uint64, error) {
	if n.Kind != KindNumber {
		return 0, n.Errorf("expected number, got %s", n.Kind)
	}
	v, err := strconv.ParseUint(n.Text, 10, 64)
	if err != nil {
		return 0, n.Errorf("invalid unsigned integer %q", n.Text)
	}
	return v, nil
}

// Int returns the node as a signed integer.
func (n *Node) Int() (int64, error) {
	if n.Kind != KindNumber {
		return 0, n.Errorf("expected number, got %s", n.Kind)
	}
	v, err := strconv.ParseInt(n.Text, 10, 64)
	if err != nil {
		return 0, n.Errorf("invalid integer %q", n.Text)
	}
	return v, nil
}

// Str returns the node as a string.
func (n *Node) Str() (string, error) {
	if n.Kind != KindString {
		return "", n.Errorf("expected string, got %s", n.Kind)
	}
	return n.Text, nil
}

// Bool returns the node as a boolean.
func (n *Node) Bool() (bool, error) {
	switch {
	case n.IsIdent("true"):
		return true, nil
	case n.IsIdent("false"):
		return false, nil
	}
	return false, n.Errorf("expected true or false, got %s", n.Kind)
}

// StructFields returns the named members of a struct node.
// The unit value "()" is accepted as a struct without members.
func (n *Node) StructFields() ([]Field, error) {
	switch {
	case n.Kind == KindStruct:
		return n.Fields, nil
	case n.Kind == KindTuple && len(n.Items) == 0:
		return nil, nil
	}
	return nil, n.Errorf("expected struct, got %s", n.Kind)
}

// ListItems returns the elements of a list node.
func (n *Node) ListItems() ([]*Node, error) {
	if n.Kind != KindList {
		return nil, n.Errorf("expected list, got %s", n.Kind)
	}
	return n.Items, nil
}

// MapEntries returns the members of a map node. "()" is accepted as an empty map.
func (n *Node) MapEntries() ([]Entry, error) {
	switch {
	case n.Kind == KindMap:
		return n.Entries, nil
	case n.IsEmpty():
		return nil, nil
	}
	return nil, n.Errorf("expected map, got %s", n.Kind)
}

// Parse parses one complete document. Trailing content is an error.
func Parse(text string) (*Node, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.value()
	if err != nil {
		return nil, err
	}
	if t := p.peek(0); t.kind != tokEOF {
		return nil, t.errorf("unexpected trailing %q", t.text)
	}
	return n, nil
}

// Quote returns s as a quoted string literal.
func Quote(s string) string {
	return strconv.Quote(s)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokPunct
	tokIdent
	tokString
	tokNumber
)

type token struct {
	kind      tokenKind
	text      string
	line, col int
}

func (t token) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d col %d: %s", ErrSyntax, t.line, t.col, fmt.Sprintf(format, args...))
}

func (t token) is(punct string) bool {
	return t.kind == tokPunct && t.text == punct
}

func tokenize(src string) ([]token, error) {
	var (
		toks      []token
		line, col = 1, 1
		i         = 0
	)
	advance := func(n int) {
		for k := 0; k < n; k++ {
			if src[i] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			i++
		}
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			advance(1)
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				advance(1)
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, token{line: line, col: col}.errorf("unterminated comment")
			}
			advance(end + 4)
		case strings.ContainsRune("()[]{},:", rune(c)):
			toks = append(toks, token{kind: tokPunct, text: string(c), line: line, col: col})
			advance(1)
		case c == '"':
			start, sl, sc := i, line, col
			advance(1)
			for i < len(src) && src[i] != '"' {
				if src[i] == '\\' && i+1 < len(src) {
					advance(1)
				}
				advance(1)
			}
			if i >= len(src) {
				return nil, token{line: sl, col: sc}.errorf("unterminated string")
			}
			advance(1)
			s, err := strconv.Unquote(src[start:i])
			if err != nil {
				return nil, token{line: sl, col: sc}.errorf("invalid string literal %s", src[start:i])
			}
			toks = append(toks, token{kind: tokString, text: s, line: sl, col: sc})
		case c == '-' || c == '+' || isDigit(c):
			start, sl, sc := i, line, col
			advance(1)
			for i < len(src) && isDigit(src[i]) {
				advance(1)
			}
			lit := strings.TrimPrefix(src[start:i], "+")
			if lit == "-" || lit == "" {
				return nil, token{line: sl, col: sc}.errorf("invalid number")
			}
			toks = append(toks, token{kind: tokNumber, text: lit, line: sl, col: sc})
		case isIdentStart(c):
			start, sl, sc := i, line, col
			for i < len(src) && isIdentPart(src[i]) {
				advance(1)
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], line: sl, col: sc})
		default:
			return nil, token{line: line, col: col}.errorf("unexpected character %q", c)
		}
	}
	return append(toks, token{kind: tokEOF, line: line, col: col}), nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.peek(0)
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) value() (*Node, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return &Node{Kind: KindString, Text: t.text, Line: t.line, Col: t.col}, nil
	case tokNumber:
		return &Node{Kind: KindNumber, Text: t.text, Line: t.line, Col: t.col}, nil
	case tokIdent:
		if p.peek(0).is("(") {
			p.next()
			return p.parens(t.text, t)
		}
		return &Node{Kind: KindIdent, Name: t.text, Line: t.line, Col: t.col}, nil
	case tokPunct:
		switch t.text {
		case "(":
			return p.parens("", t)
		case "[":
			return p.list(t)
		case "{":
			return p.mapping(t)
		}
	case tokEOF:
		return nil, t.errorf("unexpected end of input")
	}
	return nil, t.errorf("unexpected %q", t.text)
}

// parens parses the content after an opening parenthesis.
func (p *parser) parens(name string, open token) (*Node, error) {
	if p.peek(0).kind == tokIdent && p.peek(1).is(":") {
		n := &Node{Kind: KindStruct, Name: name, Line: open.line, Col: open.col}
		err := p.sequence(")", func() error {
			key := p.next()
			if key.kind != tokIdent {
				return key.errorf("expected field name, got %q", key.text)
			}
			if colon := p.next(); !colon.is(":") {
				return colon.errorf("expected ':' after %q", key.text)
			}
			for _, f := range n.Fields {
				if f.Name == key.text {
					return key.errorf("duplicate field %q", key.text)
				}
			}
			v, err := p.value()
			if err != nil {
				return err
			}
			n.Fields = append(n.Fields, Field{Name: key.text, Value: v})
			return nil
		})
		return n, err
	}

	n := &Node{Kind: KindTuple, Name: name, Line: open.line, Col: open.col}
	err := p.sequence(")", func() error {
		v, err := p.value()
		if err != nil {
			return err
		}
		n.Items = append(n.Items, v)
		return nil
	})
	return n, err
}

func (p *parser) list(open token) (*Node, error) {
	n := &Node{Kind: KindList, Line: open.line, Col: open.col}
	err := p.sequence("]", func() error {
		v, err := p.value()
		if err != nil {
			return err
		}
		n.Items = append(n.Items, v)
		return nil
	})
	return n, err
}

func (p *parser) mapping(open token) (*Node, error) {
	n := &Node{Kind: KindMap, Line: open.line, Col: open.col}
	err := p.sequence("}", func() error {
		k, err := p.value()
		if err != nil {
			return err
		}
		if colon := p.next(); !colon.is(":") {
			return colon.errorf("expected ':' in map entry")
		}
		v, err := p.value()
		if err != nil {
			return err
		}
		n.Entries = append(n.Entries, Entry{Key: k, Value: v})
		return nil
	})
	return n, err
}

// sequence parses comma separated elements up to the closing punctuation.
// A trailing comma is allowed.
func (p *parser) sequence(closing string, element func() error) error {
	for {
		if p.peek(0).is(closing) {
			p.next()
			return nil
		}
		if err := element(); err != nil {
			return err
		}
		t := p.next()
		switch {
		case t.is(closing):
			return nil
		case t.is(","):
			continue
		case t.kind == tokEOF:
			return t.errorf("unexpected end of input, expected %q", closing)
		default:
			return t.errorf("expected ',' or %q, got %q", closing, t.text)
		}
	}
}
