// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package equation

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Relation selects which node or nodes a field reference reads.
type Relation int

const (
	RelSelf       Relation = iota // {*name*}
	RelParent                     // {**name*}
	RelRoot                       // {*$name*}
	RelChildren                   // {*&name*}
	RelChildCount                 // {*#name*}
)

var relationTokens = map[Relation]string{
	RelSelf:       "",
	RelParent:     "*",
	RelRoot:       "$",
	RelChildren:   "&",
	RelChildCount: "#",
}

// Ref is a field reference inside an equation.
type Ref struct {
	Field string
	Rel   Relation
}

// String returns the reference in equation syntax.
func (r Ref) String() string {
	return "{*" + relationTokens[r.Rel] + r.Field + "*}"
}

// ReadsDown reports whether the reference reads child nodes.
func (r Ref) ReadsDown() bool {
	return r.Rel == RelChildren || r.Rel == RelChildCount
}

type refSpan struct {
	start, end int
	ref        Ref
}

// Equation is a parsed equation. The source text is what gets persisted; the
// tree is rebuilt by Parse.
type Equation struct {
	src   string
	root  node
	spans []refSpan
}

// Parse compiles an equation.
//
// Grammar, lowest precedence first:
//
//	a if cond else b
//	or
//	and
//	not
//	== != < > <= >=     (chainable)
//	+ -
//	* / // %
//	unary - +
//	**                  (right associative)
//	literals, field references, function calls, ( )
func Parse(src string) (*Equation, error) {
	p := &exprParser{input: src}
	if strings.TrimSpace(src) == "" {
		return nil, p.errorf("empty equation")
	}
	root, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected %q", p.input[p.pos:])
	}
	return &Equation{src: src, root: root, spans: p.spans}, nil
}

// MustParse is Parse for equations known to be valid. It panics on error.
func MustParse(src string) *Equation {
	eq, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return eq
}

// Source returns the equation text as written.
func (e *Equation) Source() string {
	return e.src
}

// Refs returns the distinct field references in order of first use.
func (e *Equation) Refs() []Ref {
	seen := make(map[Ref]bool)
	var refs []Ref
	for _, s := range e.spans {
		if !seen[s.ref] {
			seen[s.ref] = true
			refs = append(refs, s.ref)
		}
	}
	return refs
}

// ReadsDown reports whether any reference reads child nodes, which requires
// children to be evaluated before their parent.
func (e *Equation) ReadsDown() bool {
	for _, s := range e.spans {
		if s.ref.ReadsDown() {
			return true
		}
	}
	return false
}

// RenameField returns the equation source with every reference to oldName
// rewritten to newName, keeping each reference's relation. When relations
// are given, only references with one of them are rewritten.
func (e *Equation) RenameField(oldName, newName string, rels ...Relation) string {
	var b strings.Builder
	last := 0
	for _, s := range e.spans {
		if s.ref.Field != oldName {
			continue
		}
		if len(rels) > 0 && !slices.Contains(rels, s.ref.Rel) {
			continue
		}
		b.WriteString(e.src[last:s.start])
		b.WriteString(Ref{Field: newName, Rel: s.ref.Rel}.String())
		last = s.end
	}
	b.WriteString(e.src[last:])
	return b.String()
}

type exprParser struct {
	input string
	pos   int
	spans []refSpan
}

func (p *exprParser) errorf(format string, args ...any) error {
	return &SyntaxError{Source: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *exprParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) peekStr(n int) string {
	p.skipSpaces()
	end := p.pos + n
	if end > len(p.input) {
		end = len(p.input)
	}
	return p.input[p.pos:end]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// peekWord returns the identifier at the cursor without consuming it.
func (p *exprParser) peekWord() string {
	p.skipSpaces()
	end := p.pos
	for end < len(p.input) && isIdentChar(p.input[end]) {
		end++
	}
	if end == p.pos || !isIdentStart(p.input[p.pos]) {
		return ""
	}
	return p.input[p.pos:end]
}

func (p *exprParser) acceptWord(word string) bool {
	if p.peekWord() == word {
		p.pos += len(word)
		return true
	}
	return false
}

func (p *exprParser) parseTernary() (node, error) {
	val, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.acceptWord("if") {
		return val, nil
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.acceptWord("else") {
		return nil, p.errorf("expected 'else' in conditional")
	}
	other, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &condNode{cond: cond, then: val, other: other}, nil
}

func (p *exprParser) parseOr() (node, error) {
	val, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptWord("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		val = &logicNode{and: false, left: val, right: right}
	}
	return val, nil
}

func (p *exprParser) parseAnd() (node, error) {
	val, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptWord("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		val = &logicNode{and: true, left: val, right: right}
	}
	return val, nil
}

func (p *exprParser) parseNot() (node, error) {
	if p.acceptWord("not") {
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{x: x}, nil
	}
	return p.parseComparison()
}

var comparisonOps = []string{"==", "!=", "<=", ">=", "<", ">"}

func (p *exprParser) comparisonOp() string {
	for _, op := range comparisonOps {
		if p.peekStr(len(op)) == op {
			p.pos += len(op)
			return op
		}
	}
	return ""
}

func (p *exprParser) parseComparison() (node, error) {
	first, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	cmp := &compareNode{first: first}
	for {
		op := p.comparisonOp()
		if op == "" {
			break
		}
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		cmp.ops = append(cmp.ops, op)
		cmp.rest = append(cmp.rest, right)
	}
	if len(cmp.ops) == 0 {
		return first, nil
	}
	return cmp, nil
}

func (p *exprParser) parseAddSub() (node, error) {
	val, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c != '+' && c != '-' {
			break
		}
		p.pos++
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		val = &binaryNode{op: string(c), left: val, right: right}
	}
	return val, nil
}

func (p *exprParser) parseMulDiv() (node, error) {
	val, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.peekStr(2) == "//":
			op = "//"
		case p.peekStr(2) == "**":
			return val, nil
		case p.peek() == '*', p.peek() == '/', p.peek() == '%':
			op = string(p.peek())
		default:
			return val, nil
		}
		p.pos += len(op)
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		val = &binaryNode{op: op, left: val, right: right}
	}
}

func (p *exprParser) parseUnary() (node, error) {
	c := p.peek()
	if c == '-' || c == '+' {
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if c == '+' {
			return &unaryNode{op: "+", x: x}, nil
		}
		return &unaryNode{op: "-", x: x}, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peekStr(2) != "**" {
		return base, nil
	}
	p.pos += 2
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: "**", left: base, right: exp}, nil
}

func (p *exprParser) parsePrimary() (node, error) {
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errorf("unexpected end of equation")
	case c == '(':
		p.pos++
		val, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.errorf("expected ')'")
		}
		p.pos++
		return val, nil
	case c == '{':
		return p.parseRef()
	case c == '"' || c == '\'':
		return p.parseString(c)
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseName()
	}
	return nil, p.errorf("unexpected %q", string(c))
}

func (p *exprParser) parseRef() (node, error) {
	start := p.pos
	if !strings.HasPrefix(p.input[p.pos:], "{*") {
		return nil, p.errorf("expected field reference")
	}
	p.pos += 2
	rel := RelSelf
	if p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '*':
			rel = RelParent
		case '$':
			rel = RelRoot
		case '&':
			rel = RelChildren
		case '#':
			rel = RelChildCount
		}
		if rel != RelSelf {
			p.pos++
		}
	}
	end := strings.Index(p.input[p.pos:], "*}")
	if end < 0 {
		p.pos = start
		return nil, p.errorf("unterminated field reference")
	}
	name := p.input[p.pos : p.pos+end]
	if name == "" || strings.ContainsAny(name, "{}") || strings.HasPrefix(name, "*") {
		p.pos = start
		return nil, p.errorf("invalid field reference %q", p.input[start:p.pos+end+2])
	}
	p.pos += end + 2
	ref := Ref{Field: name, Rel: rel}
	p.spans = append(p.spans, refSpan{start: start, end: p.pos, ref: ref})
	return &refNode{ref: ref}, nil
}

func (p *exprParser) parseString(quote byte) (node, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == quote:
			p.pos++
			return &constNode{v: TextValue(b.String())}, nil
		case c == '\\' && p.pos+1 < len(p.input):
			p.pos++
			switch esc := p.input[p.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
		}
		p.pos++
	}
	p.pos = start
	return nil, p.errorf("unterminated string")
}

func (p *exprParser) parseNumber() (node, error) {
	start := p.pos
	digits := func() {
		for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
		}
	}
	digits()
	if p.pos < len(p.input) && p.input[p.pos] == '.' {
		p.pos++
		digits()
	}
	if p.pos < len(p.input) && (p.input[p.pos] == 'e' || p.input[p.pos] == 'E') {
		save := p.pos
		p.pos++
		if p.pos < len(p.input) && (p.input[p.pos] == '+' || p.input[p.pos] == '-') {
			p.pos++
		}
		mark := p.pos
		digits()
		if p.pos == mark {
			p.pos = save
		}
	}
	numStr := p.input[start:p.pos]
	val, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", numStr)
	}
	if p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		return nil, p.errorf("invalid number %q", p.input[start:p.pos+1])
	}
	return &constNode{v: NumberValue(val)}, nil
}

var constants = map[string]Value{
	"true":  BoolValue(true),
	"false": BoolValue(false),
	"True":  BoolValue(true),
	"False": BoolValue(false),
	"pi":    NumberValue(math.Pi),
	"e":     NumberValue(math.E),
}

var keywords = map[string]bool{"if": true, "else": true, "and": true, "or": true, "not": true}

func (p *exprParser) parseName() (node, error) {
	start := p.pos
	name := p.peekWord()
	if keywords[name] {
		return nil, p.errorf("unexpected %q", name)
	}
	p.pos += len(name)
	if p.peek() != '(' {
		if v, ok := constants[name]; ok {
			return &constNode{v: v}, nil
		}
		p.pos = start
		return nil, p.errorf("unknown name %q", name)
	}
	fn, ok := functions[name]
	if !ok {
		p.pos = start
		return nil, p.errorf("unknown function %q", name)
	}
	p.pos++
	var args []node
	if p.peek() == ')' {
		p.pos++
	} else {
		for {
			arg, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek() == ',' {
				p.pos++
				continue
			}
			if p.peek() != ')' {
				return nil, p.errorf("expected ',' or ')' in call to %s", name)
			}
			p.pos++
			break
		}
	}
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		p.pos = start
		return nil, p.errorf("%s takes %s", name, fn.arity())
	}
	return &callNode{name: name, fn: fn, args: args}, nil
}
