// Package parser implements the JCR text parser of spec §4.1: a
// hand-written, single-pass, character-driven scanner that consumes JCR
// source text and emits a rule.Ruleset.
//
// Unlike value's flat transition-table PDA, this scanner is organized as
// a set of mutually recursive descent functions — the grammar's
// context-sensitive bits (numeric-vs-range-vs-repetition disambiguation,
// named-decl-vs-bare-ref at the top level) need more than one lexical
// state per character to resolve cleanly, so each production gets its own
// function operating on a shared cursor. Lookahead is read-only (peeking
// never un-commits an already-emitted rule), which keeps the "no
// backtracking" contract of §4.1 in spirit: a rune is consumed by at most
// one production.
package parser

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/jcrschema/jcr/jcrerr"
	"github.com/jcrschema/jcr/rule"
)

// DefaultMaxDepth bounds object/array/group nesting when no explicit
// limit is configured (spec §4.1 contract 7).
const DefaultMaxDepth = 1000

type scanner struct {
	src        []rune
	pos        int
	line, col  int
	maxDepth   int
	depth      int
	handler    jcrerr.ErrorHandler
	rs         *rule.Ruleset
}

// Parse compiles text into a Ruleset using jcrerr.DefaultHandler, which
// aborts on the first error (spec §7).
func Parse(text string) (*rule.Ruleset, error) {
	return ParseWithHandler(text, jcrerr.DefaultHandler{})
}

// ParseWithHandler compiles text into a Ruleset, routing every diagnostic
// through h.
func ParseWithHandler(text string, h jcrerr.ErrorHandler) (*rule.Ruleset, error) {
	return ParseWithOptions(text, h, DefaultMaxDepth)
}

// ParseWithOptions additionally lets the caller configure the maximum
// nesting depth (spec §4.1 contract 7).
func ParseWithOptions(text string, h jcrerr.ErrorHandler, maxDepth int) (*rule.Ruleset, error) {
	s := &scanner{
		src:      []rune(text),
		line:     1,
		col:      1,
		maxDepth: maxDepth,
		handler:  h,
		rs:       rule.NewRuleset(),
	}
	if err := s.parseRuleset(); err != nil {
		return nil, err
	}
	return s.rs, nil
}

// --- low-level cursor ---

func (s *scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() (rune, bool) {
	if s.atEnd() {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *scanner) peekAt(offset int) (rune, bool) {
	i := s.pos + offset
	if i < 0 || i >= len(s.src) {
		return 0, false
	}
	return s.src[i], true
}

func (s *scanner) advance() rune {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

// skipTrivia consumes whitespace and `;`-to-end-of-line comments, which
// are permitted between any two syntactic units (spec §4.1's lexical
// surface).
func (s *scanner) skipTrivia() {
	for {
		c, ok := s.peek()
		if !ok {
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.advance()
		case c == ';':
			for {
				c, ok := s.peek()
				if !ok || c == '\n' {
					break
				}
				s.advance()
			}
		default:
			return
		}
	}
}

// peekSignificant reports the next non-trivia rune without consuming
// anything, used to tell a named_decl from a bare reference at the top
// level and to disambiguate a repetition prefix from a bare numeric
// value_rule (spec §4.1 contract 2 vs contract 4).
func (s *scanner) peekSignificant() (rune, bool) {
	save := s.pos
	saveLine, saveCol := s.line, s.col
	s.skipTrivia()
	c, ok := s.peek()
	s.pos, s.line, s.col = save, saveLine, saveCol
	return c, ok
}

func (s *scanner) fatal(k jcrerr.Kind) error {
	return s.handler.Fatal(k, s.line, s.col)
}

// recoverable reports a non-fatal diagnostic; if the handler declines to
// recover, it is escalated to Fatal.
func (s *scanner) recoverable(k jcrerr.Kind) error {
	if s.handler.Error(k, s.line, s.col) {
		return nil
	}
	return s.fatal(k)
}

func isIdentStart(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

// isRuleBodyStart reports whether c can begin a rule_body, a member name,
// or a bare identifier reference — used both at the top level (named_decl
// vs bare rule_decl) and to resolve the repetition-prefix ambiguity for
// array elements.
func isRuleBodyStart(c rune) bool {
	switch c {
	case '{', '[', '(', '"', '/', '?', '.', '-':
		return true
	}
	return isIdentStart(c) || isDigit(c)
}

func (s *scanner) readIdent() string {
	start := s.pos
	for {
		c, ok := s.peek()
		if !ok || !isIdentCont(c) {
			break
		}
		s.advance()
	}
	return string(s.src[start:s.pos])
}

// --- top level ---

func (s *scanner) parseRuleset() error {
	for {
		s.skipTrivia()
		if s.atEnd() {
			return nil
		}
		c, _ := s.peek()
		if isIdentStart(c) {
			name := s.readIdent()
			next, ok := s.peekSignificant()
			if ok && next == ':' {
				// name ':' rule_body — binds name directly to an
				// arbitrary rule_body (used for helper rules like
				// `v1 : 0..3` that aren't themselves object members).
				s.skipTrivia()
				s.advance() // ':'
				s.skipTrivia()
				body, err := s.parseRuleBody()
				if err != nil {
					return err
				}
				s.rs.AddNamedRule(name, body)
				continue
			}
			if ok && isRuleBodyStart(next) {
				body, err := s.parseMemberOrPlainRuleBody()
				if err != nil {
					return err
				}
				s.rs.AddNamedRule(name, body)
				continue
			}
			// A bare identifier with nothing rule_body-like following it
			// is itself a standalone rule_decl: a reference. Per
			// SPEC_FULL's supplemented multi-root behavior, the last
			// unnamed top-level rule_decl wins as root.
			s.rs.SetRoot(rule.RuleRef{Name: name})
			continue
		}
		body, err := s.parseRuleBody()
		if err != nil {
			return err
		}
		s.rs.SetRoot(body)
	}
}

// --- members / rule bodies ---

// parseMemberOrPlainRuleBody handles a named_decl's body, which may be a
// bare member form (quoted_name|regex ':' rule_body, used to define a
// reusable named member-rule) or any ordinary rule_body.
func (s *scanner) parseMemberOrPlainRuleBody() (rule.Rule, error) {
	s.skipTrivia()
	c, _ := s.peek()
	if c == '"' || c == '/' {
		return s.parseNamedMemberBody(1, 1, false)
	}
	return s.parseRuleBody()
}

// parseMember parses one member of an object_rule, including its leading
// repetition prefix and optional marker.
func (s *scanner) parseMember() (rule.Rule, error) {
	min, max, hasRep := 1, 1, false
	c, _ := s.peek()
	if c == '*' || isDigit(c) {
		lo, hi, err := s.parseRep()
		if err != nil {
			return nil, err
		}
		min, max, hasRep = lo, hi, true
	}

	optional := false
	s.skipTrivia()
	if c, ok := s.peek(); ok && c == '?' {
		s.advance()
		optional = true
	}

	s.skipTrivia()
	c, ok := s.peek()
	if !ok {
		return nil, s.fatal(jcrerr.UnexpectedEof)
	}
	if c == '"' || c == '/' {
		m, err := s.parseNamedMemberBody(min, max, c == '/')
		if err != nil {
			return nil, err
		}
		if optional {
			return rule.Optional{Inner: m}, nil
		}
		return m, nil
	}
	if isIdentStart(c) {
		name := s.readIdent()
		var r rule.Rule = rule.RuleRef{Name: name}
		if hasRep {
			r = rule.RepeatedMemberRef{Name: name, MinRep: min, MaxRep: max}
		}
		if optional {
			r = rule.Optional{Inner: r}
		}
		return r, nil
	}
	return nil, s.fatal(jcrerr.ExpectedName)
}

// parseNamedMemberBody parses `("name"|/regex/) ':' rule_body` into a
// QStringMember or RegexMember with the given repetition bounds.
func (s *scanner) parseNamedMemberBody(min, max int, forceRegex bool) (rule.Rule, error) {
	c, _ := s.peek()
	isRegex := forceRegex || c == '/'
	var name string
	var err error
	if c == '"' {
		name, err = s.parseQuotedString()
	} else {
		name, err = s.parseRegexBody()
	}
	if err != nil {
		return nil, err
	}
	s.skipTrivia()
	if colon, ok := s.peek(); !ok || colon != ':' {
		return nil, s.fatal(jcrerr.ExpectedColon)
	}
	s.advance()
	s.skipTrivia()
	inner, err := s.parseRuleBody()
	if err != nil {
		return nil, err
	}
	if isRegex {
		return &rule.RegexMember{Pattern: name, MinRep: min, MaxRep: max, Inner: inner}, nil
	}
	return &rule.QStringMember{Name: name, MinRep: min, MaxRep: max, Inner: inner}, nil
}

// parseElement parses one element of an array_rule, resolving the
// repetition-prefix ambiguity described at the top of this file.
func (s *scanner) parseElement() (rule.Rule, error) {
	c, _ := s.peek()
	if c == '*' {
		min, max, err := s.parseRep()
		if err != nil {
			return nil, err
		}
		s.skipTrivia()
		inner, err := s.parseRuleBody()
		if err != nil {
			return nil, err
		}
		return &rule.RepeatArrayItem{Min: min, Max: max, Inner: inner}, nil
	}
	if isDigit(c) {
		n, hitStar, err := s.scanLeadingUint()
		if err != nil {
			return nil, err
		}
		if hitStar {
			max := n
			if d, ok := s.peek(); ok && isDigit(d) {
				m, err := s.scanUint()
				if err != nil {
					return nil, err
				}
				max = m
			} else {
				max = rule.Unbounded
			}
			s.skipTrivia()
			inner, err := s.parseRuleBody()
			if err != nil {
				return nil, err
			}
			return &rule.RepeatArrayItem{Min: n, Max: max, Inner: inner}, nil
		}
		// Not immediately followed by '*'. Decide, by one token of
		// read-only lookahead, whether the digit run just scanned is a
		// bare repetition count (n rule_body) or a standalone numeric
		// value_rule/range (contract 2 vs contract 4).
		next, ok := s.peekSignificant()
		if ok && isRuleBodyStart(next) && next != '.' {
			s.skipTrivia()
			inner, err := s.parseRuleBody()
			if err != nil {
				return nil, err
			}
			return &rule.RepeatArrayItem{Min: n, Max: n, Inner: inner}, nil
		}
		return s.parseNumericRuleBodyContinuation(strconv.Itoa(n), false)
	}
	return s.parseRuleBody()
}

// parseRep parses a `rep` production already known to start at the
// cursor: `*`, `n`, `n*`, `n*m`, or `*n`.
func (s *scanner) parseRep() (min, max int, err error) {
	c, _ := s.peek()
	if c == '*' {
		s.advance()
		if d, ok := s.peek(); ok && isDigit(d) {
			n, err := s.scanUint()
			if err != nil {
				return 0, 0, err
			}
			return 0, n, nil
		}
		return 0, rule.Unbounded, nil
	}
	n, hitStar, err := s.scanLeadingUint()
	if err != nil {
		return 0, 0, err
	}
	if !hitStar {
		return n, n, nil
	}
	if d, ok := s.peek(); ok && isDigit(d) {
		m, err := s.scanUint()
		if err != nil {
			return 0, 0, err
		}
		return n, m, nil
	}
	return n, rule.Unbounded, nil
}

// --- containers ---

func (s *scanner) pushDepth() error {
	s.depth++
	if s.depth > s.maxDepth {
		return s.fatal(jcrerr.MaxDepthExceeded)
	}
	return nil
}

func (s *scanner) popDepth() { s.depth-- }

func (s *scanner) parseObjectRule() (rule.Rule, error) {
	s.advance() // '{'
	if err := s.pushDepth(); err != nil {
		return nil, err
	}
	defer s.popDepth()

	s.skipTrivia()
	if c, ok := s.peek(); ok && c == '}' {
		s.advance()
		return &rule.Object{Sequence: true}, nil
	}

	var children []rule.Rule
	sequence := true
	for {
		s.skipTrivia()
		m, err := s.parseMember()
		if err != nil {
			return nil, err
		}
		children = append(children, m)
		s.skipTrivia()
		c, ok := s.peek()
		if !ok {
			return nil, s.fatal(jcrerr.UnexpectedEof)
		}
		switch c {
		case ',':
			s.advance()
			sequence = true
		case '|':
			s.advance()
			sequence = false
		case '}':
			s.advance()
			return &rule.Object{Sequence: sequence, Children: children}, nil
		default:
			return nil, s.fatal(jcrerr.ExpectedCommaOrRightBrace)
		}
	}
}

func (s *scanner) parseArrayRule() (rule.Rule, error) {
	s.advance() // '['
	if err := s.pushDepth(); err != nil {
		return nil, err
	}
	defer s.popDepth()

	s.skipTrivia()
	if c, ok := s.peek(); ok && c == ']' {
		s.advance()
		return &rule.Array{Sequence: true}, nil
	}

	var elements []rule.Rule
	sequence := true
	for {
		s.skipTrivia()
		e, err := s.parseElement()
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
		s.skipTrivia()
		c, ok := s.peek()
		if !ok {
			return nil, s.fatal(jcrerr.UnexpectedEof)
		}
		switch c {
		case ',':
			s.advance()
			sequence = true
		case '|':
			s.advance()
			sequence = false
		case ']':
			s.advance()
			return &rule.Array{Sequence: sequence, Elements: elements}, nil
		default:
			return nil, s.fatal(jcrerr.ExpectedCommaOrRightBracket)
		}
	}
}

func (s *scanner) parseGroupRule() (rule.Rule, error) {
	s.advance() // '('
	if err := s.pushDepth(); err != nil {
		return nil, err
	}
	defer s.popDepth()

	s.skipTrivia()
	if c, ok := s.peek(); ok && c == ')' {
		s.advance()
		return &rule.Group{Sequence: true}, nil
	}

	var elements []rule.Rule
	sequence := true
	for {
		s.skipTrivia()
		r, err := s.parseRuleBody()
		if err != nil {
			return nil, err
		}
		elements = append(elements, r)
		s.skipTrivia()
		c, ok := s.peek()
		if !ok {
			return nil, s.fatal(jcrerr.UnexpectedEof)
		}
		switch c {
		case ',':
			s.advance()
			sequence = true
		case '|':
			s.advance()
			sequence = false
		case ')':
			s.advance()
			return &rule.Group{Sequence: sequence, Elements: elements}, nil
		default:
			return nil, s.fatal(jcrerr.InvalidJcrText)
		}
	}
}

// --- rule_body dispatch ---

func (s *scanner) parseRuleBody() (rule.Rule, error) {
	s.skipTrivia()
	c, ok := s.peek()
	if !ok {
		return nil, s.fatal(jcrerr.UnexpectedEof)
	}
	switch {
	case c == '{':
		return s.parseObjectRule()
	case c == '[':
		return s.parseArrayRule()
	case c == '(':
		return s.parseGroupRule()
	case c == '"':
		str, err := s.parseQuotedString()
		if err != nil {
			return nil, err
		}
		return rule.StringLiteral{Value: str}, nil
	case c == '/':
		pattern, err := s.parseRegexBody()
		if err != nil {
			return nil, err
		}
		return &rule.StringPattern{Pattern: pattern}, nil
	case c == '.':
		return s.parseRangeNoLowerBound()
	case c == '-' || isDigit(c):
		return s.parseNumericRuleBody()
	case isIdentStart(c):
		ident := s.readIdent()
		switch ident {
		case "true":
			return rule.ValueLiteral{Value: true}, nil
		case "false":
			return rule.ValueLiteral{Value: false}, nil
		case "null":
			return rule.Null{}, nil
		default:
			return rule.RuleRef{Name: ident}, nil
		}
	default:
		return nil, s.fatal(jcrerr.ExpectedRuleOrValue)
	}
}

// --- numeric / range ---

// scanUint reads a run of ASCII digits as an unsigned int, rejecting a
// leading zero followed by further digits (spec's LeadingZero error).
func (s *scanner) scanUint() (int, error) {
	n, _, err := s.scanLeadingUint()
	return n, err
}

// scanLeadingUint reads a digit run and reports whether it was
// immediately followed by '*', consuming the '*' when it was.
func (s *scanner) scanLeadingUint() (n int, hitStar bool, err error) {
	start := s.pos
	for {
		c, ok := s.peek()
		if !ok || !isDigit(c) {
			break
		}
		s.advance()
	}
	digits := string(s.src[start:s.pos])
	if len(digits) == 0 {
		return 0, false, s.fatal(jcrerr.InvalidNumber)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, false, s.fatal(jcrerr.LeadingZero)
	}
	v, convErr := strconv.Atoi(digits)
	if convErr != nil {
		return 0, false, s.fatal(jcrerr.InvalidNumber)
	}
	if c, ok := s.peek(); ok && c == '*' {
		s.advance()
		return v, true, nil
	}
	return v, false, nil
}

// parseNumericRuleBody parses a value_rule or range starting at a sign or
// digit (spec §4.1 contract 4).
func (s *scanner) parseNumericRuleBody() (rule.Rule, error) {
	start := s.pos
	if c, _ := s.peek(); c == '-' {
		s.advance()
	}
	digitsStart := s.pos
	for {
		c, ok := s.peek()
		if !ok || !isDigit(c) {
			break
		}
		s.advance()
	}
	digits := string(s.src[digitsStart:s.pos])
	if len(digits) == 0 {
		return nil, s.fatal(jcrerr.InvalidNumber)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return nil, s.fatal(jcrerr.LeadingZero)
	}
	intPart := string(s.src[start:s.pos])
	return s.parseNumericRuleBodyContinuation(intPart, false)
}

// parseNumericRuleBodyContinuation resumes numeric parsing once the
// leading (possibly signed) integer run has already been scanned into
// intPart — used both directly and after an array element's repetition
// lookahead determines the digits were not a repetition count.
func (s *scanner) parseNumericRuleBodyContinuation(intPart string, _ bool) (rule.Rule, error) {
	c, ok := s.peek()
	if ok && c == '.' {
		if next, ok2 := s.peekAt(1); ok2 && next == '.' {
			s.advance()
			s.advance()
			lowF, err := strconv.ParseFloat(intPart, 64)
			if err != nil {
				return nil, s.fatal(jcrerr.InvalidNumber)
			}
			from := rule.From{Low: lowF}
			if d, ok := s.peek(); ok && (isDigit(d) || d == '-') {
				hiF, err := s.scanSignedNumber()
				if err != nil {
					return nil, err
				}
				return rule.Composite{A: from, B: rule.To{High: hiF}}, nil
			}
			return from, nil
		}
		s.advance() // consume '.'
		fracStart := s.pos
		for {
			c, ok := s.peek()
			if !ok || !isDigit(c) {
				break
			}
			s.advance()
		}
		frac := string(s.src[fracStart:s.pos])
		if len(frac) == 0 {
			return nil, s.fatal(jcrerr.InvalidNumber)
		}
		floatStr := intPart + "." + frac
		if e, ok := s.peek(); ok && (e == 'e' || e == 'E') {
			exp, err := s.scanExponent()
			if err != nil {
				return nil, err
			}
			floatStr += exp
		}
		f, err := strconv.ParseFloat(floatStr, 64)
		if err != nil {
			return nil, s.fatal(jcrerr.InvalidNumber)
		}
		return rule.ValueLiteral{Value: f}, nil
	}
	if ok && (c == 'e' || c == 'E') {
		exp, err := s.scanExponent()
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(intPart+exp, 64)
		if err != nil {
			return nil, s.fatal(jcrerr.InvalidNumber)
		}
		return rule.ValueLiteral{Value: f}, nil
	}
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		return rule.ValueLiteral{Value: n}, nil
	}
	if u, err := strconv.ParseUint(intPart, 10, 64); err == nil {
		return rule.ValueLiteral{Value: u}, nil
	}
	return nil, s.fatal(jcrerr.InvalidNumber)
}

// parseRangeNoLowerBound parses the `'..' int` range form (spec grammar's
// `range`), reached when a rule_body starts with '.'.
func (s *scanner) parseRangeNoLowerBound() (rule.Rule, error) {
	s.advance() // first '.'
	if c, ok := s.peek(); !ok || c != '.' {
		return nil, s.fatal(jcrerr.InvalidNumber)
	}
	s.advance() // second '.'
	hiF, err := s.scanSignedNumber()
	if err != nil {
		return nil, err
	}
	return rule.To{High: hiF}, nil
}

func (s *scanner) scanSignedNumber() (float64, error) {
	start := s.pos
	if c, _ := s.peek(); c == '-' {
		s.advance()
	}
	digitsStart := s.pos
	for {
		c, ok := s.peek()
		if !ok || !isDigit(c) {
			break
		}
		s.advance()
	}
	if s.pos == digitsStart {
		return 0, s.fatal(jcrerr.InvalidNumber)
	}
	numStr := string(s.src[start:s.pos])
	if c, ok := s.peek(); ok && c == '.' {
		if next, ok2 := s.peekAt(1); ok2 && isDigit(next) {
			s.advance()
			fracStart := s.pos
			for {
				c, ok := s.peek()
				if !ok || !isDigit(c) {
					break
				}
				s.advance()
			}
			numStr = numStr + "." + string(s.src[fracStart:s.pos])
		}
	}
	if e, ok := s.peek(); ok && (e == 'e' || e == 'E') {
		exp, err := s.scanExponent()
		if err != nil {
			return 0, err
		}
		numStr += exp
	}
	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, s.fatal(jcrerr.InvalidNumber)
	}
	return f, nil
}

func (s *scanner) scanExponent() (string, error) {
	start := s.pos
	s.advance() // e/E
	if c, ok := s.peek(); ok && (c == '+' || c == '-') {
		s.advance()
	}
	digitsStart := s.pos
	for {
		c, ok := s.peek()
		if !ok || !isDigit(c) {
			break
		}
		s.advance()
	}
	if s.pos == digitsStart {
		return "", s.fatal(jcrerr.InvalidNumber)
	}
	return string(s.src[start:s.pos]), nil
}

// --- strings / regex ---

// parseQuotedString parses a JSON string literal, honoring the standard
// escape set (spec §4.1 contract 5). A bare single quote is rejected
// immediately (SingleQuote); control characters and bare \t\r\n inside
// the literal are recoverable (kept verbatim, parsing continues).
func (s *scanner) parseQuotedString() (string, error) {
	if c, _ := s.peek(); c == '\'' {
		return "", s.fatal(jcrerr.SingleQuote)
	}
	s.advance() // opening '"'
	var b strings.Builder
	for {
		c, ok := s.peek()
		if !ok {
			return "", s.fatal(jcrerr.UnexpectedEof)
		}
		if c == '"' {
			s.advance()
			return b.String(), nil
		}
		if c == '\\' {
			s.advance()
			esc, err := s.parseEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(esc)
			continue
		}
		if c < 0x20 {
			if err := s.recoverable(jcrerr.IllegalControlCharacter); err != nil {
				return "", err
			}
		}
		b.WriteRune(c)
		s.advance()
	}
}

// parseRegexBody parses a `/…/` regex literal body (the pattern text, not
// the delimiters), honoring the same escape set as string literals except
// that `\/` unescapes to `/` and any other backslash sequence is passed
// through to the regex engine verbatim (ECMAScript escapes like `\d`,
// `\w` are regex syntax, not JSON escapes).
func (s *scanner) parseRegexBody() (string, error) {
	s.advance() // opening '/'
	var b strings.Builder
	for {
		c, ok := s.peek()
		if !ok {
			return "", s.fatal(jcrerr.UnexpectedEof)
		}
		if c == '/' {
			s.advance()
			return b.String(), nil
		}
		if c == '\\' {
			s.advance()
			next, ok := s.peek()
			if !ok {
				return "", s.fatal(jcrerr.UnexpectedEof)
			}
			if next == '/' {
				b.WriteRune('/')
				s.advance()
				continue
			}
			b.WriteRune('\\')
			b.WriteRune(next)
			s.advance()
			continue
		}
		b.WriteRune(c)
		s.advance()
	}
}

func (s *scanner) parseEscape() (rune, error) {
	c, ok := s.peek()
	if !ok {
		return 0, s.fatal(jcrerr.UnexpectedEof)
	}
	switch c {
	case '"':
		s.advance()
		return '"', nil
	case '\\':
		s.advance()
		return '\\', nil
	case '/':
		s.advance()
		return '/', nil
	case 'b':
		s.advance()
		return '\b', nil
	case 'f':
		s.advance()
		return '\f', nil
	case 'n':
		s.advance()
		return '\n', nil
	case 'r':
		s.advance()
		return '\r', nil
	case 't':
		s.advance()
		return '\t', nil
	case 'u':
		s.advance()
		return s.parseUnicodeEscape()
	default:
		if err := s.recoverable(jcrerr.IllegalEscapedCharacter); err != nil {
			return 0, err
		}
		s.advance()
		return c, nil
	}
}

func (s *scanner) parseUnicodeEscape() (rune, error) {
	r1, err := s.readHex4()
	if err != nil {
		return 0, err
	}
	if utf16.IsSurrogate(rune(r1)) {
		if c, ok := s.peek(); !ok || c != '\\' {
			return 0, s.fatal(jcrerr.ExpectedCodepointSurrogatePair)
		}
		s.advance()
		if c, ok := s.peek(); !ok || c != 'u' {
			return 0, s.fatal(jcrerr.ExpectedCodepointSurrogatePair)
		}
		s.advance()
		r2, err := s.readHex4()
		if err != nil {
			return 0, err
		}
		combined := utf16.DecodeRune(rune(r1), rune(r2))
		if combined == utf8.RuneError {
			return 0, s.fatal(jcrerr.InvalidUnicodeEscapeSequence)
		}
		return combined, nil
	}
	return rune(r1), nil
}

func (s *scanner) readHex4() (int, error) {
	start := s.pos
	for i := 0; i < 4; i++ {
		c, ok := s.peek()
		if !ok {
			return 0, s.fatal(jcrerr.InvalidUnicodeEscapeSequence)
		}
		if !isHexDigit(c) {
			return 0, s.fatal(jcrerr.InvalidHexEscapeSequence)
		}
		s.advance()
	}
	v, err := strconv.ParseInt(string(s.src[start:s.pos]), 16, 32)
	if err != nil {
		return 0, s.fatal(jcrerr.InvalidUnicodeEscapeSequence)
	}
	return int(v), nil
}

func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
