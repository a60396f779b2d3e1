// Package rule implements the JCR rule model: the tagged Rule variants of
// spec §3, the Ruleset that owns a root rule and a named-rule table, and
// the polymorphic evaluator of spec §4.2. A Ruleset is immutable once
// parsing completes and is safe for concurrent Validate calls.
package rule

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/jcrschema/jcr/value"
)

// Status is the four-valued evaluation outcome every rule produces.
type Status int8

const (
	Fail Status = iota
	Pass
	MayRepeat
	MustRepeat
)

// Passes collapses the lattice to the boolean callers ultimately observe:
// pass and may_repeat both count as satisfied.
func (s Status) Passes() bool { return s == Pass || s == MayRepeat }

func (s Status) String() string {
	switch s {
	case Fail:
		return "fail"
	case Pass:
		return "pass"
	case MayRepeat:
		return "may_repeat"
	case MustRepeat:
		return "must_repeat"
	}
	return "unknown"
}

// Unbounded marks a RepeatArrayItem/member-rule max_rep of infinity (`*`
// with no upper bound).
const Unbounded = math.MaxInt32

// Rule is the shared interface of every variant in spec §3. Evaluate
// dispatches on the concrete variant; index is only meaningful to
// RepeatArrayItem (and to Group, via the enclosing Array/Object walk).
type Rule interface {
	Evaluate(v *value.Value, optional bool, names *NameTable, index int) Status
	String() string
}

// NameTable resolves RuleRef targets: the builtins (integer, string,
// float, boolean, null, true, false, uri) plus every user `name rule_body`
// binding. Redefinition replaces, matching spec §3's Ruleset invariant.
type NameTable struct {
	mu    sync.RWMutex
	named map[string]Rule
}

// NewNameTable returns an empty table; builtins resolve even before any
// Add call, since they are not stored in the user map.
func NewNameTable() *NameTable {
	return &NameTable{named: make(map[string]Rule)}
}

// Add binds name to r, replacing any previous binding for name.
func (nt *NameTable) Add(name string, r Rule) {
	nt.mu.Lock()
	defer nt.mu.Unlock()
	nt.named[name] = r
}

// Lookup resolves name, trying user-defined bindings first, then builtins.
func (nt *NameTable) Lookup(name string) (Rule, bool) {
	nt.mu.RLock()
	r, ok := nt.named[name]
	nt.mu.RUnlock()
	if ok {
		return r, true
	}
	r, ok = builtins[name]
	return r, ok
}

var builtins = map[string]Rule{
	"integer": AnyInteger{},
	"string":  AnyString{},
	"float":   AnyFloat{},
	"boolean": AnyBoolean{},
	"null":    Null{},
	"uri":     Uri{},
	"true":    ValueLiteral{Value: true},
	"false":   ValueLiteral{Value: false},
}

// Ruleset is the complete compiled schema produced by the parser: a root
// rule plus the named-rule dictionary every RuleRef resolves against.
type Ruleset struct {
	Root  Rule
	Names *NameTable
}

// NewRuleset returns an empty, ready-to-populate Ruleset.
func NewRuleset() *Ruleset {
	return &Ruleset{Names: NewNameTable()}
}

// AddNamedRule binds name to r in rs's name table, used by the parser as
// each `name rule_body` declaration closes.
func (rs *Ruleset) AddNamedRule(name string, r Rule) { rs.Names.Add(name, r) }

// SetRoot installs rs's top-level rule, used by the parser once the final
// top-level rule_decl closes.
func (rs *Ruleset) SetRoot(r Rule) { rs.Root = r }

// Validate reports whether v satisfies rs. A nil Root (an empty ruleset)
// never validates anything.
func (rs *Ruleset) Validate(v *value.Value) bool {
	if rs.Root == nil {
		return false
	}
	return rs.Root.Evaluate(v, false, rs.Names, 0).Passes()
}

// evalChildren implements the composite semantics shared by Object and
// Group (Array applies them per element in its own loop): sequence (',') aborts on the
// first fail and otherwise returns the last status; alternation ('|')
// returns on the first pass and otherwise returns the last status. Per
// spec §9 open question #2, a mix of ',' and '|' inside one container is
// not rejected; whichever separator preceded the last child wins for the
// whole container, exactly as parsed.
func evalChildren(v *value.Value, optional bool, names *NameTable, index int, children []Rule, sequence bool) Status {
	last := Pass
	for _, c := range children {
		st := c.Evaluate(v, optional, names, index)
		if sequence {
			if st == Fail {
				return Fail
			}
			last = st
			continue
		}
		if st == Pass {
			return Pass
		}
		last = st
	}
	return last
}

// --- Leaf type-predicate variants ---

type AnyBoolean struct{}

func (AnyBoolean) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	return statusOf(v.IsBoolean())
}
func (AnyBoolean) String() string { return "boolean" }

type AnyInteger struct{}

func (AnyInteger) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	return statusOf(v.IsInteger())
}
func (AnyInteger) String() string { return "integer" }

type AnyFloat struct{}

func (AnyFloat) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	return statusOf(v.IsFloat())
}
func (AnyFloat) String() string { return "float" }

type AnyString struct{}

func (AnyString) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	return statusOf(v.IsString())
}
func (AnyString) String() string { return "string" }

// Null matches the JSON literal null (spec §3's "Null" variant; named
// without a Rule/Lit suffix to mirror the variant table directly).
type Null struct{}

func (Null) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	return statusOf(v.IsNull())
}
func (Null) String() string { return "null" }

func statusOf(b bool) Status {
	if b {
		return Pass
	}
	return Fail
}

// --- Literal / range / conjunction variants ---

// ValueLiteral matches a single constant value of any JSON-representable
// kind (bool, int64, uint64, float64, string). The concrete Go type of
// Value determines which kind is compared against.
type ValueLiteral struct {
	Value interface{}
}

func (r ValueLiteral) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	switch lit := r.Value.(type) {
	case bool:
		b, err := v.AsBoolean()
		return statusOf(err == nil && b == lit)
	case string:
		s, err := v.AsString()
		return statusOf(err == nil && s == lit)
	case int64:
		return statusOf(v.IsNumber() && numEquals(v, float64(lit)))
	case uint64:
		return statusOf(v.IsNumber() && numEquals(v, float64(lit)))
	case float64:
		return statusOf(v.IsNumber() && numEquals(v, lit))
	}
	return Fail
}

func numEquals(v *value.Value, want float64) bool {
	got, err := v.AsFloat()
	return err == nil && got == want
}

func (r ValueLiteral) String() string { return fmt.Sprintf("%v", r.Value) }

// From matches any number >= Low (spec's "lo.." range form).
type From struct{ Low float64 }

func (r From) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	if !v.IsNumber() {
		return Fail
	}
	f, _ := v.AsFloat()
	return statusOf(f >= r.Low)
}
func (r From) String() string { return fmt.Sprintf("%v..", r.Low) }

// To matches any number <= High (spec's "..hi" range form).
type To struct{ High float64 }

func (r To) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	if !v.IsNumber() {
		return Fail
	}
	f, _ := v.AsFloat()
	return statusOf(f <= r.High)
}
func (r To) String() string { return fmt.Sprintf("..%v", r.High) }

// Composite is a logical AND of two rules (used to build "lo..hi" as
// Composite(From(lo), To(hi))).
type Composite struct{ A, B Rule }

func (r Composite) Evaluate(v *value.Value, optional bool, names *NameTable, index int) Status {
	a := r.A.Evaluate(v, optional, names, index)
	if a == Fail {
		return Fail
	}
	b := r.B.Evaluate(v, optional, names, index)
	if b == Fail {
		return Fail
	}
	if a == Pass {
		return b
	}
	return a
}
func (r Composite) String() string { return fmt.Sprintf("%s..%s", r.A, r.B) }

// --- String / regex variants ---

type StringLiteral struct{ Value string }

func (r StringLiteral) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	s, err := v.AsString()
	return statusOf(err == nil && s == r.Value)
}
func (r StringLiteral) String() string { return fmt.Sprintf("%q", r.Value) }

// StringPattern matches a string value against an ECMAScript-flavored
// regex. The standard library's regexp package is RE2-based, which is the
// documented gap (no lookaround/backreferences) — see DESIGN.md.
type StringPattern struct {
	Pattern string

	once sync.Once
	re   *regexp.Regexp
	err  error
}

func (r *StringPattern) compile() {
	r.once.Do(func() {
		r.re, r.err = regexp.Compile(r.Pattern)
	})
}

func (r *StringPattern) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	r.compile()
	if r.err != nil {
		return Fail
	}
	s, err := v.AsString()
	if err != nil {
		return Fail
	}
	return statusOf(r.re.MatchString(s))
}
func (r *StringPattern) String() string { return fmt.Sprintf("/%s/", r.Pattern) }

// --- Object members ---

// QStringMember is an object member keyed by a fixed quoted name. Absence
// of the key passes iff the enclosing optional flag is set or MinRep==0
// (spec §4.1 contract 3, §4.2).
type QStringMember struct {
	Name           string
	MinRep, MaxRep int
	Inner          Rule
}

func (r *QStringMember) Evaluate(v *value.Value, optional bool, names *NameTable, _ int) Status {
	val, ok := v.Lookup(r.Name)
	if !ok {
		if optional || r.MinRep == 0 {
			return Pass
		}
		return Fail
	}
	return r.Inner.Evaluate(val, false, names, 0)
}
func (r *QStringMember) String() string {
	return fmt.Sprintf("%q: %s", r.Name, r.Inner)
}

// RegexMember matches every object member whose key matches Pattern
// against Inner, and requires at least MinRep matching attempts to
// succeed. At most MaxRep matching members are attempted; further matches
// are not evaluated and do not cause a failure. Per spec §9 open question #3, this
// ignores the enclosing optional flag entirely — preserved as-is.
type RegexMember struct {
	Pattern        string
	MinRep, MaxRep int
	Inner          Rule

	once sync.Once
	re   *regexp.Regexp
	err  error
}

func (r *RegexMember) compile() {
	r.once.Do(func() {
		r.re, r.err = regexp.Compile(r.Pattern)
	})
}

func (r *RegexMember) Evaluate(v *value.Value, _ bool, names *NameTable, _ int) Status {
	r.compile()
	if r.err != nil {
		return Fail
	}
	members, err := v.Members()
	if err != nil || len(members) == 0 {
		return Fail
	}
	count, attempts := 0, 0
	for _, m := range members {
		if !r.re.MatchString(m.Key) {
			continue
		}
		if r.MaxRep >= 0 && attempts >= r.MaxRep {
			break
		}
		attempts++
		if r.Inner.Evaluate(m.Val, false, names, 0) != Fail {
			count++
		}
	}
	return statusOf(count >= r.MinRep)
}
func (r *RegexMember) String() string {
	return fmt.Sprintf("/%s/: %s", r.Pattern, r.Inner)
}

// Optional wraps a rule so the enclosing member evaluates with
// optional=true, letting an absent key pass regardless of MinRep.
type Optional struct{ Inner Rule }

func (r Optional) Evaluate(v *value.Value, _ bool, names *NameTable, index int) Status {
	return r.Inner.Evaluate(v, true, names, index)
}
func (r Optional) String() string { return "?" + r.Inner.String() }

// --- Containers ---

// Object evaluates its children against the object value directly: it
// does not itself check value.is_object() (per spec §4.2), so an empty
// rule_body `{}` (no children) matches any object — preserved as-is
// (spec §9 open question #1).
type Object struct {
	Sequence bool
	Children []Rule
}

func (r *Object) Evaluate(v *value.Value, optional bool, names *NameTable, index int) Status {
	return evalChildren(v, optional, names, index, r.Children, r.Sequence)
}
func (r *Object) String() string { return braced("{", r.Children, r.Sequence, "}") }

// Array requires value.size() >= len(Elements) unconditionally (spec §9
// open question #4, preserved as-is), then walks elements and array
// positions with a shared cursor `j`, letting a RepeatArrayItem element
// greedily consume consecutive array values. Sequence vs. alternation is
// decided per element, mirroring the original jsoncons array_rule::
// do_validate (a sequence element that fails aborts the whole array; an
// alternation element that passes short-circuits it) rather than being
// hardcoded to sequence semantics.
type Array struct {
	Sequence bool
	Elements []Rule
}

func (r *Array) Evaluate(v *value.Value, _ bool, names *NameTable, _ int) Status {
	if !v.IsArray() || v.Len() < len(r.Elements) {
		return Fail
	}
	n := v.Len()
	result := Pass
	for i, j := 0, 0; i < len(r.Elements) && j < n; i++ {
		subindex := 0
		for {
			result = r.Elements[i].Evaluate(v.Index(j), false, names, subindex)
			if r.Sequence && result == Fail {
				return Fail
			} else if !r.Sequence && result == Pass {
				return Pass
			}
			j++
			subindex++
			if !(result == MayRepeat || result == MustRepeat) || j >= n {
				break
			}
		}
	}
	if result == Fail || result == MustRepeat {
		return Fail
	}
	return Pass
}
func (r *Array) String() string { return braced("[", r.Elements, r.Sequence, "]") }

// Group applies composite semantics directly to the same value its
// elements would see as one enclosing slot; it carries no container type
// check of its own.
type Group struct {
	Sequence bool
	Elements []Rule
}

func (r *Group) Evaluate(v *value.Value, optional bool, names *NameTable, index int) Status {
	return evalChildren(v, optional, names, index, r.Elements, r.Sequence)
}
func (r *Group) String() string { return braced("(", r.Elements, r.Sequence, ")") }

func braced(open string, children []Rule, sequence bool, close string) string {
	sep := ", "
	if !sequence {
		sep = " | "
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return open + strings.Join(parts, sep) + close
}

// RepeatArrayItem wraps an array element rule with a repetition bound.
// index is the 0-based count of attempts already made against this
// position; the caller (Array.Evaluate) supplies it.
type RepeatArrayItem struct {
	Min, Max int
	Inner    Rule
}

func (r *RepeatArrayItem) Evaluate(v *value.Value, optional bool, names *NameTable, index int) Status {
	if r.Max >= 0 && index >= r.Max {
		return Fail
	}
	if r.Inner.Evaluate(v, optional, names, 0) == Fail {
		return Fail
	}
	if index+1 < r.Min {
		return MustRepeat
	}
	return MayRepeat
}
func (r *RepeatArrayItem) String() string {
	return fmt.Sprintf("*%d..%d%s", r.Min, r.Max, r.Inner)
}

// RuleRef is a late-bound reference to a builtin or user-named rule.
// Unresolved references fail closed (spec §3 invariant).
type RuleRef struct{ Name string }

func (r RuleRef) Evaluate(v *value.Value, optional bool, names *NameTable, index int) Status {
	target, ok := names.Lookup(r.Name)
	if !ok {
		return Fail
	}
	return target.Evaluate(v, optional, names, index)
}
func (r RuleRef) String() string { return r.Name }

// memberRule is implemented by the member-rule variants that carry their
// own min_rep/max_rep (QStringMember, RegexMember), letting a repetition
// prefix on a bare-ident member override the bounds of the rule it refers
// to (spec §4.1 grammar note: `member := [rep] ident`).
type memberRule interface {
	withRep(min, max int) Rule
}

func (r *QStringMember) withRep(min, max int) Rule {
	return &QStringMember{Name: r.Name, MinRep: min, MaxRep: max, Inner: r.Inner}
}

func (r *RegexMember) withRep(min, max int) Rule {
	return &RegexMember{Pattern: r.Pattern, MinRep: min, MaxRep: max, Inner: r.Inner}
}

// RepeatedMemberRef is a bare-ident object member with its own repetition
// prefix, e.g. `*2 foo`. It resolves Name like RuleRef, then — if the
// resolved rule carries member-level bounds — overrides them with its own
// before evaluating; a ref to a non-member rule evaluates unchanged, since
// there is nothing to override.
type RepeatedMemberRef struct {
	Name           string
	MinRep, MaxRep int
}

func (r RepeatedMemberRef) Evaluate(v *value.Value, optional bool, names *NameTable, index int) Status {
	target, ok := names.Lookup(r.Name)
	if !ok {
		return Fail
	}
	if mr, ok := target.(memberRule); ok {
		target = mr.withRep(r.MinRep, r.MaxRep)
	}
	return target.Evaluate(v, optional, names, index)
}
func (r RepeatedMemberRef) String() string {
	return fmt.Sprintf("%d*%d %s", r.MinRep, r.MaxRep, r.Name)
}

// Uri matches strings conforming to a minimal scheme:rest grammar: the
// scan starts directly in the "scheme" state (no separate "start" check),
// matching jsoncons' jcr_rules.hpp uri_rule bit-for-bit — including its
// observable quirks that an empty scheme (bare ":...") and a digit-leading
// scheme both pass, and nothing past the first ':' can fail the match.
type Uri struct{}

func (Uri) Evaluate(v *value.Value, _ bool, _ *NameTable, _ int) Status {
	s, err := v.AsString()
	if err != nil {
		return Fail
	}
	return statusOf(validURI(s))
}
func (Uri) String() string { return "uri" }

func validURI(s string) bool {
	const (
		scheme = iota
		expectPath
	)
	state := scheme
	for _, c := range s {
		switch state {
		case scheme:
			switch {
			case c == ':':
				state = expectPath
			case c == '+' || c == '-' || c == '.':
			case c >= '0' && c <= '9':
			case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			default:
				return false
			}
		case expectPath:
			// anything is accepted once past the scheme colon.
		}
	}
	return state == expectPath
}
