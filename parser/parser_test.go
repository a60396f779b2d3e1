package parser

import (
	"testing"

	"github.com/jcrschema/jcr/jcrerr"
	"github.com/jcrschema/jcr/value"
)

func mustValidate(t *testing.T, jcrText, docText string) bool {
	t.Helper()
	rs, err := Parse(jcrText)
	if err != nil {
		t.Fatalf("Parse(%q): %v", jcrText, err)
	}
	doc, err := value.ParseString(docText)
	if err != nil {
		t.Fatalf("value.ParseString(%q): %v", docText, err)
	}
	return rs.Validate(doc)
}

// The seven concrete end-to-end scenarios of spec §8.

func TestScenarioLiteralObjectEquality(t *testing.T) {
	schema := `{ "line-count" : 3426, "word-count" : 27886 }`
	if !mustValidate(t, schema, `{"line-count":3426,"word-count":27886}`) {
		t.Errorf("expected pass")
	}
	if mustValidate(t, schema, `{"line-count":3426,"word-count":27887}`) {
		t.Errorf("expected fail")
	}
}

func TestScenarioTypedMembers(t *testing.T) {
	schema := `{ "line-count" : integer, "word-count" : integer }`
	if !mustValidate(t, schema, `{"line-count":3426,"word-count":27886}`) {
		t.Errorf("expected pass")
	}
}

func TestScenarioRange(t *testing.T) {
	schema := `{ "line-count" : 3427.., "word-count" : 0.. }`
	if mustValidate(t, schema, `{"line-count":3426,"word-count":27886}`) {
		t.Errorf("expected fail")
	}
}

func TestScenarioNamedRules(t *testing.T) {
	schema := "{ fn, lc, wc }\nfn \"file-name\":string\nlc \"line-count\":0..\nwc \"word-count\":0.."
	if !mustValidate(t, schema, `{"file-name":"rfc7159.txt","line-count":3426,"word-count":27886}`) {
		t.Errorf("expected pass")
	}
}

func TestScenarioOptionalMember(t *testing.T) {
	schema := "{ m1, ?m2 }\nv1 : 0..3\nm1 \"m1\":v1\nm2 \"m2\":v1"
	if !mustValidate(t, schema, `{"m1":1}`) {
		t.Errorf("expected pass")
	}
	if mustValidate(t, schema, `{"m2":2}`) {
		t.Errorf("expected fail (m1 missing)")
	}
}

func TestScenarioRepeatingArrayElement(t *testing.T) {
	schema := "[v1,*o1]\nv1:0..3\nm1 \"m1\":v1\nm2 \"m2\":v1\no1:{m1,?m2}"
	if !mustValidate(t, schema, `[0,{"m1":1},{"m1":3}]`) {
		t.Errorf("expected pass")
	}
	if mustValidate(t, schema, `[0,{"m1":1},{"m1":5}]`) {
		t.Errorf("expected fail")
	}
}

func TestScenarioUriBuiltin(t *testing.T) {
	schema := `uri`
	if !mustValidate(t, schema, `"http://www.ietf.org/rfc/rfc2396.txt"`) {
		t.Errorf("expected pass")
	}
	if mustValidate(t, schema, `"{/id*"`) {
		t.Errorf("expected fail")
	}
}

// Boundary behaviors (spec §8).

func TestEmptyObjectAndArrayMatchAny(t *testing.T) {
	if !mustValidate(t, `{}`, `{"a":1,"b":2}`) {
		t.Errorf("empty object rule should match any object")
	}
	if !mustValidate(t, `[]`, `[1,2,3]`) {
		t.Errorf("empty array rule should match any array")
	}
}

func TestRepetitionEquivalences(t *testing.T) {
	// `n*n` and a bare `n` as a repetition prefix both mean exactly n
	// repetitions.
	rs, err := Parse(`[3*3 integer]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc, _ := value.ParseString(`[1,2,3]`)
	if !rs.Validate(doc) {
		t.Errorf("expected [3*3 integer] to match exactly 3 integers")
	}

	rs2, err := Parse(`[3 integer]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !rs2.Validate(doc) {
		t.Errorf("expected [3 integer] (bare n) to behave like [3*3 integer]")
	}
}

func TestMaxDepthExceeded(t *testing.T) {
	deep := ""
	for i := 0; i < 5; i++ {
		deep += "["
	}
	for i := 0; i < 5; i++ {
		deep += "]"
	}
	if _, err := ParseWithOptions(deep, jcrerr.DefaultHandler{}, 3); err == nil {
		t.Errorf("expected max-depth error")
	}
	if _, err := ParseWithOptions(deep, jcrerr.DefaultHandler{}, 10); err != nil {
		t.Errorf("expected no error within depth budget, got %v", err)
	}
}

func TestNegativeAndFloatLiterals(t *testing.T) {
	if !mustValidate(t, `-5`, `-5`) {
		t.Errorf("expected -5 to match -5")
	}
	if !mustValidate(t, `3.14`, `3.14`) {
		t.Errorf("expected 3.14 to match 3.14")
	}
	if !mustValidate(t, `1e3`, `1000`) {
		t.Errorf("expected 1e3 to match 1000")
	}
}

func TestStringAndRegexLiterals(t *testing.T) {
	if !mustValidate(t, `"hello"`, `"hello"`) {
		t.Errorf("expected string literal match")
	}
	if mustValidate(t, `"hello"`, `"goodbye"`) {
		t.Errorf("expected string literal mismatch to fail")
	}
	if !mustValidate(t, `/^[a-z]+$/`, `"abc"`) {
		t.Errorf("expected regex match")
	}
	if mustValidate(t, `/^[a-z]+$/`, `"ABC"`) {
		t.Errorf("expected regex mismatch to fail")
	}
}

func TestTrueFalseNullLiterals(t *testing.T) {
	if !mustValidate(t, `true`, `true`) {
		t.Errorf("expected true to match true")
	}
	if mustValidate(t, `true`, `false`) {
		t.Errorf("expected true to not match false")
	}
	if !mustValidate(t, `null`, `null`) {
		t.Errorf("expected null to match null")
	}
}

func TestRepeatedMemberRefOverridesBounds(t *testing.T) {
	// `0* m1` is a bare-ident member carrying its own repetition prefix
	// (spec §4.1 grammar: `member := [rep] ident`); it must override m1's
	// own min_rep (1, from its un-prefixed `"m1":v1` definition) rather
	// than being discarded.
	schema := "{ 0* m1 }\nv1:0..3\nm1 \"m1\":v1"
	if !mustValidate(t, schema, `{"m1":1}`) {
		t.Errorf("expected pass with key present")
	}
	if !mustValidate(t, schema, `{}`) {
		t.Errorf("expected pass: 0* overrides m1's own required bound to optional")
	}
}

func TestGroupRule(t *testing.T) {
	schema := `(integer | string)`
	if !mustValidate(t, schema, `5`) {
		t.Errorf("expected integer alternative to pass")
	}
	if !mustValidate(t, schema, `"x"`) {
		t.Errorf("expected string alternative to pass")
	}
	if mustValidate(t, schema, `true`) {
		t.Errorf("expected boolean to fail both alternatives")
	}
}

func TestMultipleTopLevelAnonymousRulesLastWins(t *testing.T) {
	// Supplemented behavior: more than one anonymous top-level rule_decl is
	// allowed; the last one installed as root wins. A leading bare
	// identifier would instead be read as a named_decl's name (it is
	// immediately followed by another rule_body-shaped token), so the
	// first declaration here is a literal instead.
	rs, err := Parse(`5
string`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc, _ := value.ParseString(`"hello"`)
	if !rs.Validate(doc) {
		t.Errorf("expected the second (last) anonymous rule_decl to be the effective root")
	}
}

func TestParseErrorLineColumn(t *testing.T) {
	_, err := Parse(`{ "a" : ] }`)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	pe, ok := err.(*jcrerr.ParseError)
	if !ok {
		t.Fatalf("expected *jcrerr.ParseError, got %T", err)
	}
	if pe.Line != 1 || pe.Column != 9 {
		t.Errorf("expected error at line 1, column 9, got line %d, column %d", pe.Line, pe.Column)
	}
}

func TestComments(t *testing.T) {
	schema := "; leading comment\ninteger ; trailing comment\n"
	if !mustValidate(t, schema, `5`) {
		t.Errorf("expected comments to be skipped")
	}
}
