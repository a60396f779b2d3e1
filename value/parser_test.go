package value

import (
	"fmt"
	"testing"
)

func TestParseStringLiterals(t *testing.T) {
	for _, test := range []struct {
		input    string
		expected *Value
	}{
		{`null`, &Value{}},
		{`true`, &Value{kind: Boolean, boolean: true}},
		{`false`, &Value{kind: Boolean, boolean: false}},
		{`5`, &Value{kind: Integer, integer: 5}},
		{`-5`, &Value{kind: Integer, integer: -5}},
		{`18446744073709551615`, &Value{kind: Unsigned, uint: 18446744073709551615}},
		{`5.0`, &Value{kind: Float, float: 5}},
		{`5e2`, &Value{kind: Float, float: 500}},
		{`-5.25E-1`, &Value{kind: Float, float: -0.525}},
		{`"hello"`, &Value{kind: String, str: "hello"}},
		{`"line\nbreak"`, &Value{kind: String, str: "line\nbreak"}},
		{`"escaped\/slash"`, &Value{kind: String, str: "escaped/slash"}},
		{`"A"`, &Value{kind: String, str: "A"}},
	} {
		t.Run(test.input, func(t *testing.T) {
			actual, err := ParseString(test.input)
			if err != nil {
				t.Fatalf("expected no error got %v", err)
			}
			if !actual.Equal(test.expected) {
				t.Errorf("expected %v got %v", test.expected, actual)
			}
		})
	}
}

func TestParseStringContainers(t *testing.T) {
	for _, test := range []struct {
		input    string
		expected string
	}{
		{`[]`, `[]`},
		{`{}`, `{}`},
		{`[1, 2, 3]`, `[1, 2, 3]`},
		{`[1, 2, 3,]`, `[1, 2, 3]`},
		{`{"a": 1, "b": 2}`, `{"a": 1, "b": 2}`},
		{`{"a": 1, "b": 2,}`, `{"a": 1, "b": 2}`},
		{`[[1], [2, [3]]]`, `[[1], [2, [3]]]`},
	} {
		t.Run(test.input, func(t *testing.T) {
			actual, err := ParseString(test.input)
			if err != nil {
				t.Fatalf("expected no error got %v", err)
			}
			if s := actual.String(); s != test.expected {
				t.Errorf("expected %v got %v", test.expected, s)
			}
		})
	}
}

func TestParseStringErrors(t *testing.T) {
	for _, input := range []string{
		``,
		`{`,
		`[`,
		`{"a":}`,
		`[1 2]`,
		`nul`,
		`tru`,
		`"unterminated`,
		`01`,
		`{"a": 1,,}`,
	} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseString(input); err == nil {
				t.Errorf("expected error for %q, got none", input)
			}
		})
	}
}

func TestParseDeepNesting(t *testing.T) {
	input := fmt.Sprintf("%s1%s", repeat("[", 5), repeat("]", 5))
	val, err := ParseString(input)
	if err != nil {
		t.Fatalf("expected no error got %v", err)
	}
	got := val.Index(0).Index(0).Index(0).Index(0).Index(0)
	if !got.Equal(&Value{kind: Integer, integer: 1}) {
		t.Errorf("expected 1 got %v", got)
	}
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
