package jcrerr

import (
	"fmt"
	"testing"
)

func TestKindMessage(t *testing.T) {
	for _, test := range []struct {
		input    Kind
		expected string
	}{
		{UnexpectedEof, "Unexpected end of file"},
		{InvalidJcrText, "Invalid JCR text"},
		{LeadingZero, "A number cannot have a leading zero"},
		{ExpectedStar, "Expected '*'"},
		{numKinds, "unknown error"},
		{-1, "unknown error"},
	} {
		t.Run(fmt.Sprintf("%v", test.input), func(t *testing.T) {
			if actual := test.input.Message(); actual != test.expected {
				t.Errorf("expected %v got %v", test.expected, actual)
			}
		})
	}
}

func TestKindCode(t *testing.T) {
	for _, test := range []struct {
		input    Kind
		expected string
	}{
		{UnexpectedEof, "E_UNEXPECTED_EOF"},
		{ExpectedStar, "E_EXPECTED_STAR"},
		{numKinds, "E_UNKNOWN"},
	} {
		t.Run(fmt.Sprintf("%v", test.input), func(t *testing.T) {
			if actual := test.input.Code(); actual != test.expected {
				t.Errorf("expected %v got %v", test.expected, actual)
			}
		})
	}
}

func TestParseErrorError(t *testing.T) {
	err := New(ExpectedColon, 3, 7)
	expected := "E_EXPECTED_COLON at line 3, column 7: Expected name separator ':'"
	if actual := err.Error(); actual != expected {
		t.Errorf("expected %v got %v", expected, actual)
	}
}

func TestDefaultHandler(t *testing.T) {
	var h DefaultHandler
	if recover := h.Error(InvalidNumber, 1, 1); recover {
		t.Errorf("expected DefaultHandler.Error to not recover")
	}
	err := h.Fatal(InvalidNumber, 1, 1)
	if err == nil {
		t.Fatalf("expected error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Kind != InvalidNumber || pe.Line != 1 || pe.Column != 1 {
		t.Errorf("unexpected ParseError %+v", pe)
	}
}

// every Kind must have a non-empty code and message, and every code
// must be unique — a missing table entry silently falls through to the
// empty string otherwise.
func TestAllKindsCovered(t *testing.T) {
	seen := map[string]Kind{}
	for k := Kind(0); k < numKinds; k++ {
		if k.Message() == "" {
			t.Errorf("Kind %v has empty message", k)
		}
		if k.Code() == "" || k.Code() == "E_UNKNOWN" {
			t.Errorf("Kind %v has no code", k)
		}
		if other, dup := seen[k.Code()]; dup {
			t.Errorf("Kind %v and %v share code %v", k, other, k.Code())
		}
		seen[k.Code()] = k
	}
}
