package model

import (
	"strings"
	"testing"
)

func TestGenerateJoinCode(t *testing.T) {
	code, err := GenerateJoinCode()
	if err != nil {
		t.Fatalf("GenerateJoinCode: %v", err)
	}
	if len(code) != JoinCodeLength {
		t.Errorf("expected %d characters, got %d (%q)", JoinCodeLength, len(code), code)
	}
	for _, c := range code {
		if !strings.ContainsRune(joinCodeCharset, c) {
			t.Errorf("unexpected character %q in join code %q", c, code)
		}
	}
}

func TestGenerateJoinCodeVaries(t *testing.T) {
	a, _ := GenerateJoinCode()
	b, _ := GenerateJoinCode()
	if a == b {
		t.Errorf("two generated join codes are identical: %q", a)
	}
}
