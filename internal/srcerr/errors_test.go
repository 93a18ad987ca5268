package srcerr

import (
	"strings"
	"testing"

	"github.com/nyxlang/nyx/internal/token"
)

func TestEngineError_Format(t *testing.T) {
	tests := []struct {
		name        string
		pos         token.Position
		message     string
		source      string
		file        string
		wantContain []string
	}{
		{
			name:    "simple error with file",
			pos:     token.Position{Line: 1, Column: 10},
			message: "x is not defined",
			source:  "let y = x + 5;",
			file:    "test.js",
			wantContain: []string{
				"in test.js:1:10",
				"   1 | let y = x + 5;",
				"^",
				"x is not defined",
			},
		},
		{
			name:    "error without file",
			pos:     token.Position{Line: 5, Column: 15},
			message: "invalid assignment target",
			source:  "line1\nline2\nline3\nline4\nline5 with error here\nline6",
			file:    "",
			wantContain: []string{
				"at line 5:15",
				"   5 | line5 with error here",
				"^",
				"invalid assignment target",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSyntaxError(tt.pos, tt.message, tt.source, tt.file)
			got := err.Format(false)
			for _, want := range tt.wantContain {
				if !strings.Contains(got, want) {
					t.Errorf("Format() missing %q\ngot:\n%s", want, got)
				}
			}
		})
	}
}

func TestEngineError_FormatWithContext(t *testing.T) {
	source := "let x = 5;\nlet y;\ny = x();\nprint(y);"

	err := New(TypeErrorKind, token.Position{Line: 3, Column: 5}, "x is not a function", source, "test.js")
	got := err.FormatWithContext(1, false)

	for _, want := range []string{
		"TypeError: in test.js:3:5",
		"   2 | let y;",
		"   3 | y = x();",
		"   4 | print(y);",
		"^",
		"x is not a function",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatWithContext() missing %q\ngot:\n%s", want, got)
		}
	}
}

func TestEngineError_getSourceLine(t *testing.T) {
	err := NewSyntaxError(token.Position{}, "", "line1\nline2\nline3\nline4", "")

	tests := []struct {
		lineNum int
		want    string
	}{
		{1, "line1"},
		{2, "line2"},
		{4, "line4"},
		{10, ""},
		{0, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := err.getSourceLine(tt.lineNum); got != tt.want {
			t.Errorf("getSourceLine(%d) = %q, want %q", tt.lineNum, got, tt.want)
		}
	}
}

func TestEngineError_getSourceContext(t *testing.T) {
	err := NewSyntaxError(token.Position{}, "", "line1\nline2\nline3\nline4\nline5", "")

	tests := []struct {
		name          string
		lineNum       int
		before, after int
		want          []string
	}{
		{"middle", 3, 1, 1, []string{"line2", "line3", "line4"}},
		{"first", 1, 1, 2, []string{"line1", "line2", "line3"}},
		{"last", 5, 2, 1, []string{"line3", "line4", "line5"}},
		{"none", 3, 0, 0, []string{"line3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := err.getSourceContext(tt.lineNum, tt.before, tt.after)
			if len(got) != len(tt.want) {
				t.Fatalf("getSourceContext() returned %d lines, want %d", len(got), len(tt.want))
			}
			for i, line := range got {
				if line != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, line, tt.want[i])
				}
			}
		})
	}
}

func TestFormatErrors(t *testing.T) {
	if got := FormatErrors(nil, false); got != "" {
		t.Errorf("FormatErrors(nil) = %q, want empty", got)
	}

	errs := []*EngineError{
		NewSyntaxError(token.Position{Line: 1, Column: 5}, "first error", "let x", "test.js"),
		New(ReferenceErrorKind, token.Position{Line: 3, Column: 10}, "second error", "line1\nline2\ny", "test.js"),
	}
	got := FormatErrors(errs, false)
	for _, want := range []string{
		"Compilation failed with 2 error(s)",
		"[Error 1 of 2]",
		"first error",
		"[Error 2 of 2]",
		"second error",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatErrors() missing %q\ngot:\n%s", want, got)
		}
	}
}

func TestEngineError_ErrorInterface(t *testing.T) {
	var err error = NewSyntaxError(token.Position{Line: 1, Column: 5}, "test error", "let x", "test.js")
	if !strings.Contains(err.Error(), "test error") {
		t.Errorf("Error() should contain 'test error', got: %s", err.Error())
	}
}

func TestFormatWithColor(t *testing.T) {
	err := NewSyntaxError(token.Position{Line: 1, Column: 5}, "test error", "let x = 10;", "test.js")

	if !strings.Contains(err.Format(true), "\033[") {
		t.Error("Format(true) should contain ANSI color codes")
	}
	if strings.Contains(err.Format(false), "\033[") {
		t.Error("Format(false) should not contain ANSI color codes")
	}
}
