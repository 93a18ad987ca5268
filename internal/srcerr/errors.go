// Package srcerr formats the user-facing error kinds the engine throws
// (spec.md §7) with source context and a caret pointing at the
// offending column, in the teacher's error-formatting style.
package srcerr

import (
	"fmt"
	"strings"

	"github.com/nyxlang/nyx/internal/token"
)

// Kind is one of the five error constructors spec.md §7 names as
// user-visible (EvalError is legacy and rarely thrown by the core
// itself, but is included so the object protocol can construct it).
type Kind string

const (
	SyntaxErrorKind    Kind = "SyntaxError"
	TypeErrorKind      Kind = "TypeError"
	RangeErrorKind     Kind = "RangeError"
	ReferenceErrorKind Kind = "ReferenceError"
	URIErrorKind       Kind = "URIError"
	EvalErrorKind      Kind = "EvalError"
)

// EngineError is a single compile-time or runtime error with position
// and source context, matching the caret-pointing format the teacher's
// CLI and test suite expect.
type EngineError struct {
	Kind    Kind
	Message string
	Source  string
	File    string
	Pos     token.Position
}

// New creates an EngineError of the given kind.
func New(kind Kind, pos token.Position, message, source, file string) *EngineError {
	return &EngineError{Kind: kind, Pos: pos, Message: message, Source: source, File: file}
}

// NewSyntaxError is a convenience constructor used throughout the
// lexer/parser/compiler for malformed-source errors.
func NewSyntaxError(pos token.Position, message, source, file string) *EngineError {
	return New(SyntaxErrorKind, pos, message, source, file)
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return e.Format(false)
}

// Format renders the error with a single line of source context and a
// caret under the offending column. If color is true, ANSI escapes
// highlight the caret and message.
func (e *EngineError) Format(color bool) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s: ", e.Kind)
	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%sin %s:%d:%d\n", header, e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%sat line %d:%d\n", header, e.Pos.Line, e.Pos.Column))
	}

	if line := e.getSourceLine(e.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (e *EngineError) getSourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func (e *EngineError) getSourceContext(lineNum, before, after int) []string {
	if e.Source == "" {
		return nil
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return nil
	}
	start := lineNum - before
	if start < 1 {
		start = 1
	}
	end := lineNum + after
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start-1 : end]
}

// FormatWithContext renders the error with contextLines of source
// before and after the offending line.
func (e *EngineError) FormatWithContext(contextLines int, color bool) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s: ", e.Kind)
	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%sin %s:%d:%d\n", header, e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%sat line %d:%d\n", header, e.Pos.Line, e.Pos.Column))
	}

	ctx := e.getSourceContext(e.Pos.Line, contextLines, contextLines)
	if len(ctx) == 0 {
		return e.Format(color)
	}

	startLine := e.Pos.Line - contextLines
	if startLine < 1 {
		startLine = 1
	}

	for i, line := range ctx {
		cur := startLine + i
		lineNumStr := fmt.Sprintf("%4d | ", cur)
		if cur == e.Pos.Line {
			if color {
				sb.WriteString("\033[1m")
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")

			sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column-1))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		} else {
			if color {
				sb.WriteString("\033[2m")
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

// FormatErrors renders a batch of errors the way the CLI reports a
// failed compile.
func FormatErrors(errs []*EngineError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Compilation failed with %d error(s):\n\n", len(errs)))
	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("[Error %d of %d]\n", i+1, len(errs)))
		sb.WriteString(err.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
