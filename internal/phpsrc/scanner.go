// Package phpsrc lexically scans PHP source text.
//
// The scan is regexp-based and best-effort: it operates on raw text, not a
// grammar, and can be fooled by code-shaped content inside strings (and
// vice versa). That limitation is accepted: the renaming behavior of the
// tool is defined in terms of this scan, so upgrading it to a real parser
// would change observable output. If accuracy ever matters more than
// fidelity, substitute another implementation behind the same result shape.
package phpsrc

import (
	"regexp"
	"strings"
)

// Ident is an identifier found in source text. Name includes the sigil for
// variables ("$name") and is the bare name for functions and classes.
type Ident struct {
	Name   string
	Offset int
}

// StringKind distinguishes the quoting style of a string literal.
type StringKind string

const (
	SingleQuoted StringKind = "single"
	DoubleQuoted StringKind = "double"
	Heredoc      StringKind = "heredoc"
)

// Span is a located stretch of source text: a string literal or a comment.
type Span struct {
	Content string
	Kind    StringKind
	Offset  int
	Length  int
}

// CommentKind distinguishes line comments from block comments.
type CommentKind string

const (
	LineComment  CommentKind = "line"
	BlockComment CommentKind = "block"
)

// Comment is a located comment.
type Comment struct {
	Content string
	Kind    CommentKind
	Offset  int
	Length  int
}

// Result holds everything one scan found.
type Result struct {
	Variables []Ident
	Functions []Ident
	Classes   []Ident
	Strings   []Span
	Comments  []Comment
}

var (
	variableRe = regexp.MustCompile(`\$([a-zA-Z_\x{0080}-\x{ffff}][a-zA-Z0-9_\x{0080}-\x{ffff}]*)`)
	functionRe = regexp.MustCompile(`function\s+([a-zA-Z_\x{0080}-\x{ffff}][a-zA-Z0-9_\x{0080}-\x{ffff}]*)\s*\(`)
	classRe    = regexp.MustCompile(`(?:abstract\s+|final\s+)?class\s+([a-zA-Z_\x{0080}-\x{ffff}][a-zA-Z0-9_\x{0080}-\x{ffff}]*)`)

	singleQuotedRe = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)
	doubleQuotedRe = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

	lineCommentRe  = regexp.MustCompile(`(?m)//.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Scan runs all extraction passes over code.
func Scan(code string) Result {
	return Result{
		Variables: Variables(code),
		Functions: Functions(code),
		Classes:   Classes(code),
		Strings:   Strings(code),
		Comments:  Comments(code),
	}
}

// Variables returns the distinct sigil variables eligible for renaming:
// superglobals, magic constants, reserved keywords, and short names outside
// the allowlist are filtered out. Order follows first appearance.
func Variables(code string) []Ident {
	var out []Ident

	seen := make(map[string]struct{})

	for _, match := range variableRe.FindAllStringSubmatchIndex(code, -1) {
		name := "$" + code[match[2]:match[3]]

		if !Renameable(name) {
			continue
		}

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, Ident{Name: name, Offset: match[0]})
	}

	return out
}

// Functions returns function-definition names, excluding magic
// (double-underscore) methods. Duplicate definitions are reported once.
func Functions(code string) []Ident {
	var out []Ident

	seen := make(map[string]struct{})

	for _, match := range functionRe.FindAllStringSubmatchIndex(code, -1) {
		name := code[match[2]:match[3]]

		if strings.HasPrefix(name, "__") {
			continue
		}

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, Ident{Name: name, Offset: match[0]})
	}

	return out
}

// Classes returns class-definition names.
func Classes(code string) []Ident {
	var out []Ident

	seen := make(map[string]struct{})

	for _, match := range classRe.FindAllStringSubmatchIndex(code, -1) {
		name := code[match[2]:match[3]]

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, Ident{Name: name, Offset: match[0]})
	}

	return out
}

// Strings returns string-literal spans. Literals that read as booleans or
// nulls, SQL fragments, or markup are excluded: those routinely break when
// rewritten, so downstream passes must leave them alone.
func Strings(code string) []Span {
	var out []Span

	collect := func(re *regexp.Regexp, kind StringKind, contentGroup int) {
		for _, match := range re.FindAllStringSubmatchIndex(code, -1) {
			content := code[match[2*contentGroup]:match[2*contentGroup+1]]

			if keepString(content) {
				out = append(out, Span{
					Content: content,
					Kind:    kind,
					Offset:  match[0],
					Length:  match[1] - match[0],
				})
			}
		}
	}

	collect(singleQuotedRe, SingleQuoted, 1)
	collect(doubleQuotedRe, DoubleQuoted, 1)
	collectHeredocs(code, &out)

	return out
}

// collectHeredocs matches <<<LABEL ... LABEL blocks. The closing label must
// repeat the opening one, which regexp alone cannot express here, so the
// opener is matched and the closer located by search.
func collectHeredocs(code string, out *[]Span) {
	openRe := regexp.MustCompile(`<<<([A-Za-z_][A-Za-z0-9_]*)\n`)

	for _, match := range openRe.FindAllStringSubmatchIndex(code, -1) {
		label := code[match[2]:match[3]]
		bodyStart := match[1]

		closer := "\n" + label
		rel := strings.Index(code[bodyStart:], closer)
		if rel < 0 {
			continue
		}

		content := code[bodyStart : bodyStart+rel]
		if !keepString(content) {
			continue
		}

		*out = append(*out, Span{
			Content: content,
			Kind:    Heredoc,
			Offset:  match[0],
			Length:  bodyStart + rel + len(closer) - match[0],
		})
	}
}

// Comments returns line and block comment spans.
func Comments(code string) []Comment {
	var out []Comment

	for _, match := range lineCommentRe.FindAllStringIndex(code, -1) {
		out = append(out, Comment{
			Content: code[match[0]:match[1]],
			Kind:    LineComment,
			Offset:  match[0],
			Length:  match[1] - match[0],
		})
	}

	for _, match := range blockCommentRe.FindAllStringIndex(code, -1) {
		out = append(out, Comment{
			Content: code[match[0]:match[1]],
			Kind:    BlockComment,
			Offset:  match[0],
			Length:  match[1] - match[0],
		})
	}

	return out
}

// keepString decides whether a string literal is worth reporting.
func keepString(content string) bool {
	trimmed := strings.TrimSpace(content)

	if len(trimmed) < 1 {
		return false
	}

	switch trimmed {
	case "true", "false", "null", "0", "1":
		return false
	}

	if LooksLikeSQL(content) {
		return false
	}

	if LooksLikeMarkup(content) {
		return false
	}

	return true
}
