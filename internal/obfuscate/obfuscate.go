// Package obfuscate rewrites PHP identifiers to random aliases.
//
// An Obfuscator owns one identifier map and is meant to live for one
// encryption run: aliases are assigned on first sight, reused on every
// later sight, and never shared across instances. Two runs over the same
// source legitimately produce different aliases.
package obfuscate

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/east-technologies/phpseal/internal/phpsrc"
)

// Options selects which identifier categories get renamed.
type Options struct {
	Variables bool
	Functions bool
	Classes   bool
}

// Mapping is a snapshot of assigned aliases, keyed by original name.
type Mapping struct {
	Variables map[string]string
	Functions map[string]string
	Classes   map[string]string
}

// Obfuscator assigns and applies aliases. Not safe for concurrent use;
// scope one instance per encryption run.
type Obfuscator struct {
	variables map[string]string
	functions map[string]string
	classes   map[string]string
}

// New returns an Obfuscator with empty namespaces.
func New() *Obfuscator {
	return &Obfuscator{
		variables: make(map[string]string),
		functions: make(map[string]string),
		classes:   make(map[string]string),
	}
}

// Apply scans code and rewrites the categories enabled in opts, returning
// the transformed text. Matching is whole-token: an alias never lands
// inside a longer identifier, and occurrences inside string literals are
// skipped where the lexical scan can see them.
func (o *Obfuscator) Apply(code string, opts Options) (string, error) {
	result := phpsrc.Scan(code)

	out := code

	if opts.Variables {
		rewritten, err := o.applyVariables(out, result.Variables)
		if err != nil {
			return "", err
		}

		out = rewritten
	}

	if opts.Functions {
		rewritten, err := o.applyFunctions(out, result.Functions)
		if err != nil {
			return "", err
		}

		out = rewritten
	}

	if opts.Classes {
		rewritten, err := o.applyClasses(out, result.Classes)
		if err != nil {
			return "", err
		}

		out = rewritten
	}

	return out, nil
}

// Snapshot returns a copy of the current identifier map for diagnostics.
func (o *Obfuscator) Snapshot() Mapping {
	return Mapping{
		Variables: copyMap(o.variables),
		Functions: copyMap(o.functions),
		Classes:   copyMap(o.classes),
	}
}

// Counts returns the number of assigned aliases per namespace.
func (o *Obfuscator) Counts() (variables, functions, classes int) {
	return len(o.variables), len(o.functions), len(o.classes)
}

func (o *Obfuscator) applyVariables(code string, idents []phpsrc.Ident) (string, error) {
	for _, ident := range idents {
		if _, ok := o.variables[ident.Name]; ok {
			continue
		}

		alias, err := o.newVariableAlias()
		if err != nil {
			return "", err
		}

		o.variables[ident.Name] = alias
	}

	// Re-scan string spans against the current text before each pass so
	// offsets stay valid as earlier substitutions shift the source.
	out := code

	for original, alias := range o.variables {
		spans := phpsrc.Strings(out)

		bare := strings.TrimPrefix(original, "$")
		pattern := regexp.MustCompile(`\$` + regexp.QuoteMeta(bare) + `\b`)

		out = replaceOutsideSpans(out, pattern, alias, spans)
	}

	return out, nil
}

func (o *Obfuscator) applyFunctions(code string, idents []phpsrc.Ident) (string, error) {
	for _, ident := range idents {
		if _, ok := o.functions[ident.Name]; ok {
			continue
		}

		alias, err := o.newBareAlias(o.functions)
		if err != nil {
			return "", err
		}

		o.functions[ident.Name] = alias
	}

	out := code

	for original, alias := range o.functions {
		quoted := regexp.QuoteMeta(original)

		// Definition sites first, then call sites.
		defRe := regexp.MustCompile(`\bfunction\s+` + quoted + `\s*\(`)
		out = defRe.ReplaceAllString(out, "function "+alias+"(")

		callRe := regexp.MustCompile(`\b` + quoted + `\s*\(`)
		out = callRe.ReplaceAllString(out, alias+"(")
	}

	return out, nil
}

func (o *Obfuscator) applyClasses(code string, idents []phpsrc.Ident) (string, error) {
	for _, ident := range idents {
		if _, ok := o.classes[ident.Name]; ok {
			continue
		}

		alias, err := o.newBareAlias(o.classes)
		if err != nil {
			return "", err
		}

		o.classes[ident.Name] = alias
	}

	out := code

	for original, alias := range o.classes {
		quoted := regexp.QuoteMeta(original)

		defRe := regexp.MustCompile(`\bclass\s+` + quoted + `\b`)
		out = defRe.ReplaceAllString(out, "class "+alias)

		newRe := regexp.MustCompile(`\bnew\s+` + quoted + `\b`)
		out = newRe.ReplaceAllString(out, "new "+alias)

		staticRe := regexp.MustCompile(`\b` + quoted + `::`)
		out = staticRe.ReplaceAllString(out, alias+"::")
	}

	return out, nil
}

// replaceOutsideSpans substitutes every match of pattern that does not
// start inside one of the given spans.
func replaceOutsideSpans(code string, pattern *regexp.Regexp, replacement string, spans []phpsrc.Span) string {
	matches := pattern.FindAllStringIndex(code, -1)
	if matches == nil {
		return code
	}

	var buf strings.Builder

	last := 0

	for _, match := range matches {
		if insideSpan(match[0], spans) {
			continue
		}

		buf.WriteString(code[last:match[0]])
		buf.WriteString(replacement)

		last = match[1]
	}

	buf.WriteString(code[last:])

	return buf.String()
}

func insideSpan(offset int, spans []phpsrc.Span) bool {
	for _, span := range spans {
		if offset > span.Offset && offset < span.Offset+span.Length {
			return true
		}
	}

	return false
}

const (
	variableAliasMin = 8
	variableAliasMax = 12
	bareAliasMin     = 10
	bareAliasMax     = 15

	aliasAttempts = 100
)

const (
	alphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	alphanumeric = alphabet + "0123456789"
)

// newVariableAlias generates a fresh "$xxxxxxxx" alias, retrying on
// collision within the variable namespace.
func (o *Obfuscator) newVariableAlias() (string, error) {
	for i := 0; i < aliasAttempts; i++ {
		name, err := randomName(alphanumeric, variableAliasMin, variableAliasMax)
		if err != nil {
			return "", err
		}

		// PHP variable names cannot start with a digit.
		if name[0] >= '0' && name[0] <= '9' {
			continue
		}

		alias := "$" + name

		if taken(alias, o.variables) || !phpsrc.Renameable(alias) {
			continue
		}

		return alias, nil
	}

	return "", fmt.Errorf("no free variable alias after %d attempts", aliasAttempts)
}

// newBareAlias generates a fresh alphabetic alias for functions or
// classes, retrying on collision within the given namespace.
func (o *Obfuscator) newBareAlias(namespace map[string]string) (string, error) {
	for i := 0; i < aliasAttempts; i++ {
		alias, err := randomName(alphabet, bareAliasMin, bareAliasMax)
		if err != nil {
			return "", err
		}

		if taken(alias, namespace) || phpsrc.IsKeyword(alias) || phpsrc.IsMagicConstant(alias) {
			continue
		}

		return alias, nil
	}

	return "", fmt.Errorf("no free alias after %d attempts", aliasAttempts)
}

// taken reports whether alias is already assigned in namespace.
func taken(alias string, namespace map[string]string) bool {
	for _, assigned := range namespace {
		if assigned == alias {
			return true
		}
	}

	return false
}

// randomName builds a random string from charset with a length drawn
// uniformly from [minLen, maxLen].
func randomName(charset string, minLen, maxLen int) (string, error) {
	span, err := rand.Int(rand.Reader, big.NewInt(int64(maxLen-minLen+1)))
	if err != nil {
		return "", fmt.Errorf("choosing alias length: %w", err)
	}

	length := minLen + int(span.Int64())

	var buf strings.Builder

	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("generating alias: %w", err)
		}

		buf.WriteByte(charset[idx.Int64()])
	}

	return buf.String(), nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))

	for k, v := range m {
		out[k] = v
	}

	return out
}
