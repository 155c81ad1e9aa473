package phpsrc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/east-technologies/phpseal/internal/phpsrc"
)

func names(idents []phpsrc.Ident) []string {
	out := make([]string, len(idents))
	for i, ident := range idents {
		out[i] = ident.Name
	}

	return out
}

func TestVariables(t *testing.T) {
	t.Parallel()

	code := `<?php
$count = 0;
$_SESSION['user'] = $userName;
$this->count = $count;
foreach ($items as $i => $v) {
    $x = $i;
}
echo $GLOBALS['debug'];
`

	got := names(phpsrc.Variables(code))

	assert.Equal(t, []string{"$count", "$userName", "$items", "$i", "$v"}, got)

	// Superglobals, $this, and short names outside the allowlist stay put.
	assert.NotContains(t, got, "$_SESSION")
	assert.NotContains(t, got, "$this")
	assert.NotContains(t, got, "$GLOBALS")
	assert.NotContains(t, got, "$x")
}

func TestVariablesDeduplicates(t *testing.T) {
	t.Parallel()

	vars := phpsrc.Variables(`$total = $total + $total;`)

	require.Len(t, vars, 1)
	assert.Equal(t, "$total", vars[0].Name)
	assert.Equal(t, 0, vars[0].Offset, "offset records first appearance")
}

func TestVariablesUnicode(t *testing.T) {
	t.Parallel()

	got := names(phpsrc.Variables(`$naïve = 1; $größe = 2;`))

	assert.Equal(t, []string{"$naïve", "$größe"}, got)
}

func TestFunctions(t *testing.T) {
	t.Parallel()

	code := `<?php
function process_data($input) { return $input; }
function __construct() {}
function __get($name) {}
function   spaced_name  ($x) {}
function process_data($again) {}
`

	got := names(phpsrc.Functions(code))

	assert.Equal(t, []string{"process_data", "spaced_name"}, got,
		"magic methods are skipped and duplicates collapse")
}

func TestClasses(t *testing.T) {
	t.Parallel()

	code := `<?php
class UserRepository {}
abstract class BaseController {}
final class Session {}
`

	got := names(phpsrc.Classes(code))

	assert.Equal(t, []string{"UserRepository", "BaseController", "Session"}, got)
}

func TestStrings(t *testing.T) {
	t.Parallel()

	code := `<?php
$a = 'a friendly greeting';
$b = "interpolated $value here";
$c = 'true';
$d = 'SELECT id FROM users WHERE active = 1';
$e = '<div class="panel">content</div>';
$f = '';
`

	spans := phpsrc.Strings(code)

	var contents []string
	for _, span := range spans {
		contents = append(contents, span.Content)
	}

	assert.Contains(t, contents, "a friendly greeting")
	assert.Contains(t, contents, "interpolated $value here")

	// Boolean-ish literals, SQL, markup, and empties are filtered.
	assert.NotContains(t, contents, "true")
	assert.NotContains(t, contents, "SELECT id FROM users WHERE active = 1")
	assert.NotContains(t, contents, `<div class="panel">content</div>`)
	assert.NotContains(t, contents, "")
}

func TestStringsEscapedQuotes(t *testing.T) {
	t.Parallel()

	spans := phpsrc.Strings(`$msg = 'it\'s fine';`)

	require.Len(t, spans, 1)
	assert.Equal(t, `it\'s fine`, spans[0].Content)
	assert.Equal(t, phpsrc.SingleQuoted, spans[0].Kind)
}

func TestHeredoc(t *testing.T) {
	t.Parallel()

	code := "<?php\n$tpl = <<<EOT\nplain body text\nwith two lines\nEOT;\n"

	spans := phpsrc.Strings(code)

	require.Len(t, spans, 1)
	assert.Equal(t, phpsrc.Heredoc, spans[0].Kind)
	assert.Equal(t, "plain body text\nwith two lines", spans[0].Content)
}

func TestHeredocUnclosed(t *testing.T) {
	t.Parallel()

	assert.Empty(t, phpsrc.Strings("<?php\n$tpl = <<<EOT\nnever closed\n"))
}

func TestComments(t *testing.T) {
	t.Parallel()

	code := `<?php
$a = 1; // trailing note
/* block
   spanning lines */
$b = 2;
`

	comments := phpsrc.Comments(code)
	require.Len(t, comments, 2)

	assert.Equal(t, phpsrc.LineComment, comments[0].Kind)
	assert.Equal(t, "// trailing note", comments[0].Content)

	assert.Equal(t, phpsrc.BlockComment, comments[1].Kind)
	assert.Contains(t, comments[1].Content, "spanning lines")

	for _, c := range comments {
		assert.Equal(t, c.Content, code[c.Offset:c.Offset+c.Length])
	}
}

func TestRenameable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"$userName", true},
		{"$i", true},
		{"$v", true},
		{"$x", false},
		{"$ab", true},
		{"$this", false},
		{"$_POST", false},
		{"$class", false},
		{"$CLASS", false},
		{"$abc", true},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, phpsrc.Renameable(tc.name), "Renameable(%q)", tc.name)
	}
}

func TestLooksLikeSQL(t *testing.T) {
	t.Parallel()

	assert.True(t, phpsrc.LooksLikeSQL("select * from accounts"))
	assert.True(t, phpsrc.LooksLikeSQL("user_id = ?"), "snake_case reads as a column name")
	assert.False(t, phpsrc.LooksLikeSQL("just a sentence"))
}

func TestLooksLikeMarkup(t *testing.T) {
	t.Parallel()

	assert.True(t, phpsrc.LooksLikeMarkup("<br/>"))
	assert.True(t, phpsrc.LooksLikeMarkup("&nbsp;"))
	assert.True(t, phpsrc.LooksLikeMarkup(`href="/home"`))
	assert.False(t, phpsrc.LooksLikeMarkup("three < four"))
}

func TestStats(t *testing.T) {
	t.Parallel()

	code := `<?php
// setup
$total = 0;
function tally($amount) { return $amount; }
class Ledger {}
$label = 'running total';
`

	stats := phpsrc.Stats(code)

	assert.Equal(t, 3, stats.Variables)
	assert.Equal(t, 1, stats.Functions)
	assert.Equal(t, 1, stats.Classes)
	assert.Equal(t, 1, stats.Strings)
	assert.Equal(t, 1, stats.Comments)
	assert.Equal(t, len(code), stats.Bytes)
}
