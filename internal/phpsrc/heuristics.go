package phpsrc

import (
	"regexp"
	"strings"
)

// sqlKeywords flag a string as a probable SQL fragment.
var sqlKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "FROM", "WHERE", "JOIN",
	"INNER", "LEFT", "RIGHT", "ORDER BY", "GROUP BY", "HAVING",
	"CREATE", "DROP", "ALTER", "TABLE", "INDEX",
}

// tableNameRe matches snake_case words, the usual shape of SQL table and
// column names.
var tableNameRe = regexp.MustCompile(`\b[a-z_]+_[a-z_]+\b`)

// LooksLikeSQL reports whether content reads as a SQL fragment. It errs on
// the side of matching: a renamed token inside a query breaks the query.
func LooksLikeSQL(content string) bool {
	upper := strings.ToUpper(content)

	for _, keyword := range sqlKeywords {
		if strings.Contains(upper, keyword) {
			return true
		}
	}

	return tableNameRe.MatchString(content)
}

// markupPatterns match HTML tags, self-closing tags, and entities.
var markupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<[a-zA-Z][^>]*>`),
	regexp.MustCompile(`(?i)</[a-zA-Z][^>]*>`),
	regexp.MustCompile(`(?i)<[a-zA-Z][^>]*/>`),
	regexp.MustCompile(`(?i)&[a-zA-Z]+;`),
}

// markupAttributes are attribute prefixes common in inline HTML.
var markupAttributes = []string{
	"class=", "id=", "href=", "src=", "alt=", "title=",
	"style=", "onclick=", "onload=", "target=", "rel=",
}

// LooksLikeMarkup reports whether content reads as an HTML fragment.
func LooksLikeMarkup(content string) bool {
	for _, pattern := range markupPatterns {
		if pattern.MatchString(content) {
			return true
		}
	}

	lower := strings.ToLower(content)

	for _, attr := range markupAttributes {
		if strings.Contains(lower, attr) {
			return true
		}
	}

	return false
}

// Statistics summarizes one scan, mirroring the counts surfaced in
// verbose batch output.
type Statistics struct {
	Lines     int
	Variables int
	Functions int
	Classes   int
	Strings   int
	Comments  int
	Bytes     int
}

// Stats scans code and returns summary counts.
func Stats(code string) Statistics {
	result := Scan(code)

	return Statistics{
		Lines:     strings.Count(code, "\n") + 1,
		Variables: len(result.Variables),
		Functions: len(result.Functions),
		Classes:   len(result.Classes),
		Strings:   len(result.Strings),
		Comments:  len(result.Comments),
		Bytes:     len(code),
	}
}
