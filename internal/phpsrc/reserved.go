package phpsrc

import "strings"

// reservedKeywords are PHP keywords that must never be treated as
// renameable identifiers.
var reservedKeywords = map[string]struct{}{
	"abstract": {}, "and": {}, "array": {}, "as": {}, "break": {},
	"callable": {}, "case": {}, "catch": {}, "class": {}, "clone": {},
	"const": {}, "continue": {}, "declare": {}, "default": {}, "die": {},
	"do": {}, "echo": {}, "else": {}, "elseif": {}, "empty": {},
	"enddeclare": {}, "endfor": {}, "endforeach": {}, "endif": {},
	"endswitch": {}, "endwhile": {}, "eval": {}, "exit": {}, "extends": {},
	"final": {}, "for": {}, "foreach": {}, "function": {}, "global": {},
	"goto": {}, "if": {}, "implements": {}, "include": {},
	"include_once": {}, "instanceof": {}, "insteadof": {}, "interface": {},
	"isset": {}, "list": {}, "namespace": {}, "new": {}, "or": {},
	"print": {}, "private": {}, "protected": {}, "public": {},
	"require": {}, "require_once": {}, "return": {}, "static": {},
	"switch": {}, "throw": {}, "trait": {}, "try": {}, "unset": {},
	"use": {}, "var": {}, "while": {}, "xor": {}, "yield": {},
}

// superglobals are variables with runtime meaning that must keep their
// names, $this and the CLI argument variables included.
var superglobals = map[string]struct{}{
	"$GLOBALS": {}, "$_SERVER": {}, "$_GET": {}, "$_POST": {},
	"$_FILES": {}, "$_COOKIE": {}, "$_SESSION": {}, "$_REQUEST": {},
	"$_ENV": {}, "$this": {}, "$argc": {}, "$argv": {},
}

// magicConstants are compile-time constants resolved by the PHP engine.
var magicConstants = map[string]struct{}{
	"__LINE__": {}, "__FILE__": {}, "__DIR__": {}, "__FUNCTION__": {},
	"__CLASS__": {}, "__TRAIT__": {}, "__METHOD__": {}, "__NAMESPACE__": {},
}

// shortNameAllowlist lists the short variable names that are still fair
// game for renaming; any other name of one or two characters is skipped as
// too likely to be load-bearing shorthand.
var shortNameAllowlist = map[string]struct{}{
	"$i": {}, "$j": {}, "$k": {}, "$v": {}, "$n": {},
}

// IsKeyword reports whether name (without sigil) is a PHP keyword.
func IsKeyword(name string) bool {
	_, ok := reservedKeywords[strings.ToLower(name)]

	return ok
}

// IsSuperglobal reports whether the sigil variable name is a superglobal.
func IsSuperglobal(name string) bool {
	_, ok := superglobals[name]

	return ok
}

// IsMagicConstant reports whether name is a PHP magic constant.
func IsMagicConstant(name string) bool {
	_, ok := magicConstants[name]

	return ok
}

// Renameable reports whether a sigil variable name may be renamed.
func Renameable(name string) bool {
	if IsSuperglobal(name) || IsMagicConstant(name) {
		return false
	}

	if IsKeyword(strings.TrimPrefix(name, "$")) {
		return false
	}

	// Length includes the sigil, matching the two-character cutoff of the
	// artifact format this tool stays compatible with.
	if len(name) <= 2 {
		_, allowed := shortNameAllowlist[name]

		return allowed
	}

	return true
}
