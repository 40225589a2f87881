// Package `regexpx` contains functions that complement the standard package
// `regexp`.
package regexpx

import (
	"regexp"
	"strings"
	"unicode"
)

/*

`Verbose(verboseRegex)` returns a normal regex that can be compiled with the
`regexp` package function.  Example:

    regexp.MustCompile(regexpx.Verbose(`
        _
        ( ?P<start> [0-9]+ )
        -
        ( ?P<end> [0-9]+ )
        \.nc
        $
    `)

*/
func Verbose(s string) string {
	return removeWhitespace(s)
}

func removeWhitespace(s string) string {
	dropSpace := func(c rune) rune {
		if unicode.IsSpace(c) {
			return -1
		}
		return c
	}
	return strings.Map(dropSpace, s)
}

// `NamedGroups()` matches `s` against `re` and returns the named
// subexpressions.  It returns nil if `s` does not match.
func NamedGroups(re *regexp.Regexp, s string) map[string]string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return groups
}
