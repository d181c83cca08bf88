package check

import "regexp"

// syntaxPattern accepts a local part of [A-Za-z0-9._%+-], an @, dot-separated
// labels of [A-Za-z0-9.-] and a final label of at least two ASCII letters.
// Internationalized addresses are rejected.
var syntaxPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidSyntax reports whether addr is a syntactically acceptable email
// address. The input is matched as given, without trimming.
func ValidSyntax(addr string) bool {
	return syntaxPattern.MatchString(addr)
}
