package parse

import "strings"

// Email is the internal representation of a split email address.
// The check/ packages receive this as parameter.
type Email struct {
	Raw    string // the original input, unmodified
	Local  string // the part before the first @
	Domain string // the part after the first @, as given (no IDNA conversion)
}

// NewEmail splits raw at its first @. It never fails: an input without @
// yields an Email with empty Local and Domain.
func NewEmail(raw string) Email {
	local, domain, ok := strings.Cut(raw, "@")
	if !ok {
		return Email{Raw: raw}
	}
	return Email{Raw: raw, Local: local, Domain: domain}
}
