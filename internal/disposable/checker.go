// Package disposable classifies domains operated by temporary/throwaway
// email providers. The classification is a closed-world approximation:
// a domain missing from the set is reported as not disposable.
package disposable

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Set is a case-insensitive set of disposable domains.
// A Set is read-only once built and safe for concurrent use.
type Set map[string]struct{}

// NewSet builds a Set from the given domains.
func NewSet(domains ...string) Set {
	s := make(Set, len(domains))
	for _, d := range domains {
		s.add(d)
	}
	return s
}

// Default returns a copy of the embedded default list.
func Default() Set {
	s := make(Set, len(defaultSet))
	for d := range defaultSet {
		s[d] = struct{}{}
	}
	return s
}

// Parse reads one domain per line. Blank lines and lines starting
// with # are ignored.
func Parse(r io.Reader) (Set, error) {
	s := make(Set)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read disposable list: %w", err)
	}
	return s, nil
}

// Contains reports whether domain is a known disposable domain.
func (s Set) Contains(domain string) bool {
	_, ok := s[strings.ToLower(domain)]
	return ok
}

// Merge returns a new Set holding the domains of s and other.
func (s Set) Merge(other Set) Set {
	out := make(Set, len(s)+len(other))
	for d := range s {
		out[d] = struct{}{}
	}
	for d := range other {
		out[d] = struct{}{}
	}
	return out
}

func (s Set) add(domain string) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain != "" {
		s[domain] = struct{}{}
	}
}
