package disposable

import (
	_ "embed"
	"strings"
)

//go:embed list.txt
var rawList string

var defaultSet Set

func init() {
	// The embedded list is part of the build; a read error is impossible.
	defaultSet, _ = Parse(strings.NewReader(rawList))
}
