package check

import (
	"slices"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/optimode/emailverify/internal/disposable"
)

// DomainConfig is the domain checker configuration.
type DomainConfig struct {
	// Disposable is the set of known disposable domains.
	// Nil uses the embedded default list.
	Disposable disposable.Set
	// TypoThreshold is the maximum Levenshtein distance for a typo
	// suggestion. Zero disables suggestions.
	TypoThreshold int
	// KnownProviders are the domains suggestions are drawn from.
	// Nil uses DefaultKnownProviders(). The slice is copied.
	KnownProviders []string
}

// DomainChecker classifies disposable domains and suggests corrections
// for likely typos of major providers. It is read-only after construction.
type DomainChecker struct {
	cfg DomainConfig
}

// knownProviders is the list of known major email providers.
// If a domain is within TypoThreshold distance from one of these,
// it is offered as a suggestion.
var knownProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk", "yahoo.fr", "yahoo.de",
	"outlook.com", "hotmail.com", "hotmail.co.uk", "live.com",
	"icloud.com", "me.com", "mac.com",
	"protonmail.com", "proton.me",
	"aol.com",
	"zoho.com",
	"yandex.com", "yandex.ru", "mail.ru",
	"mail.com",
	"gmx.com", "gmx.net", "gmx.de",
	"fastmail.com",
	"tutanota.com",
}

// DefaultKnownProviders returns a copy of the built-in provider list.
func DefaultKnownProviders() []string {
	return slices.Clone(knownProviders)
}

func NewDomainChecker(cfg DomainConfig) *DomainChecker {
	if cfg.Disposable == nil {
		cfg.Disposable = disposable.Default()
	}
	if cfg.KnownProviders == nil {
		cfg.KnownProviders = knownProviders
	} else {
		cfg.KnownProviders = slices.Clone(cfg.KnownProviders)
	}
	return &DomainChecker{cfg: cfg}
}

// IsDisposable reports whether domain belongs to a known disposable provider.
// Domains absent from the list are reported as not disposable.
func (c *DomainChecker) IsDisposable(domain string) bool {
	return c.cfg.Disposable.Contains(domain)
}

// Suggest finds the closest known provider.
// If the distance is <= TypoThreshold and the domain is not an exact match,
// it returns the suggested domain. Otherwise returns an empty string.
func (c *DomainChecker) Suggest(domain string) string {
	if c.cfg.TypoThreshold <= 0 || domain == "" {
		return ""
	}
	domain = strings.ToLower(domain)

	bestDist := c.cfg.TypoThreshold + 1
	bestMatch := ""

	for _, provider := range c.cfg.KnownProviders {
		if domain == provider {
			return "" // exact match, no typo
		}
		dist := edlib.LevenshteinDistance(domain, provider)
		if dist <= c.cfg.TypoThreshold && dist < bestDist {
			bestDist = dist
			bestMatch = provider
		}
	}

	return bestMatch
}
