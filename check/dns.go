package check

import (
	"context"
	"errors"
	"net"
	"sort"
	"time"
)

// ErrNoMXRecords is reported when a lookup succeeds without usable MX records.
var ErrNoMXRecords = errors.New("no MX records found")

// Resolver is the DNS capability used for MX lookups.
// *net.Resolver and dnsresolver.Resolver satisfy it.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, name string) ([]*net.MX, error)

func (f ResolverFunc) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return f(ctx, name)
}

// DNSConfig is the MX checker configuration.
type DNSConfig struct {
	// Timeout is the maximum time for the MX lookup.
	Timeout time.Duration
}

// MXChecker verifies the existence of MX records.
type MXChecker struct {
	cfg      DNSConfig
	resolver Resolver
}

// MXResult is the outcome of an MX lookup. Every failure collapses to
// HasMX=false with empty Hosts; Err only describes the cause.
type MXResult struct {
	HasMX bool
	Hosts []string // exchange hostnames in preference order, as returned by DNS
	Err   error
}

// NewMXChecker creates an MX checker. A nil resolver uses the system resolver.
func NewMXChecker(cfg DNSConfig, r Resolver) *MXChecker {
	if r == nil {
		r = &net.Resolver{}
	}
	return &MXChecker{cfg: cfg, resolver: r}
}

// Lookup resolves the MX records of domain. A nonexistent domain, an empty
// answer, an unreachable nameserver and a timeout are all reported the same way.
func (c *MXChecker) Lookup(ctx context.Context, domain string) MXResult {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	mxRecords, err := c.resolver.LookupMX(ctx, domain)
	if err != nil {
		return MXResult{Hosts: []string{}, Err: err}
	}

	// A null MX (RFC 7505, a single "." exchange) is still an answer: it is
	// reported as HasMX with host ".", which the SMTP step cannot dial.
	if len(mxRecords) == 0 {
		return MXResult{Hosts: []string{}, Err: ErrNoMXRecords}
	}

	sorted := make([]*net.MX, len(mxRecords))
	copy(sorted, mxRecords)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pref < sorted[j].Pref
	})

	hosts := make([]string, 0, len(sorted))
	for _, mx := range sorted {
		hosts = append(hosts, mx.Host)
	}
	return MXResult{HasMX: true, Hosts: hosts}
}
