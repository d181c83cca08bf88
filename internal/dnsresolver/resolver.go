// Package dnsresolver queries explicit nameservers for MX records using
// github.com/miekg/dns. It is used instead of the system resolver when
// nameservers are configured.
package dnsresolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	mdns "github.com/miekg/dns"
)

var (
	// ErrNotFound is returned for NXDOMAIN and for answers without MX records.
	ErrNotFound = errors.New("dnsresolver: no records found")
	// ErrServFail is returned when every nameserver answered SERVFAIL.
	ErrServFail = errors.New("dnsresolver: server failure")
	// ErrRefused is returned when every nameserver refused the query.
	ErrRefused = errors.New("dnsresolver: query refused")
	// ErrNoNameservers is returned by New for an empty server list.
	ErrNoNameservers = errors.New("dnsresolver: no nameservers configured")
)

// Config contains configuration for the resolver.
type Config struct {
	// Nameservers to query in order, e.g. "8.8.8.8:53". Port 53 is assumed
	// when missing.
	Nameservers []string

	// Timeout for each individual query. Default is 5 seconds.
	Timeout time.Duration
}

// Resolver sends MX queries to the configured nameservers. Each server is
// tried once; there are no retries and no caching.
type Resolver struct {
	servers []string
	client  *mdns.Client
}

func New(cfg Config) (*Resolver, error) {
	if len(cfg.Nameservers) == 0 {
		return nil, ErrNoNameservers
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	servers := make([]string, 0, len(cfg.Nameservers))
	for _, s := range cfg.Nameservers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		servers = append(servers, s)
	}

	return &Resolver{
		servers: servers,
		client:  &mdns.Client{Timeout: cfg.Timeout},
	}, nil
}

// LookupMX returns the MX records of name in answer order.
func (r *Resolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(name), mdns.TypeMX)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, _, err := r.client.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = fmt.Errorf("dnsresolver: query %s: %w", server, err)
			continue
		}

		switch resp.Rcode {
		case mdns.RcodeSuccess:
			return mxRecords(resp)
		case mdns.RcodeNameError:
			return nil, ErrNotFound
		case mdns.RcodeServerFailure:
			lastErr = ErrServFail
		case mdns.RcodeRefused:
			lastErr = ErrRefused
		default:
			lastErr = fmt.Errorf("dnsresolver: unexpected rcode %s", mdns.RcodeToString[resp.Rcode])
		}
	}
	return nil, lastErr
}

func mxRecords(resp *mdns.Msg) ([]*net.MX, error) {
	var records []*net.MX
	for _, rr := range resp.Answer {
		if mx, ok := rr.(*mdns.MX); ok {
			records = append(records, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}
