package emailverify

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/optimode/emailverify/check"
	"github.com/optimode/emailverify/internal/disposable"
	"github.com/optimode/emailverify/internal/dnsresolver"
	"github.com/optimode/emailverify/internal/parse"
	"github.com/optimode/emailverify/internal/smtpclient"
)

// Verifier runs the verification pipeline. Instantiate with New and
// optionally replace its collaborators with the With* methods before the
// first Verify. After that it is read-only and safe for concurrent use;
// every Verify call is independent.
type Verifier struct {
	cfg     Config
	err     error // configuration error, returned on Verify()
	domains *check.DomainChecker
	mx      *check.MXChecker
	smtp    *check.SMTPProber
	log     logrus.FieldLogger
}

// New creates a Verifier from cfg. An invalid configuration is not reported
// here but by every Verify call, so that New can be chained.
func New(cfg Config) *Verifier {
	v := &Verifier{cfg: cfg, log: discardLogger()}
	if err := cfg.Validate(); err != nil {
		v.err = err
		return v
	}

	var set disposable.Set
	if cfg.DisposableDomains != nil {
		domains := make([]string, 0, len(cfg.DisposableDomains))
		for d := range cfg.DisposableDomains {
			domains = append(domains, d)
		}
		set = disposable.NewSet(domains...)
	}
	v.domains = check.NewDomainChecker(check.DomainConfig{
		Disposable:     set,
		TypoThreshold:  cfg.TypoThreshold,
		KnownProviders: cfg.KnownProviders,
	})

	var resolver check.Resolver
	if len(cfg.Nameservers) > 0 {
		r, err := dnsresolver.New(dnsresolver.Config{
			Nameservers: cfg.Nameservers,
			Timeout:     cfg.DNSTimeout,
		})
		if err != nil {
			v.err = fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			return v
		}
		resolver = r
	}
	v.mx = check.NewMXChecker(check.DNSConfig{Timeout: cfg.DNSTimeout}, resolver)

	client, err := smtpclient.New(smtpclient.Config{
		HeloDomain: cfg.HeloIdentity,
		MailFrom:   cfg.VerificationSender,
		Port:       cfg.SMTPPort,
		Timeout:    cfg.SMTPTimeout,
		ProxyURL:   cfg.ProxyURL,
	})
	if err != nil {
		v.err = fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		return v
	}
	v.smtp = check.NewSMTPProber(check.SMTPConfig{Timeout: cfg.SMTPTimeout}, client)
	return v
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// WithResolver replaces the DNS resolver used for MX lookups.
func (v *Verifier) WithResolver(r check.Resolver) *Verifier {
	if v.err == nil {
		v.mx = check.NewMXChecker(check.DNSConfig{Timeout: v.cfg.DNSTimeout}, r)
	}
	return v
}

// WithProber replaces the SMTP probe implementation.
func (v *Verifier) WithProber(p check.Prober) *Verifier {
	if v.err == nil {
		v.smtp = check.NewSMTPProber(check.SMTPConfig{Timeout: v.cfg.SMTPTimeout}, p)
	}
	return v
}

// WithLogger sets the logger. Steps are logged at debug level.
func (v *Verifier) WithLogger(l logrus.FieldLogger) *Verifier {
	if l != nil {
		v.log = l
	}
	return v
}

// Verify runs the pipeline on email. The pipeline short-circuits on invalid
// syntax and on a domain without MX records. DNS and SMTP failures never
// surface as errors: they become hasMX=false and an unknown deliverability.
// The error return is reserved for a nil context and an invalid Config.
func (v *Verifier) Verify(ctx context.Context, email string) (Result, error) {
	if v.err != nil {
		return Result{}, v.err
	}
	if ctx == nil {
		return Result{}, ErrNilContext
	}

	result := Result{Email: email, MXRecords: []string{}}
	signals := check.Signals{}
	log := v.log.WithField("email", email)

	signals.ValidSyntax = check.ValidSyntax(email)
	result.IsValidSyntax = signals.ValidSyntax
	if !signals.ValidSyntax {
		log.Debug("invalid syntax")
		return v.finish(result, signals), nil
	}

	parsed := parse.NewEmail(email)
	result.Domain = parsed.Domain
	signals.Disposable = v.domains.IsDisposable(parsed.Domain)
	result.IsDisposable = signals.Disposable
	result.Suggestion = v.domains.Suggest(parsed.Domain)
	log = log.WithField("domain", parsed.Domain)

	mx := v.mx.Lookup(ctx, parsed.Domain)
	signals.HasMX = mx.HasMX
	result.HasMX = mx.HasMX
	result.MXRecords = mx.Hosts
	if !mx.HasMX {
		log.WithError(mx.Err).Debug("no MX records")
		return v.finish(result, signals), nil
	}

	mxHost := strings.TrimSuffix(mx.Hosts[0], ".")
	result.MXHost = mxHost
	log = log.WithField("mx_host", mxHost)

	if mxHost == "" {
		// Null MX: nothing to dial, the mailbox cannot be confirmed.
		log.Debug("null MX, smtp probe skipped")
		return v.finish(result, signals), nil
	}

	probe := v.smtp.Probe(ctx, mxHost, email)
	signals.Deliverable = probe.Deliverable
	result.Deliverable = probe.Deliverable
	result.SMTPCode = probe.Code
	if probe.Err != nil {
		log.WithError(probe.Err).Debug("smtp probe inconclusive")
	} else {
		log.WithField("smtp_code", probe.Code).Debug("smtp probe answered")
	}

	return v.finish(result, signals), nil
}

// finish applies the scoring rules; they are the only source of score,
// status and the diagnostic message.
func (v *Verifier) finish(result Result, s check.Signals) Result {
	verdict := check.Evaluate(s)
	result.Score = verdict.Score
	result.Status = verdict.Status
	result.ErrorMessage = verdict.Message
	v.log.WithFields(logrus.Fields{
		"email":  result.Email,
		"score":  result.Score,
		"status": result.Status,
	}).Debug("verification finished")
	return result
}

// compile-time checks
var (
	_ check.Resolver = (*net.Resolver)(nil)
	_ check.Resolver = (*dnsresolver.Resolver)(nil)
	_ check.Prober   = (*smtpclient.Client)(nil)
)
