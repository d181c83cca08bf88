package check

import (
	"context"
	"time"

	"github.com/optimode/emailverify/types"
)

// Prober is the SMTP capability: it runs one RCPT TO probe against mxHost
// and returns the reply code. Any failure before the RCPT reply is read is
// returned as an error. smtpclient.Client satisfies it.
type Prober interface {
	CheckRCPT(ctx context.Context, mxHost, email string) (code int, msg string, err error)
}

// SMTPConfig is the SMTP checker configuration.
type SMTPConfig struct {
	// Timeout bounds the whole probe, including the TCP connect.
	Timeout time.Duration
}

// SMTPProber performs the SMTP RCPT TO probe and classifies its outcome.
type SMTPProber struct {
	cfg    SMTPConfig
	prober Prober
}

// ProbeResult is the outcome of one probe. Err is informational only:
// a failed probe is Unknown, never an error for the caller.
type ProbeResult struct {
	Deliverable types.Deliverability
	Code        int // RCPT TO reply code, 0 if none was read
	Message     string
	Err         error
}

func NewSMTPProber(cfg SMTPConfig, p Prober) *SMTPProber {
	return &SMTPProber{cfg: cfg, prober: p}
}

// Probe asks mxHost whether it would accept mail for email. It makes exactly
// one attempt.
func (c *SMTPProber) Probe(ctx context.Context, mxHost, email string) ProbeResult {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	code, msg, err := c.prober.CheckRCPT(ctx, mxHost, email)
	if err != nil {
		return ProbeResult{Deliverable: types.DeliverableUnknown, Err: err}
	}
	return ProbeResult{
		Deliverable: ClassifyRCPT(code),
		Code:        code,
		Message:     msg,
	}
}

// ClassifyRCPT maps an RCPT TO reply code to a deliverability.
// Only 250 confirms the mailbox and only 550-553 deny it; greylisting,
// temporary failures and policy rejections are inconclusive.
func ClassifyRCPT(code int) types.Deliverability {
	switch code {
	case 250:
		return types.Deliverable
	case 550, 551, 552, 553:
		return types.Undeliverable
	default:
		return types.DeliverableUnknown
	}
}
