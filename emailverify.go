// Package emailverify is an email deliverability verification engine. It
// checks an address at the syntax, disposable-domain, MX and SMTP levels and
// folds the evidence into one score and status.
//
// Basic usage:
//
//	v := emailverify.New(emailverify.DefaultConfig())
//	result, err := v.Verify(ctx, "user@example.com")
//
// With custom identity and nameservers:
//
//	cfg := emailverify.DefaultConfig()
//	cfg.HeloIdentity = "mx.myapp.com"
//	cfg.VerificationSender = "verify@myapp.com"
//	cfg.Nameservers = []string{"1.1.1.1:53"}
//	result, err := emailverify.New(cfg).WithLogger(log).Verify(ctx, "user@example.com")
//
// A server that refuses, greylists or never answers yields an unknown
// deliverability, never an invalid address.
package emailverify
