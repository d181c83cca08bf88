// Package check contains the individual verification steps of emailverify:
// syntax, domain classification, MX lookup, the SMTP RCPT probe and the
// scoring rules that fold their signals into a score and a status.
// These types can be used directly, but the recommended approach is
// to use the Verifier from the github.com/optimode/emailverify package.
package check
