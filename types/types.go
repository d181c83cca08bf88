// Package types contains the shared types for emailverify.
// This package does not import anything from other emailverify packages
// to avoid circular imports.
package types

import (
	"encoding/json"
	"fmt"
)

// Status is the categorical verdict of a verification.
type Status string

const (
	StatusInvalid Status = "invalid"
	StatusRisky   Status = "risky"
	StatusUnknown Status = "unknown"
	StatusValid   Status = "valid"
)

// Deliverability is the three-valued outcome of the SMTP probe.
// The zero value is DeliverableUnknown: a mailbox that was never probed,
// or whose server would not commit, is not an undeliverable one.
type Deliverability int

const (
	DeliverableUnknown Deliverability = iota
	Deliverable
	Undeliverable
)

func (d Deliverability) String() string {
	switch d {
	case Deliverable:
		return "true"
	case Undeliverable:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the deliverability as "true", "false" or "unknown".
func (d Deliverability) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the strings produced by MarshalJSON as well as
// JSON booleans and null.
func (d *Deliverability) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"true"`, "true":
		*d = Deliverable
	case `"false"`, "false":
		*d = Undeliverable
	case `"unknown"`, "null":
		*d = DeliverableUnknown
	default:
		return fmt.Errorf("types: invalid deliverability %s", b)
	}
	return nil
}

// Result is the outcome of one verification. Score and Status are derived
// from IsValidSyntax, HasMX, Deliverable and IsDisposable only.
type Result struct {
	Email         string         `json:"email"`
	IsValidSyntax bool           `json:"isValidSyntax"`
	Domain        string         `json:"domain"`
	IsDisposable  bool           `json:"isDisposable"`
	HasMX         bool           `json:"hasMX"`
	MXRecords     []string       `json:"mxRecords"`
	Deliverable   Deliverability `json:"deliverable"`
	Score         int            `json:"score"`
	Status        Status         `json:"status"`
	ErrorMessage  string         `json:"errorMessage,omitempty"`

	// Side information, never scored.
	Suggestion string `json:"suggestion,omitempty"`
	MXHost     string `json:"mxHost,omitempty"`
	SMTPCode   int    `json:"smtpCode,omitempty"`
}
