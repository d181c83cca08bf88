package emailverify

import "github.com/optimode/emailverify/types"

// Result is a re-export from the types package so that consumers
// don't need to import the types package directly.
type Result = types.Result

// Status is a re-export.
type Status = types.Status

// Deliverability is a re-export.
type Deliverability = types.Deliverability

// Status constants re-exported.
const (
	StatusInvalid = types.StatusInvalid
	StatusRisky   = types.StatusRisky
	StatusUnknown = types.StatusUnknown
	StatusValid   = types.StatusValid
)

// Deliverability constants re-exported.
const (
	DeliverableUnknown = types.DeliverableUnknown
	Deliverable        = types.Deliverable
	Undeliverable      = types.Undeliverable
)
