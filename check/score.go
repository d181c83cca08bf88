package check

import "github.com/optimode/emailverify/types"

// Score contributions.
const (
	PointsSyntax        = 25
	PointsMX            = 25
	PointsDeliverable   = 40
	PointsUnknown       = 20
	PointsNotDisposable = 10
	MaxScore            = 100
)

// Diagnostic messages attached to each verdict.
const (
	MsgInvalidSyntax = "invalid email format"
	MsgNoMX          = "domain has no MX records, mail will not be delivered"
	MsgUndeliverable = "mailbox does not exist on the server"
	MsgUnknown       = "could not verify mailbox existence (the server did not respond or blocked the check)"
	MsgDisposable    = "disposable email address, it may be deleted at any time"
)

// Signals are the inputs of the scoring rules.
type Signals struct {
	ValidSyntax bool
	HasMX       bool
	Deliverable types.Deliverability
	Disposable  bool
}

// Verdict is the score, status and diagnostic derived from Signals.
type Verdict struct {
	Score   int
	Status  types.Status
	Message string
}

// Evaluate applies the scoring rules in fixed precedence:
// invalid syntax, then missing MX, then the additive score with a status
// taken from deliverability. The disposable override to risky applies only
// to the valid and unknown outcomes; a rejected mailbox stays invalid.
func Evaluate(s Signals) Verdict {
	if !s.ValidSyntax {
		return Verdict{Score: 0, Status: types.StatusInvalid, Message: MsgInvalidSyntax}
	}
	if !s.HasMX {
		return Verdict{Score: PointsSyntax, Status: types.StatusInvalid, Message: MsgNoMX}
	}

	score := PointsSyntax + PointsMX
	switch s.Deliverable {
	case types.Deliverable:
		score += PointsDeliverable
	case types.DeliverableUnknown:
		score += PointsUnknown
	}
	if !s.Disposable {
		score += PointsNotDisposable
	}
	score = min(score, MaxScore)

	var v Verdict
	switch s.Deliverable {
	case types.Undeliverable:
		return Verdict{Score: score, Status: types.StatusInvalid, Message: MsgUndeliverable}
	case types.Deliverable:
		v = Verdict{Score: score, Status: types.StatusValid}
	default:
		v = Verdict{Score: score, Status: types.StatusUnknown, Message: MsgUnknown}
	}
	if s.Disposable {
		v.Status = types.StatusRisky
		v.Message = MsgDisposable
	}
	return v
}
