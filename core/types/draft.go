package types

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/golang-sql/civil"
)

// NativeToken is the sentinel token address for the chain's native asset,
// which needs no spending approval.
const NativeToken = "ETH"

// SubmissionStatus tracks the lifecycle of a draft's submission.
type SubmissionStatus string

const (
	StatusIdle             SubmissionStatus = "idle"
	StatusValidating       SubmissionStatus = "validating"
	StatusAwaitingApproval SubmissionStatus = "awaiting-approval"
	StatusSubmitting       SubmissionStatus = "submitting"
	StatusPending          SubmissionStatus = "pending"
	StatusSettled          SubmissionStatus = "settled"
	StatusFailed           SubmissionStatus = "failed"
)

// InFlight reports whether a submission is already underway; a second
// Submit while in flight is a no-op.
func (s SubmissionStatus) InFlight() bool {
	return s == StatusSubmitting || s == StatusPending
}

// StreamDraft is the mutable entity edited by the user. Duration and deposit
// are derived: they are recomputed on every field change and never set
// directly.
type StreamDraft struct {
	TokenAddress string
	TokenSymbol  string

	// Payment is the parsed per-interval amount; PaymentLabel keeps the raw
	// input (with the token-symbol suffix) for literal validation.
	Payment      *apd.Decimal
	PaymentLabel string

	Interval Interval // empty until chosen

	MinTime   *civil.DateTime // earliest allowed start, now + safety margin
	StartTime *civil.DateTime
	StopTime  *civil.DateTime

	DurationMinutes int64
	Deposit         *apd.Decimal

	Recipient string

	// Submitted flips to true on the first submit attempt; untouched
	// optional fields soft-pass validation until then.
	Submitted       bool
	Status          SubmissionStatus
	SubmissionError string

	// StreamID is set once the created stream is discovered on-chain.
	StreamID string
}

// DepositOrZero returns the derived deposit, or zero when not yet computable.
func (d *StreamDraft) DepositOrZero() *apd.Decimal {
	if d.Deposit == nil {
		return new(apd.Decimal)
	}
	return d.Deposit
}

// HasDeposit reports whether a non-zero deposit has been derived.
func (d *StreamDraft) HasDeposit() bool {
	return d.Deposit != nil && !d.Deposit.IsZero()
}

// IsNativeToken reports whether the selected token needs no approval flow.
func (d *StreamDraft) IsNativeToken() bool {
	return d.TokenAddress == "" || d.TokenAddress == NativeToken
}
