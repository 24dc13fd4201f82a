// Package validation holds the per-field validators for a stream draft.
// Each validator is a pure function of the draft and the external context,
// returning nil or one specific rejection; none of them short-circuit the
// others. Rejections are values, not errors.
package validation

import (
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/paystream/sdk-go/core/deposit"
	"github.com/paystream/sdk-go/core/types"
	"github.com/paystream/sdk-go/core/util"
)

// ValidateToken rejects any token whose symbol is not on the accepted list.
func ValidateToken(d *types.StreamDraft, c *Context) *types.Rejection {
	if !c.TokenAccepted(d.TokenSymbol) {
		return &types.Rejection{Code: types.ReasonTokenNotAccepted}
	}
	return nil
}

// ValidatePayment validates the per-interval payment against the raw input
// label and, when a balance is known, against the account's balance.
//
// The label check runs on the literal the user typed, stripped of spaces
// and the token-symbol suffix. Labels with a fractional part starting in
// "0.0" that round to zero at three decimals are rejected as zero; this
// intentionally also catches sub-resolution values like "0.0001".
func ValidatePayment(d *types.StreamDraft, c *Context) *types.Rejection {
	label := strings.ReplaceAll(d.PaymentLabel, " ", "")
	if d.TokenSymbol != "" {
		label = strings.ReplaceAll(label, d.TokenSymbol, "")
	}

	parts := strings.Split(label, ".")
	if len(parts) < 2 {
		if d.Payment != nil && d.Payment.Negative {
			return &types.Rejection{Code: types.ReasonPaymentZero}
		}
	} else {
		if strings.HasPrefix(label, "0.0") && roundsToZero(label, d.Payment) {
			return &types.Rejection{Code: types.ReasonPaymentZero}
		}
		if len(parts[1]) > deposit.DepositDecimals {
			return &types.Rejection{Code: types.ReasonPaymentDecimalsTooLong}
		}
	}

	if rej := validateBalance(d, c); rej != nil {
		return rej
	}

	if d.Submitted && (d.Payment == nil || d.Payment.IsZero()) && d.PaymentLabel == "" {
		return &types.Rejection{Code: types.ReasonRequiredFieldMissing}
	}
	return nil
}

// validateBalance rejects when the derived deposit, in smallest units,
// exceeds the known balance for (token, account). An unknown balance is
// not yet validated.
func validateBalance(d *types.StreamDraft, c *Context) *types.Rejection {
	bal, ok := c.BalanceFor(d.TokenAddress, c.Account)
	if !ok || bal.Value == nil || d.Deposit == nil {
		return nil
	}

	depositUnits, err := util.ToSmallestUnitsDecimal(d.Deposit, bal.Decimals)
	if err != nil {
		return nil
	}
	if depositUnits.Cmp(bal.Value) > 0 {
		display, err := util.SmallestUnitsToDisplay(bal.Value, bal.Decimals, 2)
		if err != nil {
			display = new(apd.Decimal)
		}
		return &types.Rejection{
			Code:        types.ReasonPaymentInsufficientBalance,
			Balance:     display.Text('f'),
			TokenSymbol: d.TokenSymbol,
		}
	}
	return nil
}

// ValidateInterval soft-passes an untouched empty interval and otherwise
// requires a catalog member.
func ValidateInterval(d *types.StreamDraft, _ *Context) *types.Rejection {
	if !d.Submitted && d.Interval == "" {
		return nil
	}
	if !d.Interval.IsKnown() {
		return &types.Rejection{Code: types.ReasonIntervalInvalid}
	}
	return nil
}

// ValidateTimes checks the time range: a touched draft must have a stop
// time, stop may not precede start, and a non-zero duration must span at
// least one full interval.
func ValidateTimes(d *types.StreamDraft, _ *Context) *types.Rejection {
	if d.Submitted && d.StopTime == nil {
		return &types.Rejection{Code: types.ReasonRequiredFieldMissing}
	}

	if d.StartTime != nil && d.StopTime != nil {
		if d.StopTime.In(time.UTC).Before(d.StartTime.In(time.UTC)) {
			return &types.Rejection{Code: types.ReasonStopBeforeStart}
		}
	}

	if minutes, err := d.Interval.Minutes(); err == nil {
		if d.DurationMinutes != 0 && d.DurationMinutes < minutes {
			return &types.Rejection{Code: types.ReasonDurationShorterThanInterval}
		}
	}
	return nil
}

// ValidateRecipient soft-passes an untouched empty recipient and otherwise
// requires a syntactically valid address different from the sender.
func ValidateRecipient(d *types.StreamDraft, c *Context) *types.Rejection {
	if !d.Submitted && d.Recipient == "" {
		return nil
	}
	if !util.IsValidAddress(d.Recipient) {
		return &types.Rejection{Code: types.ReasonRecipientInvalid}
	}
	if util.SameAddress(c.Account, d.Recipient) {
		return &types.Rejection{Code: types.ReasonRecipientIsSelf}
	}
	return nil
}

// EvaluateAll runs every field validator and returns the rejection map.
func EvaluateAll(d *types.StreamDraft, c *Context) types.RejectionMap {
	m := make(types.RejectionMap)
	if rej := ValidateToken(d, c); rej != nil {
		m[types.FieldToken] = rej
	}
	if rej := ValidatePayment(d, c); rej != nil {
		m[types.FieldPayment] = rej
	}
	if rej := ValidateInterval(d, c); rej != nil {
		m[types.FieldInterval] = rej
	}
	if rej := ValidateTimes(d, c); rej != nil {
		m[types.FieldTimes] = rej
	}
	if rej := ValidateRecipient(d, c); rej != nil {
		m[types.FieldRecipient] = rej
	}
	return m
}

// IsSubmittable is the overall deposit gate: every required field present
// and a positive derived deposit. It is independent of the per-field map;
// Submit requires both.
func IsSubmittable(d *types.StreamDraft, _ *Context) bool {
	if d.TokenAddress == "" {
		return false
	}
	if d.Payment == nil || d.Payment.IsZero() {
		return false
	}
	if !d.Interval.IsKnown() {
		return false
	}
	if d.StartTime == nil || d.StopTime == nil {
		return false
	}
	if !util.IsValidAddress(d.Recipient) {
		return false
	}
	return d.HasDeposit()
}

// NeedsApproval reports whether the stream contract's spending allowance
// for the selected token is not strictly greater than the required deposit
// in smallest units. Native tokens never need approval; an unknown
// allowance is treated as insufficient.
func NeedsApproval(d *types.StreamDraft, c *Context) bool {
	if d.IsNativeToken() {
		return false
	}
	allowance, ok := c.AllowanceFor(c.ContractAddress, d.TokenAddress, c.Account)
	if !ok || allowance.Value == nil {
		return true
	}
	if d.Deposit == nil {
		return true
	}
	depositUnits, err := util.ToSmallestUnitsDecimal(d.Deposit, allowance.Decimals)
	if err != nil {
		return true
	}
	return allowance.Value.Cmp(depositUnits) <= 0
}

// roundsToZero reports whether the typed literal (or, failing a parse, the
// parsed payment) is zero at deposit resolution.
func roundsToZero(label string, payment *apd.Decimal) bool {
	value, _, err := apd.NewFromString(label)
	if err != nil {
		if payment == nil {
			return false
		}
		value = payment
	}
	rounded, err := util.RoundToDecimals(value, deposit.DepositDecimals)
	if err != nil {
		return false
	}
	return rounded.IsZero()
}
