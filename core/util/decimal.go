package util

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"
)

// DecimalCtx is the arithmetic context for all stream amount math. The
// precision is high enough that interval/deposit divisions never round
// before the final quantize step.
var DecimalCtx = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(50)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}()

// truncCtx truncates instead of rounding; used for the smallest-unit
// conversion which must match the on-chain integer representation.
var truncCtx = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(78)
	ctx.Rounding = apd.RoundDown
	return ctx
}()

// RoundToDecimals rounds d half-up to the given number of fractional digits.
func RoundToDecimals(d *apd.Decimal, places uint32) (*apd.Decimal, error) {
	res := new(apd.Decimal)
	if _, err := DecimalCtx.Quantize(res, d, -int32(places)); err != nil {
		return nil, errors.Wrap(err, "failed to round decimal")
	}
	return res, nil
}

// ToSmallestUnits converts a display amount to the token's integer
// representation: amount * 10^decimals, truncated toward zero. This must
// match the on-chain conversion exactly or the displayed deposit would
// differ from the signed transaction.
func ToSmallestUnits(amount *apd.Decimal, decimals uint8) (*big.Int, error) {
	scaled := new(apd.Decimal).Set(amount)
	scaled.Exponent += int32(decimals)
	return DecimalToBigInt(scaled)
}

// SmallestUnitsToDisplay converts an integer token amount back to a display
// value with the given number of fractional digits, rounding half-up.
func SmallestUnitsToDisplay(units *apd.Decimal, decimals uint8, places uint32) (*apd.Decimal, error) {
	scaled := new(apd.Decimal).Set(units)
	scaled.Exponent -= int32(decimals)
	return RoundToDecimals(scaled, places)
}

// ToSmallestUnitsDecimal is ToSmallestUnits with a decimal result, for
// comparisons against pushed balances and allowances.
func ToSmallestUnitsDecimal(amount *apd.Decimal, decimals uint8) (*apd.Decimal, error) {
	scaled := new(apd.Decimal).Set(amount)
	scaled.Exponent += int32(decimals)
	res := new(apd.Decimal)
	if _, err := truncCtx.Quantize(res, scaled, 0); err != nil {
		return nil, errors.Wrap(err, "failed to truncate decimal")
	}
	return res, nil
}

// DecimalToBigInt truncates d to an integer and returns it as a big.Int.
func DecimalToBigInt(d *apd.Decimal) (*big.Int, error) {
	var q apd.Decimal
	if _, err := truncCtx.Quantize(&q, d, 0); err != nil {
		return nil, errors.Wrap(err, "failed to truncate decimal")
	}
	i := new(big.Int).Set(q.Coeff.MathBigInt())
	if q.Negative {
		i.Neg(i)
	}
	// Quantize guarantees exponent 0, so the coefficient is the value.
	return i, nil
}

// MustDecimal parses a decimal literal and panics on failure. Only for
// constants known to be valid.
func MustDecimal(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
