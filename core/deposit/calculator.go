// Package deposit derives a stream's minute-duration from its start/stop
// pair and the total deposit from duration, interval and per-interval
// payment, with fixed 3-decimal rounding.
package deposit

import (
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/golang-sql/civil"
	"github.com/pkg/errors"

	"github.com/paystream/sdk-go/core/types"
	"github.com/paystream/sdk-go/core/util"
)

// DepositDecimals is the fixed display precision for deposits. It must
// match the on-chain smallest-unit conversion to the cent, or the shown
// deposit would mismatch the signed transaction.
const DepositDecimals = 3

// MinStartMargin is the safety margin added to "now" for the earliest
// allowed start time. The mined start block must still be in the future
// when the transaction lands, so drafts may not start sooner than this.
const MinStartMargin = 15 * time.Minute

// minStopMinutes is the floor on a stream's span below one interval: a
// stream always covers at least an hour.
const minStopMinutes = 60

// RecomputeDuration derives the stream duration in minutes from a start and
// stop time. For intervals of a day or longer the stop time's hour and
// minute are realigned to the start time's, so the stream repeats at the
// same time of day; the realigned stop time is returned alongside the
// duration. A nil stop time yields zero and is not an error.
func RecomputeDuration(startTime, stopTime *civil.DateTime, interval types.Interval) (int64, *civil.DateTime, error) {
	if startTime == nil || stopTime == nil {
		return 0, stopTime, nil
	}

	stop := *stopTime
	if interval.IsKnown() {
		shorter, err := interval.IsShorterThanADay()
		if err != nil {
			return 0, nil, err
		}
		if !shorter {
			stop.Time.Hour = startTime.Time.Hour
			stop.Time.Minute = startTime.Time.Minute
			stop.Time.Second = 0
			stop.Time.Nanosecond = 0
		}
	}

	delta := stop.In(time.UTC).Sub(startTime.In(time.UTC))
	minutes := int64(delta / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	return minutes, &stop, nil
}

// RecomputeDeposit derives the total deposit:
// round3(duration / intervalMinutes * max(payment, 0)). It is zero when the
// interval, payment or token is absent. Rounding is half-up to three
// decimals.
func RecomputeDeposit(durationMinutes int64, interval types.Interval, payment *apd.Decimal, tokenAddress string) (*apd.Decimal, error) {
	if !interval.IsKnown() || payment == nil || tokenAddress == "" {
		return new(apd.Decimal), nil
	}

	minutes, err := interval.Minutes()
	if err != nil {
		return nil, err
	}

	pay := payment
	if pay.Negative {
		pay = new(apd.Decimal)
	}

	intervals := new(apd.Decimal)
	if _, err := util.DecimalCtx.Quo(intervals, apd.New(durationMinutes, 0), apd.New(minutes, 0)); err != nil {
		return nil, errors.Wrap(err, "failed to compute interval count")
	}
	raw := new(apd.Decimal)
	if _, err := util.DecimalCtx.Mul(raw, intervals, pay); err != nil {
		return nil, errors.Wrap(err, "failed to compute deposit")
	}
	return util.RoundToDecimals(raw, DepositDecimals)
}

// MinStartTime returns the earliest allowed start time: now plus the safety
// margin, truncated to minute granularity.
func MinStartTime(clock types.Clock) civil.DateTime {
	t := clock.Now().UTC().Add(MinStartMargin).Truncate(time.Minute)
	return civil.DateTimeOf(t)
}

// MinStopTime returns the earliest allowed stop time for a start time and
// interval: start + max(interval minutes, 60).
func MinStopTime(startTime civil.DateTime, interval types.Interval) civil.DateTime {
	minutes := int64(minStopMinutes)
	if ivMinutes, err := interval.Minutes(); err == nil && ivMinutes > minutes {
		minutes = ivMinutes
	}
	t := startTime.In(time.UTC).Add(time.Duration(minutes) * time.Minute)
	return civil.DateTimeOf(t)
}
