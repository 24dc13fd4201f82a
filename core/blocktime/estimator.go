// Package blocktime converts calendar times and payment intervals into
// block-number offsets, given an average seconds-per-block and a chain
// reference (latest block number and timestamp).
package blocktime

import (
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/golang-sql/civil"
	"github.com/pkg/errors"

	"github.com/paystream/sdk-go/core/types"
	"github.com/paystream/sdk-go/core/util"
)

// DefaultMainnetBlockTime is the assumed average seconds per block when the
// chain reference provider does not supply one.
var DefaultMainnetBlockTime = util.MustDecimal("14")

// ErrInvalidTimeRange is returned when the stop time precedes the start time.
var ErrInvalidTimeRange = errors.New("stop time is before start time")

// Estimator holds the reference point for block estimation. Build a fresh
// one from the latest chain reference right before computing blocks so the
// anchor is never stale.
type Estimator struct {
	ref             types.BlockRef
	secondsPerBlock *apd.Decimal
}

// NewEstimator builds an estimator from a chain reference. A nil or
// non-positive secondsPerBlock falls back to DefaultMainnetBlockTime.
func NewEstimator(ref types.BlockRef, secondsPerBlock *apd.Decimal) *Estimator {
	if secondsPerBlock == nil || secondsPerBlock.Sign() <= 0 {
		secondsPerBlock = DefaultMainnetBlockTime
	}
	return &Estimator{ref: ref, secondsPerBlock: secondsPerBlock}
}

// BlockDeltaForInterval returns the fractional block count covering one
// interval: minutes * 60 / secondsPerBlock. The result is deliberately
// unrounded; fractional counts are summed before the final rounding so the
// error never compounds.
func (e *Estimator) BlockDeltaForInterval(interval types.Interval) (*apd.Decimal, error) {
	minutes, err := interval.Minutes()
	if err != nil {
		return nil, err
	}
	seconds := apd.New(minutes*60, 0)
	res := new(apd.Decimal)
	if _, err := util.DecimalCtx.Quo(res, seconds, e.secondsPerBlock); err != nil {
		return nil, errors.Wrap(err, "failed to compute interval block delta")
	}
	return res, nil
}

// IntervalInBlocks is BlockDeltaForInterval rounded to a whole block count,
// as passed in the createStream call.
func (e *Estimator) IntervalInBlocks(interval types.Interval) (uint64, error) {
	delta, err := e.BlockDeltaForInterval(interval)
	if err != nil {
		return 0, err
	}
	return roundToBlock(delta)
}

// BlockDeltaFromNow estimates the block number at which targetTime will be
// mined: reference block + round(|targetTime - referenceTimestamp| /
// secondsPerBlock). Rounding happens once, at the end.
func (e *Estimator) BlockDeltaFromNow(targetTime civil.DateTime) (uint64, error) {
	target := targetTime.In(time.UTC).Unix()
	delta := target - e.ref.Timestamp
	if delta < 0 {
		delta = -delta
	}
	blocks := new(apd.Decimal)
	if _, err := util.DecimalCtx.Quo(blocks, apd.New(delta, 0), e.secondsPerBlock); err != nil {
		return 0, errors.Wrap(err, "failed to compute block delta")
	}
	offset, err := roundToBlock(blocks)
	if err != nil {
		return 0, err
	}
	return e.ref.Number + offset, nil
}

// ComputeStartStopBlocks derives the start and stop blocks for a stream.
// The interval count is kept as an exact decimal, matching the deposit
// math, and only the final stop block is rounded. Guarantees
// stopBlock >= startBlock whenever stopTime >= startTime.
func (e *Estimator) ComputeStartStopBlocks(startTime, stopTime civil.DateTime, interval types.Interval) (startBlock, stopBlock uint64, err error) {
	start := startTime.In(time.UTC)
	stop := stopTime.In(time.UTC)
	if stop.Before(start) {
		return 0, 0, errors.WithStack(ErrInvalidTimeRange)
	}

	startBlock, err = e.BlockDeltaFromNow(startTime)
	if err != nil {
		return 0, 0, err
	}

	minutes, err := interval.Minutes()
	if err != nil {
		return 0, 0, err
	}

	// interval count = (stop - start in minutes) / interval minutes,
	// as exact decimal division
	deltaMinutes := apd.New(int64(stop.Sub(start)/time.Minute), 0)
	intervalCount := new(apd.Decimal)
	if _, err := util.DecimalCtx.Quo(intervalCount, deltaMinutes, apd.New(minutes, 0)); err != nil {
		return 0, 0, errors.Wrap(err, "failed to compute interval count")
	}

	intervalDelta, err := e.BlockDeltaForInterval(interval)
	if err != nil {
		return 0, 0, err
	}

	span := new(apd.Decimal)
	if _, err := util.DecimalCtx.Mul(span, intervalDelta, intervalCount); err != nil {
		return 0, 0, errors.Wrap(err, "failed to compute stream block span")
	}
	total := new(apd.Decimal)
	startDec := apd.NewWithBigInt(new(apd.BigInt).SetUint64(startBlock), 0)
	if _, err := util.DecimalCtx.Add(total, startDec, span); err != nil {
		return 0, 0, errors.Wrap(err, "failed to compute stop block")
	}

	stopBlock, err = roundToBlock(total)
	if err != nil {
		return 0, 0, err
	}
	if stopBlock < startBlock {
		// rounding can never undershoot a non-negative span, but the
		// contract rejects inverted ranges outright
		stopBlock = startBlock
	}
	return startBlock, stopBlock, nil
}

// roundToBlock rounds a decimal block count half-up to a whole block.
func roundToBlock(d *apd.Decimal) (uint64, error) {
	var whole apd.Decimal
	if _, err := util.DecimalCtx.Quantize(&whole, d, 0); err != nil {
		return 0, errors.Wrap(err, "failed to round block count")
	}
	i, err := whole.Int64()
	if err != nil {
		return 0, errors.Wrap(err, "block count out of range")
	}
	if i < 0 {
		return 0, errors.Errorf("negative block count: %d", i)
	}
	return uint64(i), nil
}
