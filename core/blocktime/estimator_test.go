package blocktime

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paystream/sdk-go/core/types"
	"github.com/paystream/sdk-go/core/util"
)

var refTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestEstimator(t *testing.T) *Estimator {
	t.Helper()
	// 10s blocks keep the expected numbers exact
	return NewEstimator(types.BlockRef{
		Number:    1000,
		Timestamp: refTime.Unix(),
	}, util.MustDecimal("10"))
}

func dt(t time.Time) civil.DateTime {
	return civil.DateTimeOf(t)
}

func TestBlockDeltaForInterval(t *testing.T) {
	est := newTestEstimator(t)

	tests := []struct {
		interval types.Interval
		blocks   string
	}{
		{types.IntervalHour, "360"},
		{types.IntervalDay, "8640"},
		{types.IntervalWeek, "60480"},
	}

	for _, tt := range tests {
		t.Run(string(tt.interval), func(t *testing.T) {
			delta, err := est.BlockDeltaForInterval(tt.interval)
			require.NoError(t, err)
			assert.Zero(t, delta.Cmp(util.MustDecimal(tt.blocks)))
		})
	}
}

func TestBlockDeltaForInterval_FractionalUnrounded(t *testing.T) {
	// 14s blocks: one hour is 3600/14 blocks, which is not whole
	est := NewEstimator(types.BlockRef{Number: 0, Timestamp: refTime.Unix()}, util.MustDecimal("14"))
	delta, err := est.BlockDeltaForInterval(types.IntervalHour)
	require.NoError(t, err)

	whole, err := util.DecimalToBigInt(delta)
	require.NoError(t, err)
	assert.NotZero(t, delta.Cmp(util.MustDecimal(whole.String())), "interval delta must stay fractional")
}

func TestBlockDeltaFromNow(t *testing.T) {
	est := newTestEstimator(t)

	t.Run("one hour ahead", func(t *testing.T) {
		block, err := est.BlockDeltaFromNow(dt(refTime.Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, uint64(1360), block)
	})

	t.Run("past target uses absolute delta", func(t *testing.T) {
		block, err := est.BlockDeltaFromNow(dt(refTime.Add(-time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, uint64(1360), block)
	})

	t.Run("rounds only at the end", func(t *testing.T) {
		// 95s at 10s/block is 9.5 blocks, rounds half-up to 10
		block, err := est.BlockDeltaFromNow(dt(refTime.Add(95 * time.Second)))
		require.NoError(t, err)
		assert.Equal(t, uint64(1010), block)
	})
}

func TestComputeStartStopBlocks(t *testing.T) {
	est := newTestEstimator(t)

	t.Run("two weekly intervals", func(t *testing.T) {
		start := refTime.Add(33 * time.Hour)
		stop := start.AddDate(0, 0, 14)

		startBlock, stopBlock, err := est.ComputeStartStopBlocks(dt(start), dt(stop), types.IntervalWeek)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000+11880), startBlock)
		assert.Equal(t, startBlock+2*60480, stopBlock)
	})

	t.Run("stop equals start", func(t *testing.T) {
		start := refTime.Add(time.Hour)
		startBlock, stopBlock, err := est.ComputeStartStopBlocks(dt(start), dt(start), types.IntervalHour)
		require.NoError(t, err)
		assert.Equal(t, startBlock, stopBlock)
	})

	t.Run("stop before start rejected", func(t *testing.T) {
		start := refTime.Add(2 * time.Hour)
		stop := refTime.Add(time.Hour)
		_, _, err := est.ComputeStartStopBlocks(dt(start), dt(stop), types.IntervalHour)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTimeRange))
	})

	t.Run("stop never below start", func(t *testing.T) {
		for _, hours := range []int{1, 5, 26, 100} {
			start := refTime.Add(time.Hour)
			stop := start.Add(time.Duration(hours) * time.Hour)
			startBlock, stopBlock, err := est.ComputeStartStopBlocks(dt(start), dt(stop), types.IntervalHour)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, stopBlock, startBlock, "span of %d hours", hours)
		}
	})
}

func TestIntervalInBlocks(t *testing.T) {
	est := newTestEstimator(t)
	blocks, err := est.IntervalInBlocks(types.IntervalWeek)
	require.NoError(t, err)
	assert.Equal(t, uint64(60480), blocks)

	_, err = est.IntervalInBlocks(types.Interval("bogus"))
	require.Error(t, err)
}

func TestNewEstimator_DefaultBlockTime(t *testing.T) {
	est := NewEstimator(types.BlockRef{Number: 1, Timestamp: refTime.Unix()}, nil)
	assert.Zero(t, est.secondsPerBlock.Cmp(DefaultMainnetBlockTime))
}
