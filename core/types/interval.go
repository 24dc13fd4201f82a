package types

import (
	"github.com/pkg/errors"
)

// Interval is the repeating unit of a payment stream. Each interval maps to
// a fixed minute-duration; the set is defined once at process start.
type Interval string

const (
	IntervalHour  Interval = "hour"
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// minutes in a day, used for the shorter-than-a-day split
const minutesPerDay = 1440

var intervalMinutes = map[Interval]int64{
	IntervalHour:  60,
	IntervalDay:   minutesPerDay,
	IntervalWeek:  7 * minutesPerDay,
	IntervalMonth: 30 * minutesPerDay,
}

// ErrUnknownInterval is returned for values outside the enumerated set.
var ErrUnknownInterval = errors.New("unknown interval")

// Minutes returns the minute-duration of the interval.
func (i Interval) Minutes() (int64, error) {
	minutes, ok := intervalMinutes[i]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownInterval, "%q", string(i))
	}
	return minutes, nil
}

// IsShorterThanADay reports whether the interval repeats more than once per
// day. Streams anchored to daily-or-longer intervals must release at the
// same time of day, so callers realign the stop time for those.
func (i Interval) IsShorterThanADay() (bool, error) {
	minutes, err := i.Minutes()
	if err != nil {
		return false, err
	}
	return minutes < minutesPerDay, nil
}

// IsKnown reports whether the interval is a member of the catalog.
func (i Interval) IsKnown() bool {
	_, ok := intervalMinutes[i]
	return ok
}

// Intervals returns the catalog members in ascending duration order.
func Intervals() []Interval {
	return []Interval{IntervalHour, IntervalDay, IntervalWeek, IntervalMonth}
}
