package schedule

import (
	"slices"
	"time"
)

var distributedDays = map[int][]time.Weekday{
	1: {time.Wednesday},
	2: {time.Tuesday, time.Friday},
	3: {time.Monday, time.Wednesday, time.Friday},
	4: {time.Monday, time.Tuesday, time.Thursday, time.Friday},
	5: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	6: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	7: {time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
}

// DistributedDays returns the preferred weekdays for an "n times per week"
// goal. Counts outside 1..7 use the three-day pattern.
func DistributedDays(timesPerWeek int) []time.Weekday {
	days, ok := distributedDays[timesPerWeek]
	if !ok {
		days = distributedDays[3]
	}
	return slices.Clone(days)
}
