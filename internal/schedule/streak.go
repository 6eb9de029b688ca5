package schedule

import "time"

// DaysBetween counts whole calendar days from a to b using only the date part.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// CalculateStreak walks completion dates, most recent first, and counts the
// run of consecutive days ending at the first one. Repeated dates are ignored.
func CalculateStreak(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	streak := 1
	for i := 1; i < len(dates); i++ {
		gap := DaysBetween(dates[i], dates[i-1])
		if gap == 0 {
			continue
		}
		if gap != 1 {
			break
		}
		streak++
	}
	return streak
}

// ParseDates parses a list of YYYY-MM-DD strings, preserving order.
func ParseDates(values []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := ParseDate(v)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}
