// Package aging measures how long active production orders have been open in
// business days and buckets them by urgency.
package aging

import (
	"strconv"
	"time"
)

type Bucket string

const (
	BucketNormal   Bucket = "normal"
	BucketWarning  Bucket = "warning"
	BucketUrgent   Bucket = "urgent"
	BucketCritical Bucket = "critical"
)

const criticalDays = 10

// BucketFor maps elapsed business days to a bucket.
func BucketFor(days int) Bucket {
	switch {
	case days >= criticalDays:
		return BucketCritical
	case days >= 8:
		return BucketUrgent
	case days >= 5:
		return BucketWarning
	default:
		return BucketNormal
	}
}

// Label is the display value, capped at "10+".
func Label(days int) string {
	if days >= criticalDays {
		return strconv.Itoa(criticalDays) + "+"
	}
	return strconv.Itoa(days)
}

// BusinessDaysBetween counts the Monday to Friday dates after start up to and
// including now, both taken as calendar dates in now's location.
func BusinessDaysBetween(start, now time.Time) int {
	loc := now.Location()
	from := dateOf(start.In(loc))
	to := dateOf(now)
	if !to.After(from) {
		return 0
	}

	days := int(to.Sub(from).Hours()/24 + 0.5)
	count := days / 7 * 5
	day := from.AddDate(0, 0, days/7*7)
	for day.Before(to) {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
