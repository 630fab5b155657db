package calendar

import "time"

type Bucket int

const (
	Expired Bucket = iota
	Today
	Upcoming
)

func (b Bucket) String() string {
	switch b {
	case Today:
		return "today"
	case Upcoming:
		return "upcoming"
	default:
		return "expired"
	}
}

// Classify compares calendar dates only: same date is Today, a later date is
// Upcoming, an earlier date is Expired. now is viewed in instant's zone.
func Classify(instant, now time.Time) Bucket {
	a := dateKey(instant)
	b := dateKey(now.In(instant.Location()))
	switch {
	case a == b:
		return Today
	case a > b:
		return Upcoming
	default:
		return Expired
	}
}

// ClassifySpan buckets an event running from start to end.
//
// An event is Today while now's date falls within [start date, end date],
// which keeps multi-day events visible until they finish. When hasEnd is set
// and the end instant has already passed, the event is Expired even on its
// own date. An end before start is treated as equal to start.
func ClassifySpan(start, end time.Time, hasEnd bool, now time.Time) Bucket {
	if end.Before(start) {
		end = start
		hasEnd = false
	}

	if hasEnd && end.Before(now) {
		return Expired
	}

	switch Classify(start, now) {
	case Upcoming:
		return Upcoming
	case Today:
		return Today
	}

	// started on an earlier date
	if Classify(end, now) == Expired {
		return Expired
	}
	return Today
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
