// Package timeseries provides fixed-step bucket arithmetic shared by the
// rollup and imputation engines. Both walk a time axis at a fixed width; the
// math lives here so the two never disagree on bucket boundaries.
package timeseries

import "time"

// Range is a half-open bucket sequence [Start, End) at a fixed Step.
// Start is aligned down to a step boundary on construction.
type Range struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

// NewRange constructs a bucket range covering [start, end).
func NewRange(start, end time.Time, step time.Duration) Range {
	return Range{
		Start: Bucket(start, step),
		End:   end,
		Step:  step,
	}
}

// Bucket aligns t down to its containing bucket start. Alignment is absolute
// (Unix epoch based), so all callers agree on boundaries; timestamps are
// expected in UTC.
func Bucket(t time.Time, step time.Duration) time.Time {
	return t.Truncate(step)
}

// Count returns the number of buckets in the range.
func (r Range) Count() int {
	if !r.Start.Before(r.End) || r.Step <= 0 {
		return 0
	}
	d := r.End.Sub(r.Start)
	n := int(d / r.Step)
	if d%r.Step != 0 {
		n++
	}
	return n
}

// Each invokes fn for every bucket start in order.
func (r Range) Each(fn func(bucket time.Time)) {
	if r.Step <= 0 {
		return
	}
	for t := r.Start; t.Before(r.End); t = t.Add(r.Step) {
		fn(t)
	}
}

// Buckets materializes every bucket start in order.
func (r Range) Buckets() []time.Time {
	out := make([]time.Time, 0, r.Count())
	r.Each(func(b time.Time) {
		out = append(out, b)
	})
	return out
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// DayWindow returns the half-open window [day, day+1) for a calendar day,
// with the input truncated to midnight UTC.
func DayWindow(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
