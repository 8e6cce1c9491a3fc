package entity

import "time"

// dateLayout is the calendar-date form used in entry titles and ids.
const dateLayout = "2006-01-02"

// TimeWindow is the half-open UTC interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// YesterdayWindow returns the UTC calendar day before now.
// Start is midnight UTC of the previous day, End is midnight UTC of now's day.
func YesterdayWindow(now time.Time) TimeWindow {
	u := now.UTC()
	end := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return TimeWindow{
		Start: end.AddDate(0, 0, -1),
		End:   end,
	}
}

// Contains reports whether t falls in [Start, End).
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ContainsPtr is Contains for optional timestamps; nil is never contained.
func (w TimeWindow) ContainsPtr(t *time.Time) bool {
	return t != nil && w.Contains(*t)
}

// Since reports whether t is at or after Start, with no upper bound.
func (w TimeWindow) Since(t time.Time) bool {
	return !t.Before(w.Start)
}

// Date returns the window's start date as YYYY-MM-DD.
func (w TimeWindow) Date() string {
	return w.Start.Format(dateLayout)
}
