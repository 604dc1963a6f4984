package report

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form accepted for query bounds.
const DateLayout = "2006-01-02"

// ParseOrderQuery builds a query from user-supplied bounds. Each bound may be
// empty, a date, or an RFC 3339 timestamp. A date covers the whole local day:
// its first instant as a start bound, its last instant as an end bound.
func ParseOrderQuery(start, end string, f OrderFilter) (OrderQuery, error) {
	q := OrderQuery{Filter: f}
	var err error
	if q.Start, err = parseBound(start, false); err != nil {
		return q, fmt.Errorf("invalid start: %w", err)
	}
	if q.End, err = parseBound(end, true); err != nil {
		return q, fmt.Errorf("invalid end: %w", err)
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return q, fmt.Errorf("end %s is before start %s", q.End.Format(time.RFC3339), q.Start.Format(time.RFC3339))
	}
	return q, nil
}

func parseBound(s string, end bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		if end {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
