package keyfilter

import (
	"sort"
	"time"
)

// Criteria selects objects by device identifier and an inclusive date range.
// It is immutable once built; only calendar days are compared.
type Criteria struct {
	ids   map[int64]struct{}
	start time.Time
	end   time.Time
}

// NewCriteria normalizes start and end to the calendar day they fall on in their
// own location, dropping any time of day.
func NewCriteria(deviceIDs []int64, start, end time.Time) Criteria {
	ids := make(map[int64]struct{}, len(deviceIDs))
	for _, id := range deviceIDs {
		ids[id] = struct{}{}
	}
	return Criteria{
		ids:   ids,
		start: Day(start),
		end:   Day(end),
	}
}

// Day returns midnight UTC of t's calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c Criteria) Start() time.Time { return c.start }
func (c Criteria) End() time.Time   { return c.end }

// DeviceIDs returns the identifier set in ascending order.
func (c Criteria) DeviceIDs() []int64 {
	out := make([]int64, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasDevice reports whether id is one of the requested devices.
func (c Criteria) HasDevice(id int64) bool {
	_, ok := c.ids[id]
	return ok
}

// InRange reports whether date's calendar day lies within [start, end].
func (c Criteria) InRange(date time.Time) bool {
	day := Day(date)
	return !day.Before(c.start) && !day.After(c.end)
}
