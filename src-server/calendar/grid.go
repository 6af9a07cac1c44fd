package calendar

import (
	"casal/src-server/model"
	"time"
)

// Cell is one slot of the month grid. Leading alignment slots have a
// nil Date and no events. Cells are rebuilt on every input change and
// never mutated in place.
type Cell struct {
	Date   *time.Time    `json:"date"`
	Events []model.Event `json:"events"`
}

// DayKey returns the cell's YYYY-MM-DD key, or "" for a blank cell.
func (c Cell) DayKey() string {
	if c.Date == nil {
		return ""
	}
	return c.Date.Format(model.DateLayout)
}

// BuildMonthGrid lays a month out as an ordered cell list: blank cells
// to align the first day on a Monday-first week, then one cell per day
// holding every event whose closed [start, end] range covers that day.
// Multi-day events land on each day they span, and within a cell events
// keep the input order (start date ascending from the gateway).
func BuildMonthGrid(events []model.Event, year int, month time.Month) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	// time.Weekday is Sunday-first; shift so Monday gets no blanks
	leading := (int(first.Weekday()) + 6) % 7

	cells := make([]Cell, 0, leading+last.Day())
	for i := 0; i < leading; i++ {
		cells = append(cells, Cell{Events: []model.Event{}})
	}

	for day := 1; day <= last.Day(); day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		key := date.Format(model.DateLayout)

		dayEvents := []model.Event{}
		for _, ev := range events {
			if ev.CoversDay(key) {
				dayEvents = append(dayEvents, ev)
			}
		}

		cells = append(cells, Cell{Date: &date, Events: dayEvents})
	}

	return cells
}

// FindCell returns the cell matching a YYYY-MM-DD key, if any.
func FindCell(cells []Cell, dayKey string) (Cell, bool) {
	for _, cell := range cells {
		if cell.Date != nil && cell.DayKey() == dayKey {
			return cell, true
		}
	}
	return Cell{}, false
}

// NextMonth advances one month, rolling the year over past December.
func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// PrevMonth retreats one month, rolling the year back past January.
func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
