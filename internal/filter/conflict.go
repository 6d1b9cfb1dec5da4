// Package filter separates events that clash with the user's calendar from
// those that fit into free time.
package filter

import (
	"time"

	"github.com/pfrederiksen/nyc-events/internal/calendar"
	"github.com/pfrederiksen/nyc-events/internal/event"
)

// AssumedEventDuration is how long an event is taken to last from its start.
// Listings rarely publish an end time.
const AssumedEventDuration = 2 * time.Hour

// ConflictFilter partitions events against calendar entries
type ConflictFilter struct {
	Parser   event.DateParser
	Duration time.Duration
}

// NewConflictFilter creates a filter using the assumed event duration
func NewConflictFilter(parser event.DateParser) *ConflictFilter {
	return &ConflictFilter{Parser: parser, Duration: AssumedEventDuration}
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(!aEnd.After(bStart) || !aStart.Before(bEnd))
}

// ConflictFor returns the name of the first entry, in entry order, that
// overlaps the event. Events whose start cannot be parsed never conflict.
func (f *ConflictFilter) ConflictFor(evt *event.Event, entries []calendar.Entry) (string, bool) {
	if evt.Start == "" || len(entries) == 0 {
		return "", false
	}

	start, ok := f.Parser.Parse(evt.Start)
	if !ok {
		return "", false
	}
	end := start.Add(f.Duration)

	for _, entry := range entries {
		if Overlaps(start, end, entry.Start, entry.End) {
			return entry.Name, true
		}
	}
	return "", false
}

// Partition splits events into those that fit the calendar and those that
// clash with it. Conflicting events get ConflictWith set.
func (f *ConflictFilter) Partition(events []*event.Event, entries []calendar.Entry) (available, conflicting []*event.Event) {
	available = make([]*event.Event, 0, len(events))
	conflicting = make([]*event.Event, 0)

	for _, evt := range events {
		if name, ok := f.ConflictFor(evt, entries); ok {
			evt.ConflictWith = name
			conflicting = append(conflicting, evt)
			continue
		}
		available = append(available, evt)
	}
	return available, conflicting
}
