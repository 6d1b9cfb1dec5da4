package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/pfrederiksen/nyc-events/internal/event"
)

// ExportICS writes the events that have a parsed start time as an iCalendar
// file, one VEVENT each lasting duration. UIDs are derived from the event URL
// so re-importing the same digest updates instead of duplicating.
func ExportICS(w io.Writer, events []*event.Event, duration time.Duration, now time.Time) (int, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//nyc-events//nyc-events//EN")

	written := 0
	for _, evt := range events {
		if evt.ParsedStart == nil {
			continue
		}

		ve := cal.AddEvent(EventUID(evt))
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(*evt.ParsedStart)
		ve.SetEndAt(evt.ParsedStart.Add(duration))
		ve.SetSummary(evt.Name)
		ve.SetLocation(evt.Location)
		ve.SetURL(evt.URL)
		ve.SetDescription(fmt.Sprintf("%s event\n%s", evt.Source, evt.URL))
		written++
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return 0, fmt.Errorf("writing calendar: %w", err)
	}
	return written, nil
}

// EventUID returns a stable iCalendar UID for an event
func EventUID(evt *event.Event) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(evt.URL)).String() + "@nyc-events"
}
