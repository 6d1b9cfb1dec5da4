// Package digest renders the weekly event digest.
package digest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/nyc-events/internal/calendar"
	"github.com/pfrederiksen/nyc-events/internal/event"
	"github.com/pfrederiksen/nyc-events/internal/filter"
)

// NoEventsMessage is the whole digest when nothing was found
const NoEventsMessage = "No matching events found this week."

// MaxConflictsShown caps the conflicting events listed for reference
const MaxConflictsShown = 5

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Options controls the digest header
type Options struct {
	DaysAhead int
	Keywords  []string
}

// Subject returns the message subject for a digest sent at now
func Subject(now time.Time) string {
	return fmt.Sprintf("NYC Weekly Events (%s)", now.Format("2006-01-02"))
}

// Format renders available events grouped by source, followed by up to
// MaxConflictsShown conflicting events.
func Format(available, conflicting []*event.Event, opts Options) string {
	if len(available) == 0 && len(conflicting) == 0 {
		return NoEventsMessage
	}

	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("🗽 NYC Event Finder - Weekly picks (next %d days)\n", opts.DaysAhead))
	msg.WriteString(rule + "\n\n")
	msg.WriteString(fmt.Sprintf("✅ Available: %d event%s\n", len(available), pluralize(len(available))))
	msg.WriteString(fmt.Sprintf("❌ Calendar conflicts: %d event%s\n", len(conflicting), pluralize(len(conflicting))))
	if len(opts.Keywords) > 0 {
		msg.WriteString(fmt.Sprintf("\nKeywords: %s\n", strings.Join(opts.Keywords, ", ")))
	}

	order, groups := event.GroupBySource(available)
	for _, source := range order {
		sourceEvents := groups[source]
		msg.WriteString(fmt.Sprintf("\n━━━ %s (%d event%s) ━━━\n", source, len(sourceEvents), pluralize(len(sourceEvents))))
		for _, evt := range sourceEvents {
			msg.WriteString(FormatEvent(evt))
		}
	}

	if len(conflicting) > 0 {
		msg.WriteString("\n━━━ ⚠️ Conflicts with your calendar (for reference) ━━━\n")
		for i, evt := range conflicting {
			if i >= MaxConflictsShown {
				break
			}
			msg.WriteString(fmt.Sprintf("❌ %s - conflicts with [%s]\n", displayName(evt), conflictName(evt)))
			msg.WriteString(fmt.Sprintf("   🔗 %s\n", evt.URL))
		}
	}

	msg.WriteString(rule + "\n")
	msg.WriteString("Generated by NYC Event Finder")
	return msg.String()
}

// FormatEvent renders one event block
func FormatEvent(evt *event.Event) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("\n📅 %s\n", displayName(evt)))

	start := evt.Start
	if start == "" {
		start = "see details"
	}
	msg.WriteString(fmt.Sprintf("   🕐 %s\n", start))

	location := evt.Location
	if location == "" {
		location = event.DefaultLocation
	}
	msg.WriteString(fmt.Sprintf("   📍 %s\n", location))
	msg.WriteString(fmt.Sprintf("   🔗 %s\n", evt.URL))
	msg.WriteString(fmt.Sprintf("   📌 Source: %s\n", evt.Source))
	msg.WriteString(fmt.Sprintf("   ⭐ Score: %d\n", evt.Score))

	return msg.String()
}

// WriteICS exports the events that have a parsed start as an iCalendar file
// and returns how many were written.
func WriteICS(w io.Writer, events []*event.Event, now time.Time) (int, error) {
	return calendar.ExportICS(w, events, filter.AssumedEventDuration, now)
}

func displayName(evt *event.Event) string {
	if strings.TrimSpace(evt.Name) == "" {
		return "Untitled event"
	}
	return evt.Name
}

func conflictName(evt *event.Event) string {
	if evt.ConflictWith == "" {
		return "calendar"
	}
	return evt.ConflictWith
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
