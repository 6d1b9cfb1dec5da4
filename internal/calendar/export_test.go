package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/nyc-events/internal/event"
)

func TestExportICS(t *testing.T) {
	start := at(10, 18)
	events := []*event.Event{
		{Name: "AI Founders Meetup", URL: "https://luma.com/ai-founders", Location: "Brooklyn", Source: event.SourceLuma, ParsedStart: &start},
		{Name: "Undated Walk", URL: "https://www.meetup.com/dogs/events/1/", Location: "New York", Source: event.SourceMeetup},
	}

	var buf bytes.Buffer
	n, err := ExportICS(&buf, events, 2*time.Hour, testNow)
	if err != nil {
		t.Fatalf("ExportICS failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 exported event, got %d", n)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("exported calendar does not parse: %v", err)
	}
	if len(cal.Events()) != 1 {
		t.Fatalf("expected 1 VEVENT, got %d", len(cal.Events()))
	}

	ve := cal.Events()[0]
	if ve.Id() != EventUID(events[0]) {
		t.Errorf("UID = %q, want %q", ve.Id(), EventUID(events[0]))
	}
	gotStart, err := ve.GetStartAt()
	if err != nil || !gotStart.Equal(start) {
		t.Errorf("DTSTART = %v (%v), want %v", gotStart, err, start)
	}
	gotEnd, err := ve.GetEndAt()
	if err != nil || !gotEnd.Equal(start.Add(2*time.Hour)) {
		t.Errorf("DTEND = %v (%v), want %v", gotEnd, err, start.Add(2*time.Hour))
	}
}

func TestEventUID_Stable(t *testing.T) {
	a := &event.Event{URL: "https://luma.com/x"}
	b := &event.Event{URL: "https://luma.com/x", Name: "different name"}
	c := &event.Event{URL: "https://luma.com/y"}

	if EventUID(a) != EventUID(b) {
		t.Error("expected UID to depend only on URL")
	}
	if EventUID(a) == EventUID(c) {
		t.Error("expected different URLs to produce different UIDs")
	}
}
