package event

import (
	"encoding/json"
	"testing"

	"github.com/go-test/deep"
)

func TestNewEvent(t *testing.T) {
	evt := NewEvent(SourceMeetup, "  NYC Go Meetup ", "Wed, Jan 10 · 7:00 PM EST", "https://www.meetup.com/golang/events/1/", "")

	if evt.Name != "NYC Go Meetup" {
		t.Errorf("expected name to be trimmed, got '%s'", evt.Name)
	}
	if evt.Location != DefaultLocation {
		t.Errorf("expected default location %q, got %q", DefaultLocation, evt.Location)
	}
	if evt.Source != SourceMeetup {
		t.Errorf("expected source Meetup, got %s", evt.Source)
	}
}

func TestSourceWeight(t *testing.T) {
	tests := []struct {
		source Source
		want   int
	}{
		{SourceLuma, 3},
		{SourceGarysGuide, 3},
		{SourceMeetup, 2},
		{SourceEventbrite, 2},
		{SourceUnknown, 1},
		{Source(42), 1},
	}

	for _, tt := range tests {
		t.Run(tt.source.String(), func(t *testing.T) {
			if got := tt.source.Weight(); got != tt.want {
				t.Errorf("%s.Weight() = %d, want %d", tt.source, got, tt.want)
			}
		})
	}
}

func TestParseSource(t *testing.T) {
	for _, s := range Sources {
		got, err := ParseSource(s.String())
		if err != nil {
			t.Fatalf("ParseSource(%q) unexpected error: %v", s.String(), err)
		}
		if got != s {
			t.Errorf("ParseSource(%q) = %v, want %v", s.String(), got, s)
		}
	}

	if got, err := ParseSource("garysguide"); err != nil || got != SourceGarysGuide {
		t.Errorf("ParseSource should be case-insensitive, got %v, %v", got, err)
	}
	if _, err := ParseSource("Facebook"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestSourceJSON(t *testing.T) {
	data, err := json.Marshal(&Event{Name: "x", Source: SourceEventbrite})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Source != SourceEventbrite {
		t.Errorf("expected Eventbrite after round trip, got %s", decoded.Source)
	}
}

func TestAggregate(t *testing.T) {
	luma := &Event{Name: "AI Night", URL: "https://luma.com/ai-night", Source: SourceLuma}
	eventbrite := &Event{Name: "AI Night (copy)", URL: "https://luma.com/ai-night", Source: SourceEventbrite}
	meetup := &Event{Name: "Go Meetup", URL: "https://www.meetup.com/go/events/1/", Source: SourceMeetup}
	noURL := &Event{Name: "Mystery", Source: SourceGarysGuide}

	got := Aggregate([]*Event{luma, eventbrite, noURL, meetup, nil})
	want := []*Event{luma, meetup}

	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
	if got[0].Source != SourceLuma {
		t.Errorf("expected first-seen (Luma) event to win, got %s", got[0].Source)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	events := []*Event{
		{URL: "a", Source: SourceLuma},
		{URL: "b", Source: SourceMeetup},
		{URL: "a", Source: SourceEventbrite},
		{URL: "", Source: SourceGarysGuide},
		{URL: "c", Source: SourceGarysGuide},
		{URL: "b", Source: SourceGarysGuide},
	}

	once := Aggregate(events)
	twice := Aggregate(once)

	if diff := deep.Equal(once, twice); diff != nil {
		t.Error(diff)
	}

	seen := make(map[string]bool)
	for _, evt := range once {
		if seen[evt.URL] {
			t.Errorf("duplicate URL %q in aggregated output", evt.URL)
		}
		seen[evt.URL] = true
	}
	if len(once) != 3 {
		t.Errorf("expected 3 unique events, got %d", len(once))
	}
}

func TestGroupBySource(t *testing.T) {
	events := []*Event{
		{URL: "1", Source: SourceMeetup},
		{URL: "2", Source: SourceLuma},
		{URL: "3", Source: SourceMeetup},
		{URL: "4", Source: SourceGarysGuide},
	}

	order, groups := GroupBySource(events)

	if diff := deep.Equal(order, []Source{SourceMeetup, SourceLuma, SourceGarysGuide}); diff != nil {
		t.Error(diff)
	}
	if len(groups[SourceMeetup]) != 2 || groups[SourceMeetup][0].URL != "1" || groups[SourceMeetup][1].URL != "3" {
		t.Errorf("expected Meetup group to keep input order, got %+v", groups[SourceMeetup])
	}
}
