package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultLocation is used when a listing does not say where it happens.
const DefaultLocation = "New York"

// Source identifies the listing provider an event was scraped from.
type Source int

const (
	SourceUnknown Source = iota
	SourceLuma
	SourceEventbrite
	SourceMeetup
	SourceGarysGuide
)

// Sources lists the known providers in collection order.
var Sources = []Source{SourceLuma, SourceEventbrite, SourceMeetup, SourceGarysGuide}

var sourceNames = map[Source]string{
	SourceLuma:       "Luma",
	SourceEventbrite: "Eventbrite",
	SourceMeetup:     "Meetup",
	SourceGarysGuide: "GarysGuide",
}

// String returns the display name of the source
func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "Other"
}

// Weight is the base relevance score for events from this source.
func (s Source) Weight() int {
	switch s {
	case SourceLuma, SourceGarysGuide:
		return 3
	case SourceMeetup, SourceEventbrite:
		return 2
	default:
		return 1
	}
}

// ParseSource resolves a provider name (case-insensitive)
func ParseSource(name string) (Source, error) {
	for s, n := range sourceNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return SourceUnknown, fmt.Errorf("unknown source: %q", name)
}

// MarshalJSON encodes the source as its display name
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a display name; unknown names map to SourceUnknown
func (s *Source) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSource(name)
	if err != nil {
		*s = SourceUnknown
		return nil
	}
	*s = parsed
	return nil
}

// Event represents one discovered NYC event listing
type Event struct {
	Name     string `json:"name"`
	Start    string `json:"start"` // free text, format depends on the source
	URL      string `json:"url"`
	Location string `json:"location"`
	Source   Source `json:"source"`

	ConflictWith string     `json:"conflict_with,omitempty"`
	Score        int        `json:"score"`
	ParsedStart  *time.Time `json:"parsed_start,omitempty"`
}

// NewEvent creates an Event, filling in the default location
func NewEvent(source Source, name, start, url, location string) *Event {
	location = strings.TrimSpace(location)
	if location == "" {
		location = DefaultLocation
	}
	return &Event{
		Name:     strings.TrimSpace(name),
		Start:    strings.TrimSpace(start),
		URL:      strings.TrimSpace(url),
		Location: location,
		Source:   source,
	}
}

// Aggregate merges adapter output into a single list keyed by URL.
// First-seen order is preserved and events without a URL are dropped.
func Aggregate(events []*Event) []*Event {
	seen := make(map[string]bool)
	unique := make([]*Event, 0, len(events))
	for _, evt := range events {
		if evt == nil || evt.URL == "" || seen[evt.URL] {
			continue
		}
		seen[evt.URL] = true
		unique = append(unique, evt)
	}
	return unique
}

// GroupBySource groups events by source, keeping first-seen source order
// and the original order within each group.
func GroupBySource(events []*Event) ([]Source, map[Source][]*Event) {
	order := make([]Source, 0)
	groups := make(map[Source][]*Event)
	for _, evt := range events {
		if _, ok := groups[evt.Source]; !ok {
			order = append(order, evt.Source)
		}
		groups[evt.Source] = append(groups[evt.Source], evt)
	}
	return order, groups
}
