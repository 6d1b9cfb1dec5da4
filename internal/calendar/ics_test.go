package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var sampleICS = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//test//test//EN",
	"BEGIN:VEVENT",
	"UID:studio@example.com",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240110T140000Z",
	"DTEND:20240110T160000Z",
	"SUMMARY:Design Studio",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:class@example.com",
	"DTSTAMP:20231101T000000Z",
	"DTSTART:20231106T090000Z",
	"DTEND:20231106T120000Z",
	"RRULE:FREQ=WEEKLY;UNTIL=20240311T090000Z",
	"SUMMARY:Interaction Design",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:old@example.com",
	"DTSTAMP:20231101T000000Z",
	"DTSTART:20231106T090000Z",
	"DTEND:20231106T100000Z",
	"SUMMARY:Old Meeting",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:cancelled@example.com",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240111T140000Z",
	"DTEND:20240111T150000Z",
	"STATUS:CANCELLED",
	"SUMMARY:Cancelled Review",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func TestParseICS(t *testing.T) {
	cutoff := testNow.Add(-30 * 24 * time.Hour)

	entries, err := ParseICS([]byte(sampleICS), time.UTC, cutoff)
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}

	byName := make(map[string]RawEntry)
	for _, e := range entries {
		byName[e.Name] = e
	}

	studio, ok := byName["Design Studio"]
	if !ok {
		t.Fatal("expected Design Studio entry")
	}
	if !studio.Start.Equal(at(10, 14)) || !studio.End.Equal(at(10, 16)) {
		t.Errorf("Design Studio = %v - %v", studio.Start, studio.End)
	}

	class, ok := byName["Interaction Design"]
	if !ok {
		t.Fatal("expected recurring entry older than cutoff to be kept")
	}
	if !strings.Contains(class.RRule, "FREQ=WEEKLY") {
		t.Errorf("expected RRULE to be captured, got %q", class.RRule)
	}

	if _, ok := byName["Old Meeting"]; ok {
		t.Error("expected non-recurring entry older than cutoff to be dropped")
	}
	if _, ok := byName["Cancelled Review"]; ok {
		t.Error("expected cancelled entry to be dropped")
	}
}

func TestParseICS_Empty(t *testing.T) {
	if _, err := ParseICS(nil, time.UTC, testNow); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestICSSource_Entries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.ics" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(sampleICS)) // nolint:errcheck
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "local.ics")
	if err := os.WriteFile(path, []byte(sampleICS), 0o600); err != nil {
		t.Fatal(err)
	}

	src := NewICSSource([]Feed{
		{Name: "school", URL: server.URL + "/school.ics"},
		{Name: "broken", URL: server.URL + "/missing.ics"},
		{Name: "local", URL: "file://" + path},
	}, time.UTC, 30*24*time.Hour)
	src.Now = func() time.Time { return testNow }

	raw, err := src.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(raw) != 4 {
		t.Errorf("expected 2 entries from each of 2 readable feeds, got %d", len(raw))
	}

	entries := Resolve(raw, testNow, week)
	found := false
	for _, e := range entries {
		if e.Name == "Design Studio" {
			found = true
		}
	}
	if !found {
		t.Error("expected Design Studio among resolved entries")
	}
}

func TestICSSource_AllFeedsFail(t *testing.T) {
	src := NewICSSource([]Feed{{Name: "nowhere", URL: filepath.Join(t.TempDir(), "nope.ics")}}, time.UTC, 0)

	if _, err := src.Entries(context.Background()); err == nil {
		t.Error("expected error when every feed fails")
	}
}
