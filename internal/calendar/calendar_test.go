package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-test/deep"
)

var testNow = time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)

const week = 7 * 24 * time.Hour

func at(day, hour int) time.Time {
	return time.Date(2024, time.January, day, hour, 0, 0, 0, time.UTC)
}

func TestResolve_SingleEntries(t *testing.T) {
	raw := []RawEntry{
		{Name: "Before window", Start: at(7, 10), End: at(7, 11)},
		{Name: "At window start", Start: testNow, End: at(8, 10)},
		{Name: "Design Studio", Start: at(10, 14), End: at(10, 16), RRule: "none"},
		{Name: "At window end", Start: testNow.Add(week), End: testNow.Add(week + time.Hour), RRule: "missing value"},
		{Name: "After window", Start: at(15, 10), End: at(15, 11)},
	}

	got := Resolve(raw, testNow, week)
	want := []Entry{
		{Name: "At window start", Start: testNow, End: at(8, 10)},
		{Name: "Design Studio", Start: at(10, 14), End: at(10, 16)},
		{Name: "At window end", Start: testNow.Add(week), End: testNow.Add(week + time.Hour)},
	}

	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestResolve_WeeklyRuleLimitedToHorizon(t *testing.T) {
	// Weekly class that runs for ten weeks; only this week's occurrences count.
	raw := []RawEntry{{
		Name:  "Interaction Design",
		Start: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
		RRule: "FREQ=WEEKLY;INTERVAL=1;UNTIL=20240311T090000Z",
	}}

	got := Resolve(raw, testNow, week)

	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences within 7 days, got %d: %+v", len(got), got)
	}
	for _, e := range got {
		if e.Start.Before(testNow) || e.Start.After(testNow.Add(week)) {
			t.Errorf("occurrence %v outside window", e.Start)
		}
		if e.End.Sub(e.Start) != 3*time.Hour {
			t.Errorf("occurrence duration = %v, want 3h", e.End.Sub(e.Start))
		}
		if e.Name != "Interaction Design" {
			t.Errorf("occurrence name = %q", e.Name)
		}
	}
}

func TestResolve_WeeklyRuleOffsetStart(t *testing.T) {
	raw := []RawEntry{{
		Name:  "Studio",
		Start: time.Date(2023, time.December, 4, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.December, 4, 16, 0, 0, 0, time.UTC),
		RRule: "RRULE:FREQ=WEEKLY;UNTIL=20240212T140000Z",
	}}

	got := Resolve(raw, testNow, week)
	want := []Entry{{Name: "Studio", Start: at(8, 14), End: at(8, 16)}}

	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestResolve_BadRuleFallsBackToSingle(t *testing.T) {
	raw := []RawEntry{
		{Name: "Inside", Start: at(9, 10), End: at(9, 11), RRule: "FREQ=SOMETIMES"},
		{Name: "Outside", Start: at(1, 10), End: at(1, 11), RRule: "garbage"},
	}

	got := Resolve(raw, testNow, week)
	want := []Entry{{Name: "Inside", Start: at(9, 10), End: at(9, 11)}}

	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestResolve_Deduplicates(t *testing.T) {
	raw := []RawEntry{
		{Name: "Standup", Start: at(9, 10), End: at(9, 11)},
		{Name: "Standup", Start: at(9, 10), End: at(9, 12)},
		{Name: "Other", Start: at(9, 10), End: at(9, 11)},
	}

	got := Resolve(raw, testNow, week)
	want := []Entry{
		{Name: "Standup", Start: at(9, 10), End: at(9, 11)},
		{Name: "Other", Start: at(9, 10), End: at(9, 11)},
	}

	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestNormalizeRule(t *testing.T) {
	tests := []struct {
		rule string
		want string
	}{
		{"FREQ=WEEKLY;UNTIL=20240311T090000Z", "FREQ=WEEKLY;UNTIL=20240311T090000"},
		{"RRULE:FREQ=DAILY;COUNT=3", "FREQ=DAILY;COUNT=3"},
		{"FREQ=WEEKLY;UNTIL=20240311", "FREQ=WEEKLY;UNTIL=20240311"},
	}
	for _, tt := range tests {
		if got := NormalizeRule(tt.rule); got != tt.want {
			t.Errorf("NormalizeRule(%q) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

type fakeSource struct {
	entries []RawEntry
	err     error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Entries(ctx context.Context) ([]RawEntry, error) {
	return f.entries, f.err
}

func TestLoad(t *testing.T) {
	src := &fakeSource{entries: []RawEntry{
		{Name: "Holiday", Start: at(9, 0), End: at(10, 0), AllDay: true},
		{Name: "Class", Start: at(9, 10), End: at(9, 12)},
	}}

	got := Load(context.Background(), src, testNow, week)
	want := []Entry{{Name: "Class", Start: at(9, 10), End: at(9, 12)}}

	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestLoad_SourceFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("calendar access timed out")}

	if got := Load(context.Background(), src, testNow, week); len(got) != 0 {
		t.Errorf("expected no entries on failure, got %+v", got)
	}
}
