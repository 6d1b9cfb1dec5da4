// Package calendar turns the user's calendars into concrete busy intervals.
//
// A Source reports raw entries the way the calendar stores them (one record
// per event, possibly with a recurrence rule). Resolve expands those into the
// occurrences that fall inside the search window.
package calendar

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/pfrederiksen/nyc-events/internal/logger"
)

// RawEntry is one calendar event as reported by a Source
type RawEntry struct {
	Name   string
	Start  time.Time
	End    time.Time
	AllDay bool
	RRule  string // RFC 5545 recurrence rule, empty or "none" when not recurring
}

// Entry is one concrete busy interval
type Entry struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Source supplies raw calendar entries
type Source interface {
	Name() string
	Entries(ctx context.Context) ([]RawEntry, error)
}

// Load fetches raw entries from src and resolves them for the window
// [now, now+horizon]. A failing source is logged and yields no entries, which
// disables conflict filtering for the run.
func Load(ctx context.Context, src Source, now time.Time, horizon time.Duration) []Entry {
	start := time.Now()
	raw, err := src.Entries(ctx)
	logger.RecordTiming("calendar."+src.Name(), time.Since(start))
	if err != nil {
		logger.Error("calendar access failed, skipping conflict check", logger.Fields{
			"source": src.Name(),
		}, err)
		logger.IncrCounter("calendar.failures")
		return nil
	}

	timed := make([]RawEntry, 0, len(raw))
	for _, r := range raw {
		if r.AllDay {
			continue
		}
		timed = append(timed, r)
	}

	entries := Resolve(timed, now, horizon)
	logger.Info("calendar entries resolved", logger.Fields{
		"source":  src.Name(),
		"raw":     len(raw),
		"entries": len(entries),
	})
	return entries
}

var untilUTC = regexp.MustCompile(`UNTIL=(\d{8}T\d{6})Z`)

// Resolve expands raw entries into the busy intervals that start inside
// [now, now+horizon], bounds inclusive. Recurring entries contribute one
// Entry per occurrence, each keeping the original duration. Entries whose
// rule cannot be expanded are treated as single events. The result is
// deduplicated by (start, name), keeping the first.
func Resolve(raw []RawEntry, now time.Time, horizon time.Duration) []Entry {
	end := now.Add(horizon)

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, resolveOne(r, now, end)...)
	}

	type key struct {
		start int64
		name  string
	}
	seen := make(map[key]bool)
	unique := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := key{e.Start.UnixNano(), e.Name}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, e)
	}
	return unique
}

func resolveOne(r RawEntry, now, end time.Time) []Entry {
	if !isRecurring(r.RRule) {
		return single(r, now, end)
	}

	occurrences, err := expand(r, now, end)
	if err != nil {
		logger.Debug("recurrence expansion failed, treating as single event", logger.Fields{
			"name":  r.Name,
			"rrule": r.RRule,
			"error": err.Error(),
		})
		return single(r, now, end)
	}

	duration := r.End.Sub(r.Start)
	out := make([]Entry, 0, len(occurrences))
	for _, occ := range occurrences {
		out = append(out, Entry{Name: r.Name, Start: occ, End: occ.Add(duration)})
	}
	return out
}

func single(r RawEntry, now, end time.Time) []Entry {
	if r.Start.Before(now) || r.Start.After(end) {
		return nil
	}
	return []Entry{{Name: r.Name, Start: r.Start, End: r.End}}
}

func isRecurring(rule string) bool {
	rule = strings.TrimSpace(rule)
	return rule != "" && rule != "none" && rule != "missing value"
}

// NormalizeRule strips an "RRULE:" prefix and the UTC marker of an UNTIL
// bound so the rule can be evaluated against a naive DTSTART.
func NormalizeRule(rule string) string {
	rule = strings.TrimSpace(rule)
	rule = strings.TrimPrefix(rule, "RRULE:")
	return untilUTC.ReplaceAllString(rule, "UNTIL=$1")
}

func expand(r RawEntry, now, end time.Time) ([]time.Time, error) {
	rule := NormalizeRule(r.RRule)

	opt, err := rrule.StrToROptionInLocation(rule, r.Start.Location())
	if err != nil {
		return nil, fmt.Errorf("parsing rule %q: %w", rule, err)
	}
	opt.Dtstart = r.Start

	rr, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("building rule %q: %w", rule, err)
	}

	return rr.Between(now, end, true), nil
}
