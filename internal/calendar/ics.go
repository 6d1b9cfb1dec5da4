package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/nyc-events/internal/logger"
)

// AccessTimeout bounds a single calendar fetch
const AccessTimeout = 60 * time.Second

// Feed is one named ICS calendar, either an http(s) URL or a local path
type Feed struct {
	Name string
	URL  string
}

// ICSSource reads busy time from ICS feeds
type ICSSource struct {
	Feeds    []Feed
	Location *time.Location
	Lookback time.Duration
	Now      func() time.Time

	client *http.Client
}

// NewICSSource creates an ICS source. Times are converted to loc and
// non-recurring events older than lookback are ignored.
func NewICSSource(feeds []Feed, loc *time.Location, lookback time.Duration) *ICSSource {
	if loc == nil {
		loc = time.Local
	}
	return &ICSSource{
		Feeds:    feeds,
		Location: loc,
		Lookback: lookback,
		Now:      time.Now,
		client: &http.Client{
			Timeout: AccessTimeout,
		},
	}
}

// Name implements Source
func (s *ICSSource) Name() string {
	return "ics"
}

// Entries implements Source. A feed that cannot be read is logged and
// skipped; an error is returned only when every feed failed.
func (s *ICSSource) Entries(ctx context.Context) ([]RawEntry, error) {
	cutoff := s.Now().In(s.Location).Add(-s.Lookback)

	var errs []error
	entries := make([]RawEntry, 0)
	for _, feed := range s.Feeds {
		body, err := s.read(ctx, feed)
		if err != nil {
			errs = append(errs, fmt.Errorf("calendar %q: %w", feed.Name, err))
			logger.Warn("calendar feed unavailable", logger.Fields{"calendar": feed.Name, "error": err.Error()})
			continue
		}

		parsed, err := ParseICS(body, s.Location, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("calendar %q: %w", feed.Name, err))
			logger.Warn("calendar feed unparseable", logger.Fields{"calendar": feed.Name, "error": err.Error()})
			continue
		}
		entries = append(entries, parsed...)
	}

	if len(errs) > 0 && len(errs) == len(s.Feeds) {
		return nil, errors.Join(errs...)
	}
	return entries, nil
}

func (s *ICSSource) read(ctx context.Context, feed Feed) ([]byte, error) {
	if !strings.HasPrefix(feed.URL, "http://") && !strings.HasPrefix(feed.URL, "https://") {
		return os.ReadFile(strings.TrimPrefix(feed.URL, "file://"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ParseICS extracts raw entries from an ICS payload. Cancelled events are
// dropped, as are non-recurring events that started before cutoff.
func ParseICS(body []byte, loc *time.Location, cutoff time.Time) ([]RawEntry, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing ICS: %w", err)
	}

	entries := make([]RawEntry, 0)
	for _, ve := range cal.Events() {
		if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
			continue
		}

		start, err := ve.GetStartAt()
		if err != nil {
			logger.Debug("skipping event without start", logger.Fields{"error": err.Error()})
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil || end.Before(start) {
			end = start
		}

		entry := RawEntry{
			Start:  start.In(loc),
			End:    end.In(loc),
			AllDay: isAllDay(ve),
		}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			entry.Name = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
			entry.RRule = p.Value
		}

		if entry.RRule == "" && !entry.Start.After(cutoff) {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// isAllDay reports whether DTSTART is a DATE rather than a DATE-TIME
func isAllDay(ve *ical.VEvent) bool {
	prop := ve.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil {
		return false
	}
	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(prop.Value, "T")
}
