package event

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// DateParser turns a scraped start field into a wall-clock timestamp.
// The boolean is false when the text is empty or cannot be understood.
type DateParser interface {
	Parse(text string) (time.Time, bool)
}

// NaturalParser is a best-effort parser for the formats the listing sites use:
// ISO-8601 timestamps, "Wed, Jan 10 · 7:00 PM EST", "Jan 10 6:00 pm", and the
// long dates printed by macOS Calendar. Results are naive: any timezone in the
// input is dropped and the wall-clock value is anchored in Location.
type NaturalParser struct {
	Location *time.Location
	Now      func() time.Time
}

// NewNaturalParser creates a parser anchored in loc (time.Local when nil)
func NewNaturalParser(loc *time.Location) *NaturalParser {
	return &NaturalParser{Location: loc, Now: time.Now}
}

type layoutKind int

const (
	fullDate layoutKind = iota
	noYear
	timeOnly
)

type layout struct {
	format string
	kind   layoutKind
}

var layouts = []layout{
	{time.RFC3339, fullDate},
	{"2006-01-02T15:04:05", fullDate},
	{"2006-01-02T15:04", fullDate},
	{"2006-01-02 15:04:05", fullDate},
	{"2006-01-02 15:04", fullDate},
	{"2006-01-02", fullDate},
	{"Jan 2 2006 3:04 PM", fullDate},
	{"Jan 2 2006 3:04:05 PM", fullDate},
	{"Jan 2 2006 15:04", fullDate},
	{"Jan 2 2006", fullDate},
	{"January 2 2006 3:04 PM", fullDate},
	{"January 2 2006 3:04:05 PM", fullDate},
	{"January 2 2006 15:04", fullDate},
	{"January 2 2006", fullDate},
	{"1/2/2006 3:04 PM", fullDate},
	{"1/2/2006", fullDate},
	{"01/02/06", fullDate},
	{"Jan 2 3:04 PM", noYear},
	{"Jan 2 15:04", noYear},
	{"Jan 2", noYear},
	{"January 2 3:04 PM", noYear},
	{"January 2 15:04", noYear},
	{"January 2", noYear},
	{"3:04 PM", timeOnly},
	{"3 PM", timeOnly},
	{"15:04", timeOnly},
}

var (
	weekdayPrefix = regexp.MustCompile(`(?i)^(mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?\s+`)
	trailingZone  = regexp.MustCompile(`\s+([A-Z]{2,4})$`)
	meridiem      = regexp.MustCompile(`(?i)(\d)\s*([ap])\.?m\b\.?`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Parse implements DateParser
func (p *NaturalParser) Parse(text string) (time.Time, bool) {
	clean := Normalize(text)
	if clean == "" {
		return time.Time{}, false
	}

	loc := p.location()
	now := p.now().In(loc)

	for _, l := range layouts {
		t, err := time.ParseInLocation(l.format, clean, loc)
		if err != nil {
			continue
		}
		switch l.kind {
		case noYear:
			t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
		case timeOnly:
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
		}
		return p.wallClock(t), true
	}

	// Last resort for formats none of the layouts cover
	t, err := dateparse.ParseIn(clean, loc)
	if err != nil {
		return time.Time{}, false
	}
	return p.wallClock(t), true
}

// Normalize strips the decorations listing sites put around dates:
// middle dots, commas, a leading weekday, " at ", and a trailing zone name.
// Unicode spaces such as the U+202F macOS puts before "PM" become plain spaces.
func Normalize(text string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
	s = strings.ReplaceAll(s, " · ", " ")
	s = strings.ReplaceAll(s, "·", " ")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, " at ", " ")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}

	s = weekdayPrefix.ReplaceAllString(s, "")
	s = meridiem.ReplaceAllStringFunc(s, func(m string) string {
		sub := meridiem.FindStringSubmatch(m)
		return sub[1] + " " + strings.ToUpper(sub[2]) + "M"
	})
	if m := trailingZone.FindStringSubmatch(s); m != nil && m[1] != "AM" && m[1] != "PM" {
		s = strings.TrimSpace(strings.TrimSuffix(s, m[0]))
	}
	return s
}

// wallClock drops the timezone of t, keeping the written clock values
func (p *NaturalParser) wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), p.location())
}

func (p *NaturalParser) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

func (p *NaturalParser) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
