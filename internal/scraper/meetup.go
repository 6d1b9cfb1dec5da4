package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/nyc-events/internal/event"
)

const (
	meetupFindURL = "https://www.meetup.com/find/?location=us--ny--New%20York&source=EVENTS&keywords="

	// MeetupLinksPerPage caps how many event links are read from one search page
	MeetupLinksPerPage = 15
)

// MeetupKeywords are the search keywords queried on Meetup
var MeetupKeywords = []string{"tech", "startup", "history", "culture", "dogs"}

var (
	meetupEventHref = regexp.MustCompile(`meetup\.com/.*/events/`)
	meetupStart     = regexp.MustCompile(`(?i)((?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)[a-z]*[,\s·]+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d+\s*·?\s*\d+:\d+\s*[AP]M(?:\s*[A-Z]{2,4})?)`)
	trailingPunct   = regexp.MustCompile(`[\s·,]+$`)
)

// Meetup reads event cards from Meetup search result pages. Each card is an
// anchor whose text holds the title followed by the start time.
type Meetup struct {
	urls []string
}

// NewMeetup creates the Meetup adapter
func NewMeetup() *Meetup {
	urls := make([]string, 0, len(MeetupKeywords))
	for _, kw := range MeetupKeywords {
		urls = append(urls, meetupFindURL+kw)
	}
	return &Meetup{urls: urls}
}

func (m *Meetup) Source() event.Source { return event.SourceMeetup }
func (m *Meetup) URLs() []string       { return m.urls }

// Parse implements Adapter
func (m *Meetup) Parse(body io.Reader, pageURL string) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	links := doc.Find("a[href]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return meetupEventHref.MatchString(sel.AttrOr("href", ""))
	})

	events := make([]*event.Event, 0)
	links.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= MeetupLinksPerPage {
			return false
		}

		href := strings.TrimSpace(sel.AttrOr("href", ""))
		text := joinedText(sel)
		if href == "" || text == "" {
			return true
		}

		name, start := splitMeetupText(text)
		events = append(events, event.NewEvent(event.SourceMeetup, name, start, href, event.DefaultLocation))
		return true
	})
	return events, nil
}

// splitMeetupText separates "<title> <weekday, Mon D · h:mm PM TZ> ..." into
// title and start. Without a recognisable start the whole text is the title.
func splitMeetupText(text string) (name, start string) {
	loc := meetupStart.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}

	start = strings.TrimSpace(text[loc[0]:loc[1]])
	name = text
	if prefix := strings.TrimSpace(text[:loc[0]]); prefix != "" {
		name = trailingPunct.ReplaceAllString(prefix, "")
	}
	return name, start
}

// joinedText returns the non-empty text nodes under sel, trimmed and joined
// with single spaces.
func joinedText(sel *goquery.Selection) string {
	parts := make([]string, 0)
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return strings.Join(parts, " ")
}
