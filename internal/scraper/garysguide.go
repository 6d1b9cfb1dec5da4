package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/nyc-events/internal/event"
)

const (
	garysGuideBaseURL = "https://www.garysguide.com"

	// links with shorter text are icons or "More" style links
	minNameLength = 5
)

var (
	garysDate = regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2}`)
	garysTime = regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s*(am|pm)`)
)

// GarysGuide reads the NYC event table on garysguide.com. The date and time
// are not marked up, so they are searched for in the text of the table row
// around each event link.
type GarysGuide struct {
	urls []string
}

// NewGarysGuide creates the GarysGuide adapter
func NewGarysGuide() *GarysGuide {
	return &GarysGuide{urls: []string{garysGuideBaseURL + "/events?region=nyc"}}
}

func (g *GarysGuide) Source() event.Source { return event.SourceGarysGuide }
func (g *GarysGuide) URLs() []string       { return g.urls }

// Parse implements Adapter
func (g *GarysGuide) Parse(body io.Reader, pageURL string) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	seen := make(map[string]bool)
	events := make([]*event.Event, 0)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if !strings.Contains(href, "/events/") || strings.Count(href, "/") < 2 {
			return
		}
		if strings.Contains(href, "region=") || seen[href] {
			return
		}

		name := joinedText(sel)
		if utf8.RuneCountInString(name) < minNameLength || strings.Contains(name, "Newsletter") {
			return
		}
		seen[href] = true

		fullURL := href
		if strings.HasPrefix(href, "/") {
			fullURL = garysGuideBaseURL + href
		}

		events = append(events, event.NewEvent(event.SourceGarysGuide,
			name, rowStart(sel), fullURL, event.DefaultLocation))
	})
	return events, nil
}

// rowStart finds "Mon D" and "h:mm am" in the enclosing table row
func rowStart(link *goquery.Selection) string {
	row := link.Closest("tr")
	if row.Length() == 0 {
		return ""
	}

	text := joinedText(row)
	start := garysDate.FindString(text)
	if t := garysTime.FindString(text); t != "" {
		start += " " + t
	}
	return strings.TrimSpace(start)
}
