package scraper

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/nyc-events/internal/event"
)

const lumaBaseURL = "https://luma.com"

// Luma reads the Next.js data blob embedded in luma.com discovery pages
type Luma struct {
	urls []string
}

// NewLuma creates the Luma adapter
func NewLuma() *Luma {
	return &Luma{urls: []string{
		lumaBaseURL + "/nyc",
		lumaBaseURL + "/discover?city=New%20York",
	}}
}

func (l *Luma) Source() event.Source { return event.SourceLuma }
func (l *Luma) URLs() []string       { return l.urls }

type lumaPage struct {
	Props struct {
		PageProps struct {
			InitialData struct {
				Data struct {
					Events         []lumaItem `json:"events"`
					FeaturedEvents []lumaItem `json:"featured_events"`
				} `json:"data"`
			} `json:"initialData"`
		} `json:"pageProps"`
	} `json:"props"`
}

type lumaItem struct {
	StartAt string `json:"start_at"`
	Event   struct {
		Name    string `json:"name"`
		URL     string `json:"url"`
		StartAt string `json:"start_at"`
		Geo     struct {
			FullAddress string `json:"full_address"`
			City        string `json:"city"`
		} `json:"geo_address_info"`
	} `json:"event"`
}

// Parse implements Adapter
func (l *Luma) Parse(body io.Reader, pageURL string) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw == "" {
		return []*event.Event{}, nil
	}

	var data lumaPage
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decoding __NEXT_DATA__: %w", err)
	}

	d := data.Props.PageProps.InitialData.Data
	items := append(d.Events, d.FeaturedEvents...)

	events := make([]*event.Event, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Event.Name)
		path := strings.TrimSpace(item.Event.URL)
		if name == "" || path == "" {
			continue
		}

		start := item.StartAt
		if start == "" {
			start = item.Event.StartAt
		}

		location := item.Event.Geo.FullAddress
		if location == "" {
			location = item.Event.Geo.City
		}

		events = append(events, event.NewEvent(event.SourceLuma, name, start, lumaURL(path), location))
	}
	return events, nil
}

func lumaURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return lumaBaseURL + "/" + strings.TrimPrefix(path, "/")
}
