package scraper

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/nyc-events/internal/event"
	"github.com/pfrederiksen/nyc-events/internal/logger"
)

const eventbriteBaseURL = "https://www.eventbrite.com/d/ny--new-york"

// EventbriteTopics are the search categories queried on Eventbrite
var EventbriteTopics = []string{
	"tech", "startup", "networking", "ai", "design",
	"history", "museum", "culture", "dogs", "pets",
}

// Eventbrite reads schema.org ItemList blocks from Eventbrite search pages
type Eventbrite struct {
	urls []string
}

// NewEventbrite creates the Eventbrite adapter
func NewEventbrite() *Eventbrite {
	urls := make([]string, 0, len(EventbriteTopics))
	for _, topic := range EventbriteTopics {
		urls = append(urls, eventbriteBaseURL+"/"+topic+"/")
	}
	return &Eventbrite{urls: urls}
}

func (e *Eventbrite) Source() event.Source { return event.SourceEventbrite }
func (e *Eventbrite) URLs() []string       { return e.urls }

type itemList struct {
	Type            string `json:"@type"`
	ItemListElement []struct {
		Item struct {
			Name      string          `json:"name"`
			URL       string          `json:"url"`
			StartDate string          `json:"startDate"`
			Location  json.RawMessage `json:"location"`
		} `json:"item"`
	} `json:"itemListElement"`
}

type place struct {
	Name    string `json:"name"`
	Address struct {
		Locality string `json:"addressLocality"`
	} `json:"address"`
}

// Parse implements Adapter. Malformed JSON-LD blocks are skipped.
func (e *Eventbrite) Parse(body io.Reader, pageURL string) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	events := make([]*event.Event, 0)
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		var list itemList
		if err := json.Unmarshal([]byte(sel.Text()), &list); err != nil {
			logger.Debug("Skipping JSON-LD block", logger.Fields{"url": pageURL, "index": i, "error": err.Error()})
			return
		}
		if list.Type != "ItemList" {
			return
		}

		for _, el := range list.ItemListElement {
			item := el.Item
			if item.URL == "" || item.Name == "" {
				continue
			}
			events = append(events, event.NewEvent(event.SourceEventbrite,
				item.Name, item.StartDate, item.URL, eventbriteLocation(item.Location)))
		}
	})
	return events, nil
}

// Finalize drops events already listed under an earlier topic
func (e *Eventbrite) Finalize(events []*event.Event) []*event.Event {
	return event.Aggregate(events)
}

func eventbriteLocation(raw json.RawMessage) string {
	var p place
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil {
		return event.DefaultLocation
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.Address.Locality
}
