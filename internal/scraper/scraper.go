package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/nyc-events/internal/event"
	"github.com/pfrederiksen/nyc-events/internal/logger"
)

const (
	UserAgent          = "Mozilla/5.0 (compatible; nyc-events/1.0; +https://github.com/pfrederiksen/nyc-events)"
	Timeout            = 30 * time.Second
	DefaultConcurrency = 1
)

// Adapter turns the pages of one listing site into events
type Adapter interface {
	Source() event.Source
	URLs() []string
	Parse(body io.Reader, pageURL string) ([]*event.Event, error)
}

// Finalizer is implemented by adapters that post-process the concatenated
// output of all their pages, such as deduplicating across search topics.
type Finalizer interface {
	Finalize(events []*event.Event) []*event.Event
}

// Fetcher retrieves a page. A non-200 status is not an error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (status int, body []byte, err error)
}

// HTTPFetcher fetches pages with a plain HTTP GET
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher. Zero values fall back to Timeout and UserAgent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = UserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Collector runs adapters against a Fetcher
type Collector struct {
	Fetcher     Fetcher
	Concurrency int
}

// NewCollector creates a collector; concurrency below 1 uses DefaultConcurrency
func NewCollector(fetcher Fetcher, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Collector{Fetcher: fetcher, Concurrency: concurrency}
}

type page struct {
	adapter int
	url     string
}

// Collect fetches every page of every adapter and returns the events in
// adapter order, then URL order, then document order. The result is the same
// for any concurrency level.
func (c *Collector) Collect(ctx context.Context, adapters []Adapter) []*event.Event {
	pages := make([]page, 0)
	for i, a := range adapters {
		for _, u := range a.URLs() {
			pages = append(pages, page{adapter: i, url: u})
		}
	}

	slots := make([][]*event.Event, len(pages))
	limit := c.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range pages {
		g.Go(func() error {
			slots[i] = c.collectPage(gctx, adapters[p.adapter], p.url)
			return nil
		})
	}
	_ = g.Wait() // page failures are logged, never returned

	all := make([]*event.Event, 0)
	next := 0
	for i, a := range adapters {
		perAdapter := make([]*event.Event, 0)
		for next < len(pages) && pages[next].adapter == i {
			perAdapter = append(perAdapter, slots[next]...)
			next++
		}
		if f, ok := a.(Finalizer); ok {
			perAdapter = f.Finalize(perAdapter)
		}

		name := a.Source().String()
		logger.Info("Collected source", logger.Fields{
			"source": name,
			"events": len(perAdapter),
		})
		logger.SetGauge("scraper."+strings.ToLower(name)+".events", float64(len(perAdapter)))
		all = append(all, perAdapter...)
	}

	logger.RecordTiming("scraper.collect", time.Since(start))
	return all
}

func (c *Collector) collectPage(ctx context.Context, a Adapter, url string) []*event.Event {
	name := a.Source().String()
	metric := "scraper." + strings.ToLower(name)
	start := time.Now()
	defer func() {
		logger.RecordTiming(metric, time.Since(start))
	}()
	logger.IncrCounter(metric + ".pages")

	status, body, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		logger.IncrCounter(metric + ".failures")
		logger.Error("Failed to fetch page", logger.Fields{"source": name, "url": url}, err)
		return nil
	}
	if status != http.StatusOK {
		logger.IncrCounter(metric + ".failures")
		logger.Warn("Unexpected status code", logger.Fields{"source": name, "url": url, "status": status})
		return nil
	}

	events, err := a.Parse(bytes.NewReader(body), url)
	if err != nil {
		logger.IncrCounter(metric + ".failures")
		logger.Error("Failed to parse page", logger.Fields{"source": name, "url": url}, err)
		return nil
	}

	for _, evt := range events {
		evt.Source = a.Source()
	}
	logger.Debug("Parsed page", logger.Fields{"source": name, "url": url, "events": len(events)})
	return events
}

// NewAdapter returns the adapter for a source
func NewAdapter(source event.Source) (Adapter, error) {
	switch source {
	case event.SourceLuma:
		return NewLuma(), nil
	case event.SourceEventbrite:
		return NewEventbrite(), nil
	case event.SourceMeetup:
		return NewMeetup(), nil
	case event.SourceGarysGuide:
		return NewGarysGuide(), nil
	default:
		return nil, fmt.Errorf("no adapter for source %s", source)
	}
}

// Adapters returns adapters for the given sources, in event.Sources order
// regardless of the order they were configured in.
func Adapters(sources []event.Source) ([]Adapter, error) {
	want := make(map[event.Source]bool, len(sources))
	for _, s := range sources {
		want[s] = true
	}

	adapters := make([]Adapter, 0, len(sources))
	for _, s := range event.Sources {
		if !want[s] {
			continue
		}
		a, err := NewAdapter(s)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
		delete(want, s)
	}
	for s := range want {
		return nil, fmt.Errorf("no adapter for source %s", s)
	}
	return adapters, nil
}
