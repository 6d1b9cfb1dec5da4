// Package pipeline wires one end-to-end run: collect, aggregate, check the
// calendar, rank, format and deliver.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/nyc-events/internal/calendar"
	"github.com/pfrederiksen/nyc-events/internal/config"
	"github.com/pfrederiksen/nyc-events/internal/digest"
	"github.com/pfrederiksen/nyc-events/internal/event"
	"github.com/pfrederiksen/nyc-events/internal/filter"
	"github.com/pfrederiksen/nyc-events/internal/logger"
	"github.com/pfrederiksen/nyc-events/internal/notifier"
	"github.com/pfrederiksen/nyc-events/internal/rank"
	"github.com/pfrederiksen/nyc-events/internal/scraper"
)

// Options are the run settings not owned by a stage
type Options struct {
	DaysAhead int
	Keywords  []string
	Location  *time.Location
	Now       func() time.Time
}

// Pipeline runs the stages in order. Calendar may be nil to skip conflict
// filtering and Notifier may be nil to only render.
type Pipeline struct {
	Adapters  []scraper.Adapter
	Collector *scraper.Collector
	Calendar  calendar.Source
	Ranker    *rank.Ranker
	Filter    *filter.ConflictFilter
	Notifier  notifier.Notifier
	Options   Options
}

// Result is everything a run produced
type Result struct {
	Subject     string         `json:"subject"`
	Body        string         `json:"body"`
	Collected   []*event.Event `json:"-"`
	Selected    []*event.Event `json:"selected"`
	Conflicting []*event.Event `json:"conflicting"`
	Entries     int            `json:"calendar_entries"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Build assembles a pipeline from configuration. browser selects headless
// Chrome instead of plain HTTP for fetching pages.
func Build(cfg *config.Config, n notifier.Notifier, browser bool) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	sources, err := cfg.Sources()
	if err != nil {
		return nil, err
	}
	adapters, err := scraper.Adapters(sources)
	if err != nil {
		return nil, err
	}

	var fetcher scraper.Fetcher = scraper.NewHTTPFetcher(cfg.Scraper.Timeout, cfg.Scraper.UserAgent)
	if browser || cfg.Scraper.Browser {
		fetcher = scraper.NewBrowserFetcher(cfg.Scraper.Timeout, cfg.Scraper.UserAgent)
	}

	now := func() time.Time { return time.Now().In(loc) }
	parser := &event.NaturalParser{Location: loc, Now: now}

	ranker := rank.New(parser)
	ranker.Keywords = cfg.Keywords
	ranker.Horizon = cfg.Horizon()
	ranker.MaxEvents = cfg.MaxEvents
	ranker.Now = now

	p := &Pipeline{
		Adapters:  adapters,
		Collector: scraper.NewCollector(fetcher, cfg.Scraper.Concurrency),
		Ranker:    ranker,
		Filter:    filter.NewConflictFilter(parser),
		Notifier:  n,
		Options: Options{
			DaysAhead: cfg.DaysAhead,
			Keywords:  cfg.Keywords,
			Location:  loc,
			Now:       now,
		},
	}

	if cfg.Calendar.Enabled {
		p.Calendar = calendarSource(cfg, loc, parser)
	}
	return p, nil
}

func calendarSource(cfg *config.Config, loc *time.Location, parser event.DateParser) calendar.Source {
	switch cfg.Calendar.Provider {
	case config.ProviderAppleScript:
		return calendar.NewAppleScriptSource(cfg.Calendar.Names, cfg.Calendar.LookbackDays, parser)
	default:
		if len(cfg.Calendar.Feeds) == 0 {
			logger.Warn("Calendar filter enabled but no feeds configured", nil)
			return nil
		}
		feeds := make([]calendar.Feed, 0, len(cfg.Calendar.Feeds))
		for _, f := range cfg.Calendar.Feeds {
			feeds = append(feeds, calendar.Feed{Name: f.Name, URL: f.URL})
		}
		return calendar.NewICSSource(feeds, loc, cfg.Lookback())
	}
}

// Run executes one pass. Source and calendar failures degrade the result;
// only a delivery failure is returned as an error, together with the result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	now := p.now()

	logger.Info("Starting run", logger.Fields{
		"days_ahead": p.Options.DaysAhead,
		"adapters":   len(p.Adapters),
	})

	collected := event.Aggregate(p.Collector.Collect(ctx, p.Adapters))
	logger.Info("Collected events", logger.Fields{"unique": len(collected)})

	available := collected
	conflicting := make([]*event.Event, 0)
	entries := 0

	if p.Calendar != nil {
		busy := calendar.Load(ctx, p.Calendar, now, p.Ranker.Horizon)
		entries = len(busy)
		logger.Info("Loaded calendar", logger.Fields{"entries": entries})
		if entries > 0 {
			available, conflicting = p.Filter.Partition(collected, busy)
			logger.Info("Checked calendar conflicts", logger.Fields{
				"available":   len(available),
				"conflicting": len(conflicting),
			})
		}
	}

	selected := p.Ranker.Select(available)

	result := &Result{
		Subject:     digest.Subject(now),
		Body:        digest.Format(selected, conflicting, digest.Options{DaysAhead: p.Options.DaysAhead, Keywords: p.Options.Keywords}),
		Collected:   collected,
		Selected:    selected,
		Conflicting: conflicting,
		Entries:     entries,
		GeneratedAt: now,
	}

	logger.SetGauge("events.collected", float64(len(collected)))
	logger.SetGauge("events.conflicting", float64(len(conflicting)))
	logger.SetGauge("events.selected", float64(len(selected)))

	var notifyErr error
	if p.Notifier != nil {
		if err := p.Notifier.Notify(ctx, result.Subject, result.Body); err != nil {
			notifyErr = fmt.Errorf("delivering digest: %w", err)
		}
	}

	logger.RecordTiming("pipeline.run", time.Since(start))
	logger.Info("Run complete", logger.Fields{
		"selected":    len(selected),
		"conflicting": len(conflicting),
		"duration_ms": time.Since(start).Milliseconds(),
		"metrics":     logger.MetricsSnapshot(),
	})
	return result, notifyErr
}

func (p *Pipeline) now() time.Time {
	if p.Options.Now != nil {
		return p.Options.Now()
	}
	if p.Options.Location != nil {
		return time.Now().In(p.Options.Location)
	}
	return time.Now()
}
