// Package rank scores events and picks the ones worth sending.
package rank

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/pfrederiksen/nyc-events/internal/event"
)

const (
	DefaultMaxEvents = 12
	DefaultHorizon   = 7 * 24 * time.Hour

	keywordBonus     = 2
	shortNamePenalty = 1
	shortNameLength  = 10
	parsedStartBonus = 1
)

// undatedOffset places events without a parsed start after every dated one
const undatedOffset = 999 * 24 * time.Hour

// DefaultKeywords are the topics the digest is tuned for
var DefaultKeywords = []string{
	"tech", "startup", "design", "networking", "ai", "creative", "product", "ux",
	"founder", "history", "museum", "culture", "humanities", "art", "community",
	"dog", "dogs", "pet", "walk",
}

// Ranker scores and selects events
type Ranker struct {
	Parser    event.DateParser
	Keywords  []string
	Horizon   time.Duration
	MaxEvents int
	Now       func() time.Time
}

// New creates a ranker with the default keywords, horizon and cap
func New(parser event.DateParser) *Ranker {
	return &Ranker{
		Parser:    parser,
		Keywords:  DefaultKeywords,
		Horizon:   DefaultHorizon,
		MaxEvents: DefaultMaxEvents,
		Now:       time.Now,
	}
}

// Score returns the relevance score of an event. Keywords are plain substring
// matches against the case-folded name and location, so "ai" also matches
// "maintenance"; each keyword counts once.
func (r *Ranker) Score(evt *event.Event) int {
	score := evt.Source.Weight()

	fold := cases.Fold()
	text := fold.String(evt.Name + " " + evt.Location)
	for _, kw := range r.Keywords {
		if kw = fold.String(kw); kw != "" && strings.Contains(text, kw) {
			score += keywordBonus
		}
	}

	if utf8.RuneCountInString(evt.Name) < shortNameLength {
		score -= shortNamePenalty
	}

	if _, ok := r.Parser.Parse(evt.Start); ok {
		score += parsedStartBonus
	}
	return score
}

// Select drops events dated outside [now, now+Horizon], scores the rest and
// returns at most MaxEvents of them, best first. Undated events are kept.
// Ties are broken by start time with undated events last, then by input order.
func (r *Ranker) Select(events []*event.Event) []*event.Event {
	now := r.now()
	end := now.Add(r.Horizon)

	selected := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		evt.ParsedStart = nil
		if start, ok := r.Parser.Parse(evt.Start); ok {
			if start.Before(now) || start.After(end) {
				continue
			}
			evt.ParsedStart = &start
		}
		evt.Score = r.Score(evt)
		selected = append(selected, evt)
	}

	undated := now.Add(undatedOffset)
	sortKey := func(evt *event.Event) time.Time {
		if evt.ParsedStart == nil {
			return undated
		}
		return *evt.ParsedStart
	}

	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return sortKey(a).Before(sortKey(b))
	})

	limit := r.MaxEvents
	if limit <= 0 {
		limit = DefaultMaxEvents
	}
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

func (r *Ranker) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
