package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/nyc-events/internal/event"
	"github.com/pfrederiksen/nyc-events/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult is the JSON document printed with --format json
type OutputResult struct {
	GeneratedAt     time.Time      `json:"generated_at"`
	Subject         string         `json:"subject"`
	CollectedCount  int            `json:"collected_count"`
	CalendarEntries int            `json:"calendar_entries"`
	Selected        []*event.Event `json:"selected"`
	Conflicting     []*event.Event `json:"conflicting"`
	Digest          string         `json:"digest"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *pipeline.Result, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *pipeline.Result) error {
	out := &OutputResult{
		GeneratedAt:     result.GeneratedAt,
		Subject:         result.Subject,
		CollectedCount:  len(result.Collected),
		CalendarEntries: result.Entries,
		Selected:        result.Selected,
		Conflicting:     result.Conflicting,
		Digest:          result.Body,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeText prints a run summary; the digest itself goes through the notifier
func writeText(w io.Writer, result *pipeline.Result, verbose bool) error {
	fmt.Fprintf(w, "\nFound %d unique events, %d calendar conflicts, %d selected\n",
		len(result.Collected), len(result.Conflicting), len(result.Selected))

	if !verbose {
		return nil
	}

	for _, evt := range result.Selected {
		start := "undated"
		if evt.ParsedStart != nil {
			start = evt.ParsedStart.Format("Mon Jan 2 15:04")
		}
		fmt.Fprintf(w, "  [%2d] %-10s %-16s %s\n", evt.Score, evt.Source, start, evt.Name)
	}
	for _, evt := range result.Conflicting {
		fmt.Fprintf(w, "  [--] %-10s conflicts with %s: %s\n", evt.Source, evt.ConflictWith, evt.Name)
	}
	return nil
}
