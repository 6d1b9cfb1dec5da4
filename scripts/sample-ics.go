package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/nyc-events/internal/digest"
	"github.com/pfrederiksen/nyc-events/internal/event"
)

// Writes a small calendar file so the --ics-out format can be checked by
// importing it into a calendar app.
func main() {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)

	evt := event.NewEvent(event.SourceLuma, "AI Founders Meetup", start.Format(time.RFC3339),
		"https://luma.com/sample-ai-founders", "123 Broadway, New York, NY")
	evt.ParsedStart = &start
	evt.Score = 8

	filename := "sample-nyc-events.ics"
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	n, err := digest.WriteICS(f, []*event.Event{evt}, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated calendar file: %s (%d event)\n\n", filename, n)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
}
