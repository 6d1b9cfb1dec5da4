package calendar

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pfrederiksen/nyc-events/internal/event"
	"github.com/pfrederiksen/nyc-events/internal/logger"
)

// AppleScriptSource reads events from the macOS Calendar app via osascript
type AppleScriptSource struct {
	Calendars    []string
	LookbackDays int
	Parser       event.DateParser

	// run executes the script and returns its stdout; replaced in tests
	run func(ctx context.Context, script string) (string, error)
}

// NewAppleScriptSource creates a source for the named calendars
func NewAppleScriptSource(calendars []string, lookbackDays int, parser event.DateParser) *AppleScriptSource {
	return &AppleScriptSource{
		Calendars:    calendars,
		LookbackDays: lookbackDays,
		Parser:       parser,
		run:          runOSAScript,
	}
}

// Name implements Source
func (s *AppleScriptSource) Name() string {
	return "applescript"
}

// Entries implements Source
func (s *AppleScriptSource) Entries(ctx context.Context) ([]RawEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, AccessTimeout)
	defer cancel()

	out, err := s.run(ctx, s.script())
	if err != nil {
		return nil, err
	}
	return parseScriptOutput(out, s.Parser), nil
}

func (s *AppleScriptSource) script() string {
	quoted := make([]string, len(s.Calendars))
	for i, name := range s.Calendars {
		quoted[i] = `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
	}

	return fmt.Sprintf(`
tell application "Calendar"
	set output to ""
	set targetCalendars to {%s}
	set cutoffDate to (current date) - %d * days
	repeat with calName in targetCalendars
		try
			set cal to calendar calName
			set evts to (every event of cal whose start date > cutoffDate)
			repeat with evt in evts
				set evtName to summary of evt
				set evtStart to start date of evt
				set evtEnd to end date of evt
				set allDay to allday event of evt
				try
					set recur to recurrence of evt
				on error
					set recur to "none"
				end try
				if allDay is false then
					set output to output & evtName & "|" & (evtStart as string) & "|" & (evtEnd as string) & "|" & recur & linefeed
				end if
			end repeat
		end try
	end repeat
	return output
end tell
`, strings.Join(quoted, ", "), s.LookbackDays)
}

func runOSAScript(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("calendar access timed out after %s", AccessTimeout)
	}
	if err != nil {
		return "", fmt.Errorf("running osascript: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// parseScriptOutput parses "name|start|end|recurrence" lines.
// Lines with unparseable dates are skipped.
func parseScriptOutput(out string, parser event.DateParser) []RawEntry {
	entries := make([]RawEntry, 0)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" || !strings.Contains(line, "|") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}

		start, ok := parser.Parse(parts[1])
		if !ok {
			logger.Debug("skipping calendar line with bad start", logger.Fields{"line": line})
			continue
		}
		end, ok := parser.Parse(parts[2])
		if !ok {
			logger.Debug("skipping calendar line with bad end", logger.Fields{"line": line})
			continue
		}

		entries = append(entries, RawEntry{
			Name:  parts[0],
			Start: start,
			End:   end,
			RRule: strings.TrimSpace(parts[3]),
		})
	}
	return entries
}
