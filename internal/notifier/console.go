package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConsoleNotifier prints the digest instead of sending it
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a console notifier writing to out (stdout when nil)
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out}
}

// Notify implements Notifier
func (n *ConsoleNotifier) Notify(ctx context.Context, subject, body string) error {
	sep := strings.Repeat("=", 50)
	if _, err := fmt.Fprintf(n.out, "%s\nSubject: %s\n%s\n%s\n", sep, subject, sep, body); err != nil {
		return fmt.Errorf("writing digest: %w", err)
	}
	return nil
}
