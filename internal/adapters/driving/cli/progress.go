package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driving/tui"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

// plainSink prints one line per item, for logs and non-interactive runs.
type plainSink struct{}

var _ driven.ProgressSink = plainSink{}

func (plainSink) Emit(event driven.ProgressEvent) {
	fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s", event.Index, event.Total, event.Item, event.Status)
	if event.Message != "" {
		fmt.Fprintf(os.Stderr, " (%s)", event.Message)
	}
	fmt.Fprintln(os.Stderr)
}

// runWithProgress executes work under the progress bar when stdout is a
// terminal, falling back to plain per-item lines otherwise.
func runWithProgress(phase string, work func(sink driven.ProgressSink) error) error {
	if noTUIFlag || !term.IsTerminal(int(os.Stdout.Fd())) {
		return work(plainSink{})
	}
	return tui.Run(phase, work)
}
