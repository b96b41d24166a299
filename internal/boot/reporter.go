package boot

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Reporter is the shared error path for failures the kernel contains
// rather than returns.
type Reporter interface {
	ReportError(err error)
}

// LogReporter logs failures and carries on. It suits library use, where the
// caller inspects the boot Summary.
type LogReporter struct {
	Logger *slog.Logger
}

func (r *LogReporter) ReportError(err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("boot error", "error", err)
}

// ProcessReporter logs failures and then stops the process's progress:
// interactively it waits for the user to acknowledge, otherwise it exits
// with status 1.
type ProcessReporter struct {
	Logger      *slog.Logger
	Interactive bool

	// Acknowledge blocks until the user has seen err. Used when Interactive.
	Acknowledge func(err error)

	// Exit ends the process. Defaults to os.Exit.
	Exit func(code int)
}

func (r *ProcessReporter) ReportError(err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("boot error", "error", err, "interactive", r.Interactive)

	if r.Interactive {
		if r.Acknowledge != nil {
			r.Acknowledge(err)
		}
		return
	}
	exit := r.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
}

// PromptAcknowledge returns an Acknowledge hook that prints err to out and
// waits for a line on in.
func PromptAcknowledge(in io.Reader, out io.Writer) func(error) {
	reader := bufio.NewReader(in)
	return func(err error) {
		fmt.Fprintf(out, "Error: %v\nPress Enter to continue...", err)
		_, _ = reader.ReadString('\n')
		fmt.Fprintln(out)
	}
}
