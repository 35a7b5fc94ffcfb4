package eventlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
)

const defaultBuffer = 256

// Sink collects game events from every task and writes them from a single
// goroutine.
type Sink struct {
	logger  *slog.Logger
	journal zerolog.Logger

	lines chan string
}

func New(logger *slog.Logger, writer io.Writer) *Sink {
	return &Sink{
		logger:  logger.With("component", "eventlog"),
		journal: zerolog.New(writer).With().Timestamp().Logger(),

		lines: make(chan string, defaultBuffer),
	}
}

// OpenFile - opens the journal file for appending.
func OpenFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}

	return file, nil
}

// Publishf - queues one formatted event. A full queue drops the event.
func (that *Sink) Publishf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)

	select {
	case that.lines <- line:
	default:
		that.logger.Warn("event queue is full, dropping event", "event", line)
	}
}

// Run - writes queued events until ctx is done, then flushes what is left.
func (that *Sink) Run(ctx context.Context) error {
	for {
		select {
		case line := <-that.lines:
			that.write(line)
		case <-ctx.Done():
			that.flush()
			return nil
		}
	}
}

func (that *Sink) flush() {
	for {
		select {
		case line := <-that.lines:
			that.write(line)
		default:
			return
		}
	}
}

func (that *Sink) write(line string) {
	that.journal.Info().Msg(line)
}
