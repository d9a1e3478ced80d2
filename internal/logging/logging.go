// Package logging builds the zerolog logger shared by the CLI, the database
// layer and the scheduler.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a human-readable logger writing to w at level. An empty level
// means warn.
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.WarnLevel
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), err
		}
		lvl = parsed
	}

	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.Out = w
	consoleWriter.TimeFormat = time.DateTime
	consoleWriter.NoColor = !isTerminal(w)

	return zerolog.New(consoleWriter).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
