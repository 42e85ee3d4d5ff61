package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init replaces the global logger. With a path, JSON lines are appended to that
// file; otherwise a console writer on stderr is used.
func Init(level zerolog.Level, path string) (io.Closer, error) {
	var (
		out    io.Writer
		closer io.Closer = io.NopCloser(nil)
	)

	if path != "" {
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = logFile
		closer = logFile
	} else {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	log.Logger = New(out, level)

	if level == zerolog.DebugLevel {
		log.Debug().Msg("Log level set to DEBUG")
	}
	return closer, nil
}

func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	multi := zerolog.MultiLevelWriter(w)
	return zerolog.New(multi).Level(level).With().Timestamp().Logger()
}
