package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LogLevel string

type LogFormat string

const (
	FormatJSON    LogFormat = "json"
	FormatConsole LogFormat = "console"
)

func (l LogLevel) Level() (zerolog.Level, error) {
	switch l {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", string(l))
	}
}

// InitLogger replaces the global zerolog logger.
func InitLogger(level LogLevel, format LogFormat) error {
	return InitLoggerWithWriter(level, format, os.Stderr)
}

func InitLoggerWithWriter(level LogLevel, format LogFormat, w io.Writer) error {
	lvl, err := level.Level()
	if err != nil {
		return err
	}

	switch format {
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case FormatJSON, "":
	default:
		return fmt.Errorf("unknown log format %q", string(format))
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}
