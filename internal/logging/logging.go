// Package logging настраивает zerolog для сервиса и CLI.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New создаёт логгер: console - человекочитаемый вывод, иначе JSON
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Setup заменяет глобальный log.Logger и возвращает его
func Setup(level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = New(os.Stderr, level, format)
	return log.Logger
}
