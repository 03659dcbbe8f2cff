// Package main - logger.go
//
// Logging setup for the bot. All output goes through zerolog: a console
// writer on stderr for the operator plus an append-only debug.log file so
// detection problems can be diagnosed after a session.
package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFileName = "debug.log"

var logFile *os.File

// InitLogger configures the global zerolog logger with console and file
// output. Must be called before any component starts logging.
func InitLogger() error {
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = f

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	log.Logger = zerolog.New(io.MultiWriter(console, f)).With().Timestamp().Logger()
	return nil
}

// ModuleLogger returns a sub-logger carrying a module field, so log lines
// can be filtered per component.
func ModuleLogger(name string) zerolog.Logger {
	return log.With().Str("module", name).Logger()
}

// CloseLogger flushes and closes the debug log file.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
