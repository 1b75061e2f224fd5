// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI commands. When
// stderr is a terminal it uses slog.TextHandler for human-readable
// output; when piped or redirected it uses slog.JSONHandler so scripts
// and CI can parse the stream.
func NewCommandLogger() *slog.Logger {
	return slog.New(newHandler(os.Stderr))
}

// NewRunLogger creates a logger that writes to stderr and to the given
// run log file simultaneously. The handler format follows the terminal
// detection of NewCommandLogger; the file receives the same stream.
func NewRunLogger(logFile io.Writer) *slog.Logger {
	return slog.New(newHandler(io.MultiWriter(os.Stderr, logFile)))
}

func newHandler(w io.Writer) slog.Handler {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.NewTextHandler(w, options)
	}
	return slog.NewJSONHandler(w, options)
}
