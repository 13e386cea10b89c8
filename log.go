package uiloop

import (
	"io"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger used throughout the package.
type Logger = logiface.Logger[*stumpy.Event]

var (
	loggerMu      sync.RWMutex
	packageLogger *Logger
)

// SetLogger sets the package-wide logger. Pass nil to disable logging
// (the default). A connection created with WithLogger keeps its own logger
// and is unaffected.
func SetLogger(l *Logger) {
	loggerMu.Lock()
	packageLogger = l
	loggerMu.Unlock()
}

// NewLogger builds a JSON logger writing to w at the given minimum level.
func NewLogger(w io.Writer, level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	)
}

// activeLogger returns the package-wide logger. A nil *Logger is safe to
// call methods on, so callers never need to check.
func activeLogger() *Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return packageLogger
}
