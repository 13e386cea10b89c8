package uiloop

import "errors"

// Common errors
var (
	// ErrAlreadyConnected indicates a connection already exists for this
	// process. There is at most one connection at a time.
	ErrAlreadyConnected = errors.New("uiloop: connection already exists")

	// ErrNotConnected indicates no connection has been established.
	ErrNotConnected = errors.New("uiloop: not connected; call Connect first")

	// ErrWindowExists indicates the window id is already registered.
	// Register only ids obtained from NextWindowID, which never repeat.
	ErrWindowExists = errors.New("uiloop: window id already registered")

	// ErrNilCallback indicates a timer was scheduled without a callback.
	ErrNilCallback = errors.New("uiloop: nil timer callback")

	// ErrNegativeInterval indicates a negative timer interval.
	ErrNegativeInterval = errors.New("uiloop: timer interval must not be negative")
)
