package model

import "time"

// Shared defaults used by the CLI, the TUI and the API.
const (
	DefaultUpdateInterval = 500 * time.Millisecond
	DefaultAPIAddr        = "127.0.0.1:3000"
	DefaultTCPAddr        = "127.0.0.1:5140"
)
