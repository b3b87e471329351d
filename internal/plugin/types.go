// Package plugin runs external executables in response to scene events.
package plugin

import (
	"encoding/json"
	"slices"
	"time"
)

// Manifest describes a plugin's metadata and the events it subscribes to.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Events lists scene event kinds the plugin wants; "*" subscribes to all.
	Events []string        `json:"events"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Event      string          `json:"event"`
	SessionID  string          `json:"session_id"`
	Tick       uint64          `json:"tick"`
	ThemeIndex int             `json:"theme_index"`
	At         time.Time       `json:"at"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribes to event kind.
func (p *Plugin) Handles(kind string) bool {
	return slices.Contains(p.Manifest.Events, kind) || slices.Contains(p.Manifest.Events, "*")
}
