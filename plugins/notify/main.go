// Package main provides a desktop notification plugin. It posts a short
// message for scene events via osascript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event      string          `json:"event"`
	SessionID  string          `json:"session_id"`
	Tick       uint64          `json:"tick"`
	ThemeIndex int             `json:"theme_index"`
	Config     json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type config struct {
	Title string `json:"title"`
}

// messages maps event kinds to notification bodies.
var messages = map[string]string{
	"gift-opened":     "The gift is open! Your photos are flying out.",
	"lights-switched": "New lights: theme %d",
	"jump-started":    "Whee!",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	cfg := config{Title: "Yuletide"}
	if len(req.Config) > 0 {
		_ = json.Unmarshal(req.Config, &cfg)
	}

	body, ok := messages[req.Event]
	if !ok {
		writeResponse(fmt.Errorf("unknown event: %s", req.Event))
		return
	}
	if req.Event == "lights-switched" {
		body = fmt.Sprintf(body, req.ThemeIndex+1)
	}

	writeResponse(notify(cfg.Title, body))
}

// writeResponse writes a success or error response to stdout.
func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", title, body)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
