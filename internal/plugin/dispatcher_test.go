package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/yuletide/internal/logging"
	"github.com/ayusman/yuletide/internal/scene"
)

// installRecorder creates a plugin that appends its stdin to out.
func installRecorder(t *testing.T, dir, name, out string, events ...string) {
	t.Helper()
	pluginDir := writeManifest(t, dir, Manifest{Name: name, Executable: "run.sh", Events: events})
	script := "#!/bin/sh\ncat >> " + out + "\necho >> " + out + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

func TestDispatcher_HandleEvent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	out := filepath.Join(tmpDir, "received.log")
	installRecorder(t, tmpDir, "gift-only", out, "gift-opened")

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	d := NewDispatcher(manager, NewExecutor(5*time.Second), func() string { return "sess-9" }, logging.Nop())
	defer d.Close()

	d.HandleEvent(scene.Event{Kind: scene.EventJumpStarted, Tick: 1})
	d.HandleEvent(scene.Event{Kind: scene.EventGiftOpened, Tick: 7})
	d.Wait()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("plugin never ran: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 invocation, got %d: %s", len(lines), data)
	}
	if !strings.Contains(lines[0], `"event":"gift-opened"`) || !strings.Contains(lines[0], `"session_id":"sess-9"`) {
		t.Errorf("unexpected request %s", lines[0])
	}
	if !strings.Contains(lines[0], `"tick":7`) {
		t.Errorf("request missing tick: %s", lines[0])
	}
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	manager := NewManager(t.TempDir())
	d := NewDispatcher(manager, NewExecutor(time.Second), nil, logging.Nop())
	d.HandleEvent(scene.Event{Kind: scene.EventLightsSwitched})
	d.Close()
}
