package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/app"
	"github.com/ayusman/yuletide/internal/audio"
	"github.com/ayusman/yuletide/internal/capture"
	"github.com/ayusman/yuletide/internal/config"
	"github.com/ayusman/yuletide/internal/detector"
	"github.com/ayusman/yuletide/internal/greeting"
	"github.com/ayusman/yuletide/internal/logging"
	"github.com/ayusman/yuletide/internal/plugin"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/server"
	"github.com/ayusman/yuletide/internal/store"
	"github.com/ayusman/yuletide/internal/tracker"
	"github.com/ayusman/yuletide/internal/tray"
)

const (
	pluginTimeout  = 5 * time.Second
	statusInterval = 250 * time.Millisecond
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{Path: cfg.Log.Path, Level: cfg.Log.Level, Dev: cfg.Log.Dev})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalf("yuletide: %v", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	log.Info("Yuletide - gesture holiday scene")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	// Sinks need the session of an App that does not exist yet.
	var a *app.App
	sessionID := func() string { return a.SessionID() }

	var sinks []scene.EventSink

	plugins := plugin.NewManager(cfg.PluginsDir)
	if err := plugins.Discover(); err != nil {
		log.Warnf("Plugin discovery failed: %v", err)
	} else {
		log.Infof("Plugins: %s", plugins.Summary())
	}
	dispatcher := plugin.NewDispatcher(plugins, plugin.NewExecutor(pluginTimeout), sessionID, log.Named("plugin"))
	defer dispatcher.Close()
	sinks = append(sinks, dispatcher)

	if cfg.Audio.Enabled {
		player, err := audio.NewPlayer(audio.Config{Volume: cfg.Audio.Volume}, log.Named("audio"))
		if err != nil {
			log.Warnf("Audio disabled: %v", err)
		} else {
			defer player.Close()
			sinks = append(sinks, player)
		}
	}

	greeter := newGreeter(ctx, cfg.Greeting, log)

	source, preview, push := newSource(cfg, log.Named("tracker"))

	a = app.New(app.Config{
		Store:    st,
		Source:   source,
		TickRate: cfg.Scene.TickRate,
		Scene: scene.Config{
			Themes:     cfg.Scene.Themes,
			LightCount: cfg.Scene.LightCount,
		},
		Sinks: sinks,
		Log:   log.Named("app"),
	})
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start scene: %w", err)
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		log.Infof("Serving static files from: %s", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Scene:     a,
		Sessions:  a,
		Greeter:   greeter,
		Preview:   preview,
		Push:      push,
		Log:       log.Named("server"),
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", cfg.Server.Addr)
		serveErr <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	if cfg.Tray.Enabled {
		runTray(ctx, stop, a, uiURL(cfg.Server.Addr), log)
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Server shutdown: %v", err)
	}
	return nil
}

// newGreeter returns a cached Gemini greeter, or nil when no API key is set
// (sessions then use the fallback greeting).
func newGreeter(ctx context.Context, cfg config.GreetingConfig, log *zap.SugaredLogger) greeting.Generator {
	gemini, err := greeting.NewGemini(ctx, greeting.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		if errors.Is(err, greeting.ErrNotConfigured) {
			log.Info("No Gemini API key, greetings use the fallback text")
		} else {
			log.Warnf("Gemini unavailable: %v", err)
		}
		return nil
	}
	return greeting.NewCached(gemini, cfg.CacheTTL)
}

// newSource builds the landmark source for the configured tracker mode.
// Camera mode falls back to push mode when the camera or hand service is
// unavailable.
func newSource(cfg *config.Config, log *zap.SugaredLogger) (tracker.Source, *capture.Preview, *tracker.PushSource) {
	if cfg.Tracker.Mode == config.TrackerCamera {
		source, preview, err := newCameraSource(cfg, log)
		if err == nil {
			log.Info("Using camera tracker with MediaPipe hand detection")
			return source, preview, nil
		}
		log.Warnf("Camera tracker unavailable (%v), waiting for pushed landmarks", err)
	}

	push := tracker.NewPushSource(tracker.DefaultStaleAfter)
	return push, nil, push
}

func newCameraSource(cfg *config.Config, log *zap.SugaredLogger) (*tracker.CameraSource, *capture.Preview, error) {
	detCfg := detector.DefaultConfig()
	detCfg.MinConfidence = cfg.Tracker.MinConfidence
	detCfg.ScriptPath = cfg.Tracker.ScriptPath

	det, err := detector.NewMediaPipeDetector(detCfg, log.Named("mediapipe"))
	if err != nil {
		return nil, nil, err
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = cfg.Camera.DeviceID
	camCfg.FPS = cfg.Camera.IdleFPS

	preview := capture.NewPreview()
	source, err := tracker.NewCameraSource(tracker.CameraConfig{
		Camera:        capture.NewCamera(camCfg),
		Detector:      det,
		Motion:        capture.NewMotionDetector(cfg.Camera.MotionThreshold),
		Preview:       preview,
		IdleFPS:       cfg.Camera.IdleFPS,
		ActiveFPS:     cfg.Camera.ActiveFPS,
		IdleTimeout:   cfg.Camera.IdleTimeout,
		MinConfidence: cfg.Tracker.MinConfidence,
		Log:           log,
	})
	if err != nil {
		det.Close()
		return nil, nil, err
	}
	return source, preview, nil
}

// runTray shows the tray menu and blocks until it quits.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, url string, log *zap.SugaredLogger) {
	t := tray.New(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Warnf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(stop)

	go func() {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Quit()
				return
			case <-ticker.C:
				t.SetStatus(a.Status())
			}
		}
	}()

	t.Run()
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

func uiURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "yuletide.yaml"
	}
	return filepath.Join(home, ".yuletide", "config.yaml")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
