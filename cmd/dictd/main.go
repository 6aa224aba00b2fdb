package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/thejerf/suture/v4"

	"github.com/speakdesk/dictd/internal/audio"
	"github.com/speakdesk/dictd/internal/config"
	"github.com/speakdesk/dictd/internal/control"
	"github.com/speakdesk/dictd/internal/daemon"
	"github.com/speakdesk/dictd/internal/engine"
	"github.com/speakdesk/dictd/internal/focus"
	"github.com/speakdesk/dictd/internal/inject"
	"github.com/speakdesk/dictd/internal/overlay"
	"github.com/speakdesk/dictd/internal/postprocess"
	"github.com/speakdesk/dictd/internal/userdict"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "path to the daemon's YAML configuration file")
	flag.Parse()

	_ = godotenv.Load()
	if configPath == "" {
		configPath = os.Getenv("DICTD_CONFIG")
	}
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "dictd", "config.yaml")
		}
	}
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	logrus.WithField("path", configPath).Info("configuration loaded")

	appWordsPath, err := userdict.DefaultAppWordsPath()
	if err != nil {
		logrus.WithError(err).Fatal("failed to resolve user dictionary path")
	}
	dict, err := userdict.New(appWordsPath, userdict.DefaultHunspellPath())
	if err != nil {
		logrus.WithError(err).Fatal("failed to load user dictionary")
	}
	logrus.WithField("words", len(dict.AllWords())).Debug("user dictionary loaded")

	muxerCfg := audio.DefaultMuxerConfig(cfg.SampleRate)
	muxerCfg.Selector.StickyDuration = time.Duration(cfg.MuxerStickyDurationMs) * time.Millisecond
	muxerCfg.Selector.Cooldown = time.Duration(cfg.MuxerCooldownMs) * time.Millisecond
	muxerCfg.Selector.SwitchThreshold = cfg.MuxerSwitchThreshold
	muxerCfg.ScoringWindowMs = cfg.MuxerScoringWindowMs
	muxer := audio.NewMuxer(muxerCfg)
	logrus.Debug("stream muxer created")

	backendKind := audio.BackendAuto
	switch strings.ToLower(cfg.AudioBackend) {
	case "exclusive":
		backendKind = audio.BackendExclusive
	case "shared":
		backendKind = audio.BackendShared
	}

	silenceThresholdLin := dbToLinear(cfg.SilenceThresholdDB)
	deviceCfg := audio.DeviceManagerConfig{
		Backend: audio.BackendConfig{
			DeviceName:          cfg.AudioDevice,
			SampleRate:          cfg.SampleRate,
			SilenceThresholdLin: silenceThresholdLin,
		},
		BackendKind:        backendKind,
		IdleReleaseTimeout: cfg.IdleReleaseTimeout(),
	}
	deviceManager := audio.NewDeviceManager(deviceCfg, muxer, "/dev/snd")
	logrus.Debug("device manager created")

	modelPaths := engine.ModelPaths{
		WhisperModels: map[string]string{
			"ggml-small.en.bin": os.Getenv("DICTD_WHISPER_MODEL_PATH"),
		},
		ONNXModels: map[string]string{},
		Language:   "en",
		SampleRate: cfg.SampleRate,
	}
	engineFactory, err := engine.NewFactory(modelPaths, 4)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build engine factory")
	}
	logrus.Debug("engine factory created")

	overlayBus := overlay.NewBus(64)
	statusCh := overlay.NewStatusChannel(16)

	focusDetector := focus.NewCommandDetector("xdotool", "getactivewindow", "getwindowname")
	injector := inject.NewInjector("xdotool")
	clipboard := inject.NewClipboard("xclip")

	d, err := daemon.New(daemon.Deps{
		Config:        cfg,
		DeviceManager: deviceManager,
		Muxer:         muxer,
		EngineFactory: engineFactory,
		OverlayBus:    overlayBus,
		StatusCh:      statusCh,
		FocusDetector: focusDetector,
		Injector:      injector,
		Clipboard:     clipboard,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to construct daemon")
	}
	logrus.Info("daemon state machine constructed")

	personalAcronyms := make(map[string]struct{})
	for _, w := range dict.AllWords() {
		personalAcronyms[w] = struct{}{}
	}
	d.SetPipeline(postprocess.New(postprocess.Config{
		EnableAcronyms:    cfg.EnableAcronyms,
		EnablePunctuation: cfg.EnablePunctuation,
		EnableGrammar:     cfg.EnableGrammar,
	}, personalAcronyms, dict.AllWords()))

	watcher := userdict.NewWatcher(dict)
	dictSupervisor := suture.NewSimple("userdict-watcher")
	dictSupervisor.Add(watcher)
	go dictSupervisor.Serve(ctx)

	d.Run(ctx)
	d.RunIdleTicks(ctx)
	d.RunStatusLoop(ctx)

	server, err := control.NewServer(d)
	if err != nil {
		logrus.WithError(err).Fatal("failed to start control server")
	}
	defer func() {
		if err := server.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close control server")
		}
	}()
	logrus.WithField("bus_name", control.BusName).Info("control server listening")

	logrus.Info("dictd is running. Press CTRL-C to exit.")
	<-ctx.Done()

	logrus.Info("shutting down gracefully...")
	if err := d.Shutdown(); err != nil {
		logrus.WithError(err).Warn("daemon shutdown reported an error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	<-shutdownCtx.Done()
}

// dbToLinear converts a decibel silence threshold to a linear RMS gate.
func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}
