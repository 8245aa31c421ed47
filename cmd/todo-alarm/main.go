package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/notexe/todo-alarm/internal/alarm"
	"github.com/notexe/todo-alarm/internal/audio"
	"github.com/notexe/todo-alarm/internal/config"
	"github.com/notexe/todo-alarm/internal/logger"
	"github.com/notexe/todo-alarm/internal/notify"
	"github.com/notexe/todo-alarm/internal/reminder"
	"github.com/notexe/todo-alarm/internal/repl"
	"github.com/notexe/todo-alarm/internal/ui"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "Path to configuration file")
	backend := flag.String("storage", "", "Storage backend (json, sqlite, memory)")
	audioSource := flag.String("audio", "", "Alarm sound URL or file (overrides config)")
	audioCommand := flag.String("audio-command", "", "Player command, e.g. \"paplay {file}\" (overrides config)")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	debug := flag.Bool("debug", false, "Log at debug level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI flag overrides
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *audioSource != "" {
		cfg.Audio.Source = *audioSource
	}
	if *audioCommand != "" {
		cfg.Audio.Command = *audioCommand
	}
	if *noColor {
		cfg.UI.ColoredOutput = false
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	kv, storageLabel := openStorage(cfg, log)
	defer kv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	player := preparePlayer(ctx, cfg, log)

	list := reminder.NewList(reminder.NewStore(kv, cfg.Storage.Key, log))
	policy, _ := alarm.ParseResetPolicy(cfg.Alarm.ResetPolicy)
	engine := alarm.NewEngine(list, alarm.Options{
		Interval:    cfg.PollInterval(),
		ResetPolicy: policy,
		Playback:    alarm.NewPlayback(player, log),
		Logger:      log,
	})

	if cfg.TelegramEnabled() {
		engine.Subscribe(notify.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID, log))
		log.Info("Telegram ring notifications enabled")
	}

	replInstance, err := repl.NewREPL(engine, cfg.UI.ColoredOutput, storageLabel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating REPL: %v\n", err)
		os.Exit(1)
	}

	if fileKV, ok := kv.(*reminder.FileKV); ok && cfg.Watch.Enabled {
		watcher, err := reminder.NewWatcher(fileKV.Path(cfg.Storage.Key), cfg.WatchDebounce(), engine.Reload, log)
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			log.Warn("Storage watcher disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
		replInstance.Stop()
	}()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := engine.Run(ctx); err != nil {
			log.Error("Engine stopped", zap.Error(err))
		}
	}()

	if err := replInstance.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	cancel()
	<-engineDone
}

// openStorage opens the configured backend. If it cannot be opened the
// reminders live in memory for this session only.
func openStorage(cfg *config.Config, log *zap.Logger) (reminder.KV, string) {
	kv, err := reminder.OpenKV(cfg.Storage.Backend, cfg.Storage.Dir, cfg.DBPath())
	if err != nil {
		log.Error("Failed to open storage, reminders will not survive a restart",
			zap.String("backend", cfg.Storage.Backend),
			zap.Error(err),
		)
		fmt.Fprintf(os.Stderr, "Warning: %v (using in-memory storage)\n", err)
		return reminder.NewMemoryKV(), "memory (fallback)"
	}

	switch v := kv.(type) {
	case *reminder.FileKV:
		return kv, v.Path(cfg.Storage.Key)
	case *reminder.SQLiteKV:
		return kv, cfg.DBPath()
	default:
		return kv, cfg.Storage.Backend
	}
}

// preparePlayer fetches the alarm sound once. Without a usable sound the
// terminal bell is used.
func preparePlayer(ctx context.Context, cfg *config.Config, log *zap.Logger) alarm.Player {
	var res *audio.Resource
	if cfg.Audio.Source != "" {
		spinner := ui.NewSpinner(os.Stdout, cfg.UI.ColoredOutput)
		spinner.Start("Preparing alarm sound...")

		var err error
		res, err = audio.Prepare(ctx, cfg.Audio.Source, cfg.Audio.CacheDir, nil)
		if err != nil {
			spinner.StopWithError("Alarm sound unavailable, using the terminal bell")
			log.Warn("Failed to prepare alarm sound", zap.String("source", cfg.Audio.Source), zap.Error(err))
		} else {
			spinner.StopWithMessage("Alarm sound ready")
		}
	}

	return audio.NewPlayer(cfg.Audio.Command, res, os.Stdout, cfg.BellInterval())
}
