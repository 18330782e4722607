package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zekun-wu/EyeReadDemo/internal/config"
	"github.com/zekun-wu/EyeReadDemo/internal/device"
	"github.com/zekun-wu/EyeReadDemo/internal/gallery"
	"github.com/zekun-wu/EyeReadDemo/internal/logging"
	"github.com/zekun-wu/EyeReadDemo/internal/narration"
	"github.com/zekun-wu/EyeReadDemo/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	picturesDir := flag.String("pictures", "", "Override pictures directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.New(*logLevel, os.Stderr)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("load config", "path", *configPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *picturesDir != "" {
		cfg.Server.PicturesDir = *picturesDir
	}

	for _, dir := range []string{cfg.Server.PicturesDir, cfg.Server.StaticDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("create directory", "dir", dir, "err", err)
			os.Exit(1)
		}
	}

	driver := device.NewSimDriver(cfg.Device.SampleRate, cfg.Device.BlinkChance, cfg.Device.Seed)
	dev := device.NewService(driver, cfg.Device.ScreenWidth, cfg.Device.ScreenHeight, cfg.Device.BufferSize, logger)

	provider, err := narration.NewProvider(cfg.Narration.Provider, cfg.Narration.Model)
	if err != nil {
		logger.Error("narration provider", "err", err)
		os.Exit(1)
	}
	tts, err := narration.NewSynthesizer(cfg.Narration.TTSProvider, cfg.Narration.TTSModel, cfg.Server.StaticDir, cfg.Voice)
	if err != nil {
		logger.Error("speech synthesizer", "err", err)
		os.Exit(1)
	}
	narrator := narration.NewService(cfg.Server.PicturesDir, cfg.Narration.MaxImages, provider, tts, logger)

	broadcaster := server.NewBroadcaster(cfg.Server.GazeThrottle, cfg.Server.MaxWSClients, func() []server.WSMessage {
		msgs := []server.WSMessage{{Type: server.MsgSession, Payload: dev.Status()}}
		if pics, err := gallery.List(cfg.Server.PicturesDir); err == nil {
			msgs = append(msgs, server.WSMessage{
				Type:    server.MsgPictures,
				Payload: server.PicturesPayload{Pictures: pics, Count: len(pics)},
			})
		}
		return msgs
	}, logger)

	dev.AddListener(func(p device.Position) {
		broadcaster.PublishGaze(server.PositionPayload(p))
	})

	srv := server.NewServer(cfg.Server, dev, narrator, broadcaster, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.WatchPictures(ctx, cfg.Server.PicturesDir, server.DefaultWatchDebounce, func() {
		pics, err := gallery.List(cfg.Server.PicturesDir)
		if err != nil {
			logger.Warn("relist pictures", "err", err)
			return
		}
		broadcaster.PublishPictures(server.PicturesPayload{Pictures: pics, Count: len(pics)})
	}, logger); err != nil {
		logger.Warn("pictures watcher disabled", "err", err)
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := srv.SweepAudio(time.Hour)
				if err != nil {
					logger.Warn("audio sweep", "err", err)
					continue
				}
				if n > 0 {
					logger.Info("swept narration audio", "files", n)
				}
			}
		}
	}()

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		broadcaster.Stop()
		dev.Disconnect()
		cancel()
		os.Exit(0)
	}()

	logger.Info("glimmerd listening", "host", cfg.Server.Host, "port", cfg.Server.Port,
		"pictures", cfg.Server.PicturesDir)
	if err := server.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
