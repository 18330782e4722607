package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zekun-wu/EyeReadDemo/internal/app"
	"github.com/zekun-wu/EyeReadDemo/internal/audio"
	"github.com/zekun-wu/EyeReadDemo/internal/client"
	"github.com/zekun-wu/EyeReadDemo/internal/config"
	"github.com/zekun-wu/EyeReadDemo/internal/gaze"
	"github.com/zekun-wu/EyeReadDemo/internal/logging"
	"github.com/zekun-wu/EyeReadDemo/internal/tracker"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	urlFlag := flag.String("url", "", "Daemon base URL (overrides config)")
	ageFlag := flag.Int("age", 0, "Reader age (overrides config)")
	langFlag := flag.String("language", "", "Reader language (overrides config)")
	logFile := flag.String("log", "", "Write debug logs to this file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *urlFlag != "" {
		cfg.Client.ControllerURL = *urlFlag
	}
	if *ageFlag > 0 {
		cfg.Client.Age = *ageFlag
	}
	if *langFlag != "" {
		cfg.Client.Language = *langFlag
	}

	logger := logging.NewNop()
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = logging.New("debug", f)
	}

	ctrl := tracker.NewClient(cfg.Client.ControllerURL)
	coord := gaze.NewCoordinator(ctrl, gaze.CoordinatorConfig{
		PollInterval:     cfg.Client.PollInterval,
		LifecycleTimeout: cfg.Client.LifecycleTimeout,
	}, logger)
	api := client.New(cfg.Client.ControllerURL)
	player := audio.NewPlayer(cfg.Client.Player)

	m := app.New(cfg, api, coord, player)
	p := tea.NewProgram(m, tea.WithReportFocus())
	coord.SetPresenter(app.NewPresenter(p.Send))

	if _, err := p.Run(); err != nil {
		coord.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	coord.Close()
}
