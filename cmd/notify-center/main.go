package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/notify-center/internal/app"
	"github.com/nhle/notify-center/internal/config"
	"github.com/nhle/notify-center/internal/store"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config file")
	logLevel := flag.String("log-level", "info", "log level (debug|info|warn|error)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := createLogger(cfg.LogPath, *logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}
	s, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open local cache", zap.Error(err))
	}
	defer s.Close()

	m := app.New(cfg, *configPath, s, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("Program exited with error", zap.Error(err))
		os.Exit(1)
	}
}

// createLogger builds a file-backed logger. The terminal belongs to the
// TUI, so nothing is ever written to stdout or stderr.
func createLogger(path, level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	zcfg := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	}
	return zcfg.Build()
}
