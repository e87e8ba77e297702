package observability

import (
	"fmt"
	stdlog "log"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig selects the global zerolog level and destination.
type LogConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path" json:"log_path"`
}

// Configure initializes zerolog with sane defaults for memoria's components.
// If cfg.LogPath is non-empty, logs are written to that file (append mode)
// instead of stdout; if opening the file fails, logging falls back to
// stdout and an error is printed to stderr.
func Configure(cfg LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var w io.Writer = os.Stdout
	if cfg.LogPath != "" {
		if f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = f
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "failed to open log file %q: %v\n", cfg.LogPath, err)
		}
	}
	log.Logger = log.Output(w).With().Timestamp().Logger()

	level := strings.ToLower(strings.TrimSpace(cfg.Level))
	if level == "warning" {
		level = "warn"
	}
	lvl := zerolog.InfoLevel
	if level != "" {
		if l, err := zerolog.ParseLevel(level); err == nil {
			lvl = l
		}
	}
	zerolog.SetGlobalLevel(lvl)

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}
