package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/LavaJover/shvark-heist-service/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds the service logger from config, makes it the slog default and
// bridges the standard log package into it. The returned closer releases the
// log file, if any.
func Setup(cfg config.LogConfig, env string) (*slog.Logger, io.Closer) {
	out, closer := output(cfg)

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	base := slog.New(handler).With(
		slog.String("service", "heist-service"),
		slog.String("env", env),
	)
	slog.SetDefault(base)

	log.SetOutput(slog.NewLogLogger(handler, slog.LevelInfo).Writer())
	log.SetFlags(0)

	return base, closer
}

func output(cfg config.LogConfig) (io.Writer, io.Closer) {
	switch strings.ToLower(strings.TrimSpace(cfg.LogOutput)) {
	case "", "stdout":
		return os.Stdout, io.NopCloser(nil)
	case "stderr":
		return os.Stderr, io.NopCloser(nil)
	default:
		// Любой другой вывод считаем путём к файлу с ротацией
		file := &lumberjack.Logger{
			Filename:   cfg.LogOutput,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		return file, file
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
