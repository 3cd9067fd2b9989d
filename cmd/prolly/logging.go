package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"prolly/internal/config"
)

const logLevelEnvKey = "PROLLY_LOG_LEVEL"

const flagLevelOrigin = "--log-level"

// levelVar is the threshold of the default logger.
var levelVar = new(slog.LevelVar)

// levelSetting is a raw log level and the place it was read from.
type levelSetting struct {
	raw    string
	origin string
}

// pickLogLevel returns the first non-blank of flag, env and config.
func pickLogLevel(flagLevel, envLevel, configLevel string) levelSetting {
	for _, s := range []levelSetting{
		{raw: flagLevel, origin: flagLevelOrigin},
		{raw: envLevel, origin: logLevelEnvKey},
		{raw: configLevel, origin: "log_level"},
	} {
		if strings.TrimSpace(s.raw) != "" {
			return s
		}
	}
	return levelSetting{}
}

// configureLoggerForCLI installs the default logger. A bad --log-level is
// an error. A bad env or config value falls back to the default level and
// comes back as a warning line for stderr.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	setting := pickLogLevel(flagLevel, os.Getenv(logLevelEnvKey), configLevel)

	var warning string
	level, err := parseLogLevel(setting.raw)
	if err != nil {
		if setting.origin == flagLevelOrigin {
			return "", fmt.Errorf("invalid %s %q", flagLevelOrigin, setting.raw)
		}
		level, _ = parseLogLevel("")
		warning = fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", setting.origin, setting.raw, config.DefaultLogLevel)
	}

	levelVar.Set(level)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar})))
	return warning, nil
}

// parseLogLevel accepts slog level names, "warning", and plain integers.
func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		value = config.DefaultLogLevel
	case "warning":
		value = "warn"
	}
	if n, err := strconv.Atoi(value); err == nil {
		return slog.Level(n), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}
