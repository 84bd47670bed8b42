package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// Environment variables read by LoadEnv.
const (
	EnvLogLevel = "OPENJSON_LOG_LEVEL"
	EnvWorkers  = "OPENJSON_WORKERS"
	EnvLang     = "OPENJSON_LANG"
)

// Env holds settings taken from the environment.
type Env struct {
	// LogLevel is a zerolog level name (default "info").
	LogLevel string
	// Workers is the number of documents processed in parallel (default 4).
	Workers int
	// Lang overrides the language of openjson's own messages.
	Lang string
}

// LoadEnv loads the given .env files (default ".env" in the working
// directory) into the process environment and reads the openjson settings.
// Missing .env files are not an error.
func LoadEnv(files ...string) Env {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	return Env{
		LogLevel: getEnv(EnvLogLevel, "info"),
		Workers:  getEnvInt(EnvWorkers, 4),
		Lang:     getEnv(EnvLang, ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("ignoring invalid number")
		return fallback
	}
	return n
}

// ---------------------------------------------------------------------------
// Language codes
// ---------------------------------------------------------------------------

// NormalizeLanguage parses a language code such as "pt_BR" or "zh-Hant"
// and returns its canonical BCP 47 form.
func NormalizeLanguage(code string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", code, err)
	}
	return tag.String(), nil
}

// SameLanguage reports whether two codes name the same language tag.
func SameLanguage(a, b string) bool {
	na, errA := NormalizeLanguage(a)
	nb, errB := NormalizeLanguage(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return na == nb
}
