package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed values from the environment and remembers every
// malformed value so loading can fail with all of them at once.
type envReader struct {
	errs []error
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) fail(key string, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (r *envReader) str(key string, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func (r *envReader) integer(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}

	return intVal
}

func (r *envReader) float(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
		r.fail(key, value, errors.New("not a finite number"))
		return defaultValue
	}

	return floatVal
}

func (r *envReader) boolean(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}

	r.fail(key, value, errors.New("not a boolean"))
	return defaultValue
}

// duration accepts Go duration syntax or a bare integer of milliseconds.
func (r *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}

	return duration
}

// NormalizeMode maps BOT_MODE aliases onto ModeArbitrage or ModeLegacy.
// Unknown values are returned upper-cased so validation can report them.
func NormalizeMode(mode string) string {
	mode = strings.ToUpper(strings.TrimSpace(mode))
	switch mode {
	case "", ModeArbitrage, "ARBITRAGE":
		return ModeArbitrage
	case ModeLegacy, "BTC_15M", "BTC15M":
		return ModeLegacy
	}
	return mode
}
