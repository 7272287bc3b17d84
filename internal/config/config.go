package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	Steps         int
	StepDelay     time.Duration
	Seed          uint64
	LogLevel      string
	LogFile       string
	FrameInterval time.Duration
	Sound         bool
}

func Load() Config {
	return Config{
		Addr:          getEnv("MINETWIN_ADDR", ":8080"),
		Steps:         getInt("MINETWIN_STEPS", 100),
		StepDelay:     getDuration("MINETWIN_STEP_DELAY", 50*time.Millisecond),
		Seed:          uint64(getInt("MINETWIN_SEED", 0)),
		LogLevel:      getEnv("MINETWIN_LOG_LEVEL", "info"),
		LogFile:       getEnv("MINETWIN_LOG_FILE", ""),
		FrameInterval: getDuration("MINETWIN_FRAME_INTERVAL", 16*time.Millisecond),
		Sound:         getBool("MINETWIN_SOUND", true),
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d < 0 {
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return b
}
