package config

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Logger returns a named logger at the configured level writing to stderr.
func (c Config) Logger(name string) hclog.Logger {
	return c.LoggerTo(name, os.Stderr)
}

func (c Config) LoggerTo(name string, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.LevelFromString(c.LogLevel),
		Output: w,
	})
}

// ConsoleLogger is for processes that own the terminal. Output goes to
// LogFile when set and is discarded otherwise. The returned close func
// releases the file.
func (c Config) ConsoleLogger(name string) (hclog.Logger, func() error, error) {
	if c.LogFile == "" {
		return hclog.NewNullLogger(), func() error { return nil }, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return c.LoggerTo(name, f), f.Close, nil
}
