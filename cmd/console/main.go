package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"

	"minetwin/internal/config"
	"minetwin/internal/console"
)

func main() {
	cfg := config.Load()
	log, closeLog, err := cfg.ConsoleLogger("minetwin-console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "screen init: %v\n", err)
		os.Exit(1)
	}

	app := console.New(screen, cfg, log)
	defer app.Close()
	app.Run()
}
