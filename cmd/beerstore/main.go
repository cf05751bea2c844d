package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soniadragulescu/beerstore/internal/app"
	"github.com/soniadragulescu/beerstore/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	envFile := flag.String("env", ".env", "dotenv file with BEERSTORE_* overrides (optional)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	ephemeral := flag.Bool("ephemeral", false, "keep the offline cache in memory only")
	debug := flag.Bool("debug", false, "log at debug level")
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Parse()

	if *printConfig {
		cfg, err := config.Load(*configPath, *envFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "beerstore: %v\n", err)
			return 1
		}
		fmt.Print(cfg.String())
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		EnvFile:    *envFile,
		PrefsPath:  *prefsPath,
		Ephemeral:  *ephemeral,
		Debug:      *debug,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "beerstore: %v\n", err)
		return 1
	}
	return 0
}
