package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cozi-lab/logsync/internal/config"
	"github.com/cozi-lab/logsync/internal/logging"
	"github.com/cozi-lab/logsync/internal/pipeline"
	"github.com/cozi-lab/logsync/internal/remote"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "logsync.xml", "path to the XML configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("logsync %s (built %s)\n", Version, BuildTime)
		return
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	outputPath := flag.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.ParseLevel(cfg.Processing.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := remote.NewDriveClient(cfg.Remote.BaseURL, cfg.Remote.Token,
		time.Duration(cfg.Remote.TimeoutSeconds)*time.Second)

	driver := pipeline.New(cfg, client)
	stats, err := driver.Run(ctx, outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v, terminating execution.\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Cleaned data saved to %s (%d rows, %d files skipped, %d cells skipped).\n",
		outputPath, stats.Rows, stats.SkippedFiles, stats.SkippedCells)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] OUTPUT_FILE\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Mirrors remote instrument logs into the local cache and collates them\ninto a long-format CSV written to OUTPUT_FILE.\n\nFlags:\n")
	flag.PrintDefaults()
}
