package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"linkaudit/pkg/config"
	"linkaudit/pkg/crawler"
	"linkaudit/pkg/export"
	"linkaudit/pkg/fetch"
	"linkaudit/pkg/parse"
	"linkaudit/pkg/report"
	"linkaudit/pkg/state"
)

const version = "1.0.0"

func main() {
	// --- Early Initialization & Flags ---
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	urlFlag := flag.String("url", "", "Base URL to start crawling from (required)")
	depthFlag := flag.Int("depth", 5, "Maximum crawl depth")
	concurrencyFlag := flag.Int("concurrency", 10, "Maximum concurrent fetches")
	timeoutFlag := flag.Duration("timeout", 10*time.Second, "Per-request fetch timeout")
	exportFlag := flag.String("export", "", "Export broken links to CSV file after the scan")
	exportRealtimeFlag := flag.String("export-realtime", "", "Export broken links to CSV file in real time")
	configFlag := flag.String("config", "", "Optional YAML config file (flags override)")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	versionFlag := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("linkaudit %s\n", version)
		return
	}

	// --- Logger Configuration ---
	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
	}

	// --- Configuration: file first, flags override ---
	cfg := config.Default()
	if *configFlag != "" {
		if err := config.Load(*configFlag, cfg); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.BaseURL = *urlFlag
		case "depth":
			cfg.MaxDepth = *depthFlag
		case "concurrency":
			cfg.Concurrency = *concurrencyFlag
		case "timeout":
			cfg.RequestTimeout = *timeoutFlag
		case "export":
			cfg.ExportPath = *exportFlag
		case "export-realtime":
			cfg.RealtimeExportPath = *exportRealtimeFlag
		}
	})

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warnf("Config: %s", w)
	}
	if err != nil {
		if errors.Is(err, config.ErrValidation) {
			flag.Usage()
		}
		log.Fatalf("Configuration invalid: %v", err)
	}

	// --- Crawl Run Setup ---
	seed := parse.NormalizeString(cfg.BaseURL)
	baseURL, err := url.Parse(seed)
	if err != nil {
		log.Fatalf("Cannot parse base URL '%s': %v", cfg.BaseURL, err)
	}

	runLog := log.WithFields(logrus.Fields{
		"run_id":   uuid.NewString(),
		"base_url": seed,
	})
	runLog.Infof("Scanning %s up to depth %d with %d concurrent fetches", seed, cfg.MaxDepth, cfg.Concurrency)

	// Realtime exporter: an unopenable sink is fatal before crawling begins
	var exporter state.Exporter
	var realtimeExporter *export.RealtimeExporter
	if cfg.RealtimeExportPath != "" {
		realtimeExporter, err = export.NewRealtimeExporter(cfg.RealtimeExportPath, runLog)
		if err != nil {
			log.Fatalf("Failed to open realtime export sink: %v", err)
		}
		exporter = realtimeExporter
	}

	crawlState := state.New(exporter, runLog)
	client := fetch.NewClient(cfg.HTTPClientSettings, cfg.RequestTimeout, log)
	fetcher := fetch.NewFetcher(client, cfg, runLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Crawl ---
	c := crawler.New(cfg, baseURL, crawlState, fetcher, runLog)
	if err := c.Run(ctx); err != nil {
		runLog.Warnf("Crawl stopped early: %v", err)
	}

	// --- Reporting ---
	snap := crawlState.Snapshot()
	fmt.Println()
	report.PrintStats(os.Stdout, snap)
	fmt.Println()
	report.PrintSummary(os.Stdout, snap.Broken)

	if cfg.ExportPath != "" {
		written, exportErr := export.WriteFinal(cfg.ExportPath, snap.Broken)
		if exportErr != nil {
			runLog.Errorf("Final export failed: %v", exportErr)
		} else {
			runLog.Infof("Exported %d broken link(s) to %s", written, cfg.ExportPath)
		}
	}

	if realtimeExporter != nil {
		if closeErr := realtimeExporter.Close(); closeErr != nil {
			runLog.Errorf("Closing realtime export sink: %v", closeErr)
		}
	}
}
