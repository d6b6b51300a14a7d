package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"bookharvest/pkg/catalog"
	"bookharvest/pkg/config"
	"bookharvest/pkg/fetch"
	"bookharvest/pkg/harvest"
	"bookharvest/pkg/sites"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "harvest":
		runHarvest(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "list-sources":
		runListSources()
	case "version":
		fmt.Printf("bookharvest %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `bookharvest - Multi-source book catalog harvester

Usage:
  bookharvest <command> [options]

Commands:
  harvest       Harvest books from the configured sources into the catalog
  validate      Validate configuration file
  list-sources  List supported source keys
  version       Show version info

Run 'bookharvest <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("Invalid log level %q, using info", level)
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

func runHarvest(args []string) {
	fs := flag.NewFlagSet("harvest", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	sources := fs.String("sources", "", "Comma-separated source keys (overrides config)")
	count := fs.Int("count", 0, "Target record count (overrides config)")
	pages := fs.Int("pages", 0, "Explicit pages per source (overrides config)")
	content := fs.Bool("content", false, "Fetch full book text for harvested records")
	parallel := fs.Bool("parallel", false, "Harvest sources concurrently")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	fs.Parse(args)

	log := newLogger(*logLevel)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *sources != "" {
		cfg.Sources = strings.Split(*sources, ",")
		for i := range cfg.Sources {
			cfg.Sources[i] = strings.TrimSpace(cfg.Sources[i])
		}
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if *count > 0 {
		cfg.TargetCount = *count
	}
	if *pages > 0 {
		cfg.PageCount = *pages
	}
	if *content {
		cfg.FetchContent = true
	}
	if *parallel {
		cfg.Parallel = true
	}

	adapters := make([]*sites.Adapter, 0, len(cfg.Sources))
	for _, key := range cfg.Sources {
		a, err := sites.ForSource(key)
		if err != nil {
			log.Fatalf("Configuration error: %v", err)
		}
		adapters = append(adapters, a)
	}

	store, err := catalog.NewBadgerStore(cfg.CatalogDir, logrus.NewEntry(log))
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(cfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(client, log)
	limiter := fetch.NewRateLimiter(cfg.DelayPerHost, log)
	harvester := harvest.NewHarvester(fetcher, limiter, log)

	session := harvester.Run(ctx, adapters, harvest.Options{
		TargetCount:  cfg.TargetCount,
		PageCount:    cfg.PageCount,
		MaxPages:     cfg.MaxPagesPerSource,
		UserAgent:    cfg.UserAgent,
		Delay:        cfg.DelayPerHost,
		FetchContent: cfg.FetchContent,
		Parallel:     cfg.Parallel,
	})

	for key, srcErr := range session.SourceErrors {
		log.Warnf("Source %s aborted: %v", key, srcErr)
	}

	merger := catalog.NewMerger(logrus.NewEntry(log).WithField("session_id", session.ID))
	report := merger.Merge(session.Records, store)

	total, err := store.Count()
	if err != nil {
		log.Warnf("Failed to count catalog records: %v", err)
	}

	fmt.Printf("Harvested %d records from %d source(s)\n", len(session.Records), len(adapters))
	fmt.Printf("Merge report: %s\n", report)
	fmt.Printf("Catalog now holds %d records\n", total)

	if report.CommitErr != nil {
		os.Exit(1)
	}
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	fs.Parse(args)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
		os.Exit(1)
	}
	for _, key := range cfg.Sources {
		if _, err := sites.ForSource(key); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Println("Config OK")
}

func runListSources() {
	for _, key := range sites.Keys() {
		a, _ := sites.ForSource(key)
		fmt.Printf("%-12s %s\n", key, a.BaseURL())
	}
}
