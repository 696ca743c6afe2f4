package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shuffly/shuffly/internal/config"
	"github.com/shuffly/shuffly/internal/logging"
	"github.com/shuffly/shuffly/internal/manifest"
	"github.com/shuffly/shuffly/internal/metrics"
	"github.com/shuffly/shuffly/internal/shuffle"
	"github.com/shuffly/shuffly/internal/storage"
)

var (
	flagConfig      string
	flagInput       string
	flagInputDir    string
	flagExt         string
	flagOutputDir   string
	flagOutputName  string
	flagMaxSizeMB   int64
	flagSeed        string
	flagDestURL     string
	flagManifest    bool
	flagLogFormat   string
	flagLogLevel    string
	flagMetricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "shuffly",
	Short: "Randomly permute the records of large line-oriented files",
	Long: `shuffly shuffles the lines of one or more delimited text files
(optionally gzip- or zstd-compressed) into size-bounded output files,
without holding the whole input in memory.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	f.StringVarP(&flagInput, "input", "i", "", "input files, colon-separated (e.g. a.jsonl:b.jsonl)")
	f.StringVar(&flagInputDir, "input-dir", "", "directory to scan for record files")
	f.StringVar(&flagExt, "ext", ".jsonl", "record-file extension for discovery and output naming")
	f.StringVarP(&flagOutputDir, "output-dir", "o", ".", "output directory")
	f.StringVarP(&flagOutputName, "output-name", "n", "shuffled", "output base name (without extension)")
	f.Int64VarP(&flagMaxSizeMB, "max-size-mb", "s", 100, "approximate maximum size per output file in MB")
	f.StringVar(&flagSeed, "seed", "", "integer seed for reproducible runs")
	f.StringVar(&flagDestURL, "dest-url", "", "blob bucket URL for outputs (file://, gs://, s3://)")
	f.BoolVar(&flagManifest, "manifest", false, "write manifest.json describing the run")
	f.StringVar(&flagLogFormat, "log-format", "", "log format: text or json")
	f.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&flagMetricsAddr, "metrics-addr", "", "address for the Prometheus metrics endpoint (disabled when empty)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{Format: cfg.Log.Format, Level: cfg.Log.Level})
	log := logging.Component("main")
	log.Info("shuffly", "version", shuffle.Version, "git_sha", shuffle.GitSHA)

	if err := cfg.DiscoverInputs(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown handler. Interrupting mid-run may leave bucket
	// temp files behind; they need external cleanup.
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		log.Info("received signal, aborting", "signal", sig.String())
		cancel()
	}()

	if cfg.Metrics.Enabled {
		metrics.Init("shuffly")
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Address); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	store, err := storage.New(ctx, storage.Config{
		OutputDir: cfg.OutputDir,
		DestURL:   cfg.Storage.DestURL,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := shuffle.Run(ctx, shuffle.Options{
		Inputs:         cfg.Inputs,
		ScratchDir:     cfg.OutputDir,
		OutputName:     cfg.OutputName,
		Extension:      cfg.Extension,
		MaxOutputBytes: cfg.MaxOutputBytes(),
		Seed:           cfg.Seed,
		MaxOpenReaders: cfg.Tuning.MaxOpenReaders,
		MaxOpenWriters: cfg.Tuning.MaxOpenWriters,
		FlushBytes:     cfg.Tuning.FlushBytes,
	}, store)
	if err != nil {
		return err
	}

	if cfg.WriteManifest {
		m := manifest.New(cfg.Inputs, cfg.Seed, result.BucketCount, result.Outputs, manifest.ProducerInfo{
			Name:    "shuffly",
			Version: shuffle.Version,
			GitSHA:  shuffle.GitSHA,
		})
		if err := manifest.Write(ctx, store, m); err != nil {
			log.Warn("failed to write manifest", "error", err)
		}
	}

	log.Info("run complete",
		"outputs", len(result.Outputs),
		"buckets", result.BucketCount,
		"duration", result.Duration.String(),
	)

	fmt.Printf("Successfully created %d output files:\n", len(result.Outputs))
	for _, path := range result.Paths() {
		fmt.Printf("  %s\n", path)
	}
	return nil
}

// buildConfig loads the YAML/env configuration and applies flag overrides on
// top, only for flags the user actually set.
func buildConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Inputs = append(cfg.Inputs, config.SplitInputList(flagInput)...)
	}
	if flags.Changed("input-dir") {
		cfg.InputDir = flagInputDir
	}
	if flags.Changed("ext") {
		cfg.Extension = flagExt
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = flagOutputDir
	}
	if flags.Changed("output-name") {
		cfg.OutputName = flagOutputName
	}
	if flags.Changed("max-size-mb") {
		cfg.MaxSizeMB = flagMaxSizeMB
	}
	if flags.Changed("seed") {
		seed, err := config.ParseSeed(flagSeed)
		if err != nil {
			return cfg, err
		}
		cfg.Seed = seed
	}
	if flags.Changed("dest-url") {
		cfg.Storage.DestURL = flagDestURL
	}
	if flags.Changed("manifest") {
		cfg.WriteManifest = flagManifest
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = flagLogFormat
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = flagMetricsAddr
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("shuffly failed", "error", err)
		os.Exit(1)
	}
}
