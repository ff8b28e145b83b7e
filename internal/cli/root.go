package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openclearing/epinflow/internal/config"
	"github.com/openclearing/epinflow/internal/job"
	"github.com/openclearing/epinflow/internal/report"
	"github.com/openclearing/epinflow/internal/storage/blobstore"
	_ "github.com/openclearing/epinflow/internal/storage/blobstore/leveldb"
	_ "github.com/openclearing/epinflow/internal/storage/blobstore/pebble"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
	"github.com/openclearing/epinflow/internal/storage/recorddb/postgres"
)

var (
	// Global flags
	configFile string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "epinflow",
	Short: "epinflow - EPIN settlement file processing",
	Long: `epinflow ingests Visa EPIN settlement files, parses their VSS-110,
VSS-120, VSS-130 and VSS-140 records into a relational store, and answers
hierarchical report queries over the stored records.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")
}

// app bundles the wired services a command needs. Commands obtain one via
// openApp and must Close it when done.
type app struct {
	cfg     *config.Config
	store   recorddb.RepositoryManager
	blobs   blobstore.Store
	jobs    *job.Service
	reports *report.Service
	logFile *os.File
}

// buildLogger creates the pipeline logger from the [log] config section:
// level threshold, optional file target, stderr otherwise. The returned file
// is nil when logging goes to stderr.
func buildLogger(cfg *config.LogConfig) (job.Logger, *os.File, error) {
	if cfg.File == "" {
		return job.NewLogger(cfg.Level, nil), nil, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return job.NewLogger(cfg.Level, f), f, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger, logFile, err := buildLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	closeLog := func() {
		if logFile != nil {
			logFile.Close()
		}
	}

	store, err := postgres.NewRepositoryManager(&cfg.Database)
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := store.Open(ctx); err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	blobs, err := blobstore.Open(&cfg.BlobStore)
	if err != nil {
		store.Close(ctx)
		closeLog()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	jobs, err := job.NewService(store, blobs, &cfg.Pipeline, logger)
	if err != nil {
		blobs.Close()
		store.Close(ctx)
		closeLog()
		return nil, err
	}

	reports, err := report.NewService(store, cfg.Report.CacheSize)
	if err != nil {
		blobs.Close()
		store.Close(ctx)
		closeLog()
		return nil, err
	}

	return &app{cfg: cfg, store: store, blobs: blobs, jobs: jobs, reports: reports, logFile: logFile}, nil
}

func (a *app) Close(ctx context.Context) {
	a.blobs.Close()
	a.store.Close(ctx)
	if a.logFile != nil {
		a.logFile.Close()
	}
}
