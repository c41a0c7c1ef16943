package main

import (
	"fmt"
	"io"
	"os"

	"code.cloudfoundry.org/lager"
	"github.com/spf13/cobra"

	"github.com/adamscao/lotcert/internal/config"
	"github.com/adamscao/lotcert/internal/db"
	"github.com/adamscao/lotcert/internal/logging"
	"github.com/adamscao/lotcert/internal/storage"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config
	database   *db.DB
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Lot certificate service administration tool",
	Long:  "Administrative tool for managing issuers, tokens, lot source data, certificates and stored documents",
}

func init() {
	// Root flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/lotcert/config.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log storage and database activity to stderr")

	// Add commands
	rootCmd.AddCommand(issuerCmd)
	rootCmd.AddCommand(lotCmd)
	rootCmd.AddCommand(certCmd)
	rootCmd.AddCommand(blobCmd)
	rootCmd.AddCommand(pepperCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initDB() error {
	// Load configuration
	var err error
	cfg, err = config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Connect to database
	database, err = db.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// initBlobs builds the blob store; initDB must have run first
func initBlobs() (*storage.BlobStore, error) {
	client, err := storage.NewS3Client(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return storage.NewBlobStore(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, newLogger()), nil
}

func newLogger() lager.Logger {
	if !verbose {
		return logging.New("admin", config.LoggingConfig{Level: "fatal", Format: "text"}, io.Discard)
	}
	return logging.New("admin", config.LoggingConfig{Level: "debug", Format: "text"}, os.Stderr)
}
