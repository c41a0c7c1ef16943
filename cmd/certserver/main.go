package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.cloudfoundry.org/lager"

	"github.com/adamscao/lotcert/internal/api"
	"github.com/adamscao/lotcert/internal/auth"
	"github.com/adamscao/lotcert/internal/certs"
	"github.com/adamscao/lotcert/internal/config"
	"github.com/adamscao/lotcert/internal/db"
	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/logging"
	"github.com/adamscao/lotcert/internal/policy"
	"github.com/adamscao/lotcert/internal/render"
	"github.com/adamscao/lotcert/internal/storage"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse command line flags
	configPath := flag.String("config", "/etc/lotcert/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Lot Certificate Server\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("certserver", cfg.Logging, os.Stdout)
	logger.Info("starting", lager.Data{"version": Version, "commit": Commit, "config": *configPath})

	// Initialize database
	logger.Info("connecting-to-database", lager.Data{"driver": cfg.Database.Driver})
	database, err := db.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("database-connect-failed", err)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(database); err != nil {
		logger.Fatal("migrations-failed", err)
	}

	// Initialize blob storage
	s3Client, err := storage.NewS3Client(cfg.Storage)
	if err != nil {
		logger.Fatal("storage-client-failed", err)
	}
	blobs := storage.NewBlobStore(s3Client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, logger)

	// Initialize repositories
	certRepo := repository.NewCertificateRepository(database)
	verificationRepo := repository.NewVerificationRepository(database)
	lotRepo := repository.NewLotRepository(database)
	issuerRepo := repository.NewIssuerRepository(database)
	tokenRepo := repository.NewTokenRepository(database)

	svc := certs.NewService(
		certRepo,
		verificationRepo,
		lotRepo,
		blobs,
		render.NewRenderer(cfg.Certificate.Brand, cfg.Certificate.VerifyHostLabel),
		policy.NewValidator(),
		certs.Settings{
			VerifyBaseURL: cfg.Server.PublicVerifyBaseURL,
			Laboratory:    cfg.Certificate.Laboratory,
			Pepper:        cfg.Privacy.Pepper,
			DownloadTTL:   cfg.GetDownloadTTL(),
		},
		logger,
	)

	verifier := auth.NewTokenVerifier(tokenRepo, issuerRepo, logger)

	// Create HTTP server
	server, err := api.NewServer(cfg, svc, verifier, logger)
	if err != nil {
		logger.Fatal("server-init-failed", err)
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	errs := make(chan error, 1)
	go func() {
		errs <- server.Run()
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case sig := <-quit:
		logger.Info("shutting-down", lager.Data{"signal": sig.String()})
	case err := <-errs:
		if err != nil {
			logger.Fatal("server-failed", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown-failed", err)
	}

	logger.Info("stopped")
}
