package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"deusvent/internal/config"
	"deusvent/internal/db"
	"deusvent/internal/gateway"
	grpcserver "deusvent/internal/grpc"
	"deusvent/internal/handlers"
	"deusvent/internal/telemetry"
	"deusvent/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Deusvent game server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration
			cfg, err := config.LoadWithDefaults()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log.Printf("Configuration loaded: %v", cfg)
			if rollback {
				return rollbackDatabase(cmd.Context(), cfg)
			}
			return serve(cfg)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the latest sqlite migration and exit")
	return cmd
}

// rollbackDatabase reverts the latest migration of the sqlite storage.
func rollbackDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.Storage != config.StorageSQLite {
		return fmt.Errorf("rollback needs %s storage, got %s", config.StorageSQLite, cfg.Database.Storage)
	}
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer d.Close()
	if err := db.RollbackLast(ctx, d); err != nil {
		return err
	}
	v, err := db.Version(ctx, d)
	if err != nil {
		return err
	}
	log.Printf("Database at version %d", v)
	return nil
}

func serve(cfg *config.Config) error {
	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStorage()

	api := &handlers.API{
		Storage:   storage,
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}
	router := api.Router()

	// Start gRPC
	shutdownGRPC, err := grpcserver.StartGRPC(cfg, router)
	if err != nil {
		return fmt.Errorf("start grpc: %w", err)
	}
	log.Printf("gRPC server listening on %s", cfg.GRPC.Address)

	// Start WebSocket gateway
	shutdownHTTP, err := gateway.Start(cfg, router)
	if err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	log.Printf("WebSocket gateway listening on %s", cfg.Gateway.Address)

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdownHTTP(ctx); err != nil {
		log.Printf("gateway shutdown error: %v", err)
	}
	if err := shutdownGRPC(ctx); err != nil {
		log.Printf("grpc shutdown error: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
	return nil
}

// openStorage returns the configured entity storage and a func releasing it.
func openStorage(ctx context.Context, cfg *config.Config) (repository.Storage, func(), error) {
	switch cfg.Database.Storage {
	case config.StorageMemory:
		return repository.NewMemoryStorage(), func() {}, nil
	case config.StorageDynamoDB:
		s, err := repository.NewDynamoStorage(ctx, cfg.Database.DynamoTable)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.StorageSQLite:
		d, err := db.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLStorage(d), func() {
			if err := d.Close(); err != nil {
				log.Printf("close db: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Database.Storage)
	}
}
