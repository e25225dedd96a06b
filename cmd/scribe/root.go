package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/scribe/internal/config"
	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/adapters/file"
	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/adapters/redis"
	"github.com/aretw0/scribe/pkg/persistence/middleware"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe builds Discord embeds through buttons and modal forms",
	Long: `Scribe is a Discord bot that answers "!embed" with a guided dialogue:
a title form, any number of field forms, and a final embed posted in place.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Optional YAML configuration file")
	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "Dotenv files to load (missing files are skipped)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	return config.Load(config.Options{ConfigFile: file, EnvFiles: envFiles})
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)
	slog.SetDefault(logger)
	return logger, nil
}

// backend bundles the archive and the trigger locker chosen by cfg.Store.
type backend struct {
	store  ports.DocumentStore
	locker ports.DistributedLocker
	close  func() error
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	be := &backend{close: func() error { return nil }}
	switch cfg.Store {
	case config.StoreMemory:
		be.store, be.locker = memory.NewDocumentStore(), memory.NewLocker()
	case config.StoreFile:
		// The archive is shared on disk; claims stay per process.
		be.store, be.locker = file.New(cfg.FileDir), memory.NewLocker()
	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.DocumentTTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis at %s: %w", cfg.Redis.Addr, err)
		}
		be.store, be.locker, be.close = store, redis.NewLocker(store.Client(), cfg.Redis.Prefix), store.Close
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	active, fallback, err := cfg.Archive.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		be.store = middleware.Chain(be.store, mw)
	}
	return be, nil
}

// openArchive returns the archive for commands that read it from outside the
// bot process, which rules out the memory store.
func openArchive(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*backend, error) {
	if cfg.Store == config.StoreMemory {
		return nil, fmt.Errorf("%s needs SCRIBE_STORE=redis or SCRIBE_STORE=file", cmd.CommandPath())
	}
	return openBackend(ctx, cfg)
}
