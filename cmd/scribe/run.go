package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/internal/presentation/tui"
	"github.com/aretw0/scribe/pkg/adapters/discord"
	httpAdapter "github.com/aretw0/scribe/pkg/adapters/http"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve embed sessions",
	Long: `Connects the bot to the Discord gateway and starts one embed session for
every "!embed" message. The admin API (health, sessions, documents, metrics)
listens on SCRIBE_ADMIN_ADDR unless it is empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.RequireDiscord(); err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		if term.IsTerminal(int(os.Stderr.Fd())) {
			tui.PrintBanner(os.Stderr)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		be, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer be.close()

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		admin := httpAdapter.NewServer(nil, be.store,
			httpAdapter.WithVersion(scribe.Version),
			httpAdapter.WithLogger(logger),
		)

		bot, err := discord.NewBot(cfg.DiscordToken, cfg.ApplicationID, logger)
		if err != nil {
			return err
		}
		engine := scribe.New(bot.Gateway(),
			scribe.WithLogger(logger),
			scribe.WithArchive(be.store),
			scribe.WithLocker(be.locker),
			scribe.WithTitleTimeout(cfg.TitleTimeout),
			scribe.WithLifecycleHooks(domain.MergeHooks(
				observability.Hooks(metrics, logger),
				admin.Hooks(),
			)),
		)
		admin.Sessions = engine

		var srv *http.Server
		if cfg.AdminAddr != "" {
			srv = &http.Server{
				Addr:              cfg.AdminAddr,
				Handler:           admin.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				logger.Info("admin API listening", "address", cfg.AdminAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("admin API failed", "err", err)
					stop()
				}
			}()
		}

		logger.Info("starting scribe", "version", scribe.Version, "store", cfg.Store)
		runErr := bot.Run(ctx, engine.HandleTrigger)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := engine.Shutdown(shutdownCtx); err != nil {
			logger.Warn("sessions did not stop in time", "err", err)
		}
		if srv != nil {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("admin API did not stop gracefully", "err", err)
				_ = srv.Close()
			}
		}
		logger.Info("scribe stopped")
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
