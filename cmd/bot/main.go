package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/Aladore384/guildpulse/internal/adapter/dryrun"
	"github.com/Aladore384/guildpulse/internal/adapter/httpserver"
	"github.com/Aladore384/guildpulse/internal/adapter/smtp"
	"github.com/Aladore384/guildpulse/internal/app"
	"github.com/Aladore384/guildpulse/internal/config"
	"github.com/Aladore384/guildpulse/internal/decay"
	"github.com/Aladore384/guildpulse/internal/domain"
	"github.com/Aladore384/guildpulse/internal/platform/logging"
	"github.com/Aladore384/guildpulse/internal/reactrole"
	"github.com/Aladore384/guildpulse/internal/score"
	"github.com/Aladore384/guildpulse/internal/statestore"
	"github.com/Aladore384/guildpulse/internal/tier"
	"github.com/Aladore384/guildpulse/internal/verify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	store, err := statestore.Open(cfg.DataFile)
	if err != nil {
		slog.Error("Failed to open state store", "path", cfg.DataFile, "error", err)
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()

	// The chat-platform gateway is wired in by the deployment; the
	// dry-run adapters stand in for local development.
	roles := dryrun.NewRoleDirectory()
	channel := dryrun.NewMessageChannel()

	var email domain.EmailDispatcher
	if cfg.SMTPHost != "" {
		email = smtp.NewDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSenderName, cfg.SMTPSenderAddress)
	} else {
		email = dryrun.NewEmailDispatcher()
	}

	scores := score.NewLedger(store, cfg.ScoreReward, cfg.ScoreLimit)
	links := reactrole.NewRegistry(store)
	panels := reactrole.NewPanelTracker(store, links, roles)
	codes := verify.NewLedger(store, clock, roles, cfg.VerifiedRoleID, cfg.AllowedEmailDomains)

	settings := app.Settings{
		BotUserID:      cfg.BotUserID,
		ScoreThreshold: cfg.ScoreThreshold,
		TierRoles: tier.Pair{
			ActiveRoleID:  cfg.ActiveRoleID,
			PassiveRoleID: cfg.PassiveRoleID,
		},
		VerifiedRoleID:   cfg.VerifiedRoleID,
		UnverifiedRoleID: cfg.UnverifiedRoleID,
		JoinlogChannelID: cfg.JoinlogChannelID,
	}
	service := app.NewService(settings, store, scores, links, panels, codes, roles, channel, email, clock)

	if err := codes.Rearm(); err != nil {
		slog.Error("Failed to rearm verification timers", "error", err)
		os.Exit(1)
	}

	scheduler := decay.NewScheduler(scores, service, cfg.ScoreDailyDec, cfg.DecayInterval, clock)
	obsServer := httpserver.NewServer(cfg.MetricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})
	g.Go(obsServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return obsServer.Shutdown(shutdownCtx)
	})

	slog.Info("guildpulse started", "data_file", cfg.DataFile, "metrics_addr", cfg.MetricsAddr)

	if err := g.Wait(); err != nil {
		slog.Error("Shutdown with error", "error", err)
		os.Exit(1)
	}
	slog.Info("guildpulse stopped")
}
