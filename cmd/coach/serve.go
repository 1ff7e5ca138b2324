package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fitops/coachdesk/internal/cache"
	"github.com/fitops/coachdesk/internal/config"
	"github.com/fitops/coachdesk/internal/notify"
	"github.com/fitops/coachdesk/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the CoachDesk API server",
		Long:  "Serves the pipeline API, delivers chat notifications and runs the stalled-card digest until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, gdb, err := openDB(configPath)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.Server.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	rc := cache.New(cfg.Redis.Addr, cfg.Redis.DB)
	defer rc.Close()

	notifier, closeSinks, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	digester := notify.NewDigester(gdb, notifier, log, cfg.Notify.StallDays)
	if err := digester.Start(cfg.Notify.DigestCron); err != nil {
		return err
	}
	defer digester.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, server.StartOpts{
		DB:        gdb,
		Cache:     rc,
		Notifier:  notifier,
		Logger:    log,
		Port:      cfg.Server.Port,
		JWTSecret: cfg.Server.JWTSecret,
	})
}

// buildLogger maps the config log mode onto a zap preset.
func buildLogger(mode string) (*zap.Logger, error) {
	var log *zap.Logger
	var err error
	if mode == "prod" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}

// buildNotifier wires the configured chat sinks. Missing tokens simply
// leave a sink out.
func buildNotifier(cfg *config.Config, log *zap.Logger) (*notify.Notifier, func(), error) {
	var sinks []notify.Sink
	closeSinks := func() {}

	if cfg.Notify.Slack.Token != "" {
		s, err := notify.NewSlack(notify.SlackOpts{
			BotToken:  cfg.Notify.Slack.Token,
			ChannelID: cfg.Notify.Slack.Channel,
		})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.Notify.Discord.Token != "" {
		d, err := notify.NewDiscord(notify.DiscordOpts{
			BotToken:  cfg.Notify.Discord.Token,
			ChannelID: cfg.Notify.Discord.Channel,
		})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, d)
		closeSinks = func() { d.Close() }
	}
	return notify.New(log, sinks...), closeSinks, nil
}
