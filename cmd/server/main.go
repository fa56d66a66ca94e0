package main

import (
	"context"
	"fmt"
	"invitetrack/bot"
	"invitetrack/impl/core"
	"invitetrack/impl/ledger"
	"invitetrack/internal/config"
	"invitetrack/internal/database"
	"invitetrack/internal/http-server/api"
	"invitetrack/internal/tgalert"
	"invitetrack/lib/logger"
	"invitetrack/lib/sl"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:           "invitetrack",
	Short:         "Discord invite tracking and referral rewards",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "conf", "config.yml", "path to config file")
	rootCmd.Flags().StringVar(&logPath, "log", "/var/log/", "path to log file directory")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	conf := config.MustLoad(configPath)
	log := logger.SetupLogger(conf.Env, logPath)
	log.Info("starting invitetrack", slog.String("config", configPath), slog.String("env", conf.Env))
	log.With(
		sl.Secret("discord_token", conf.Discord.Token),
		slog.String("app_id", conf.Discord.AppId),
		slog.String("guild_id", conf.Discord.GuildId),
	).Info("discord configured")

	if conf.Telegram.Enabled {
		log.With(sl.Secret("telegram_api_key", conf.Telegram.ApiKey)).Info("telegram alerts configured")
		alerter, err := tgalert.New(conf.Telegram.ApiKey, conf.Telegram.ChatIds, log)
		if err != nil {
			log.Error("telegram alerts disabled", sl.Err(err))
		} else {
			log = slog.New(logger.NewTelegramHandler(log.Handler(), alerter, logger.ParseLevel(conf.Telegram.MinLevel)))
			log.Info("telegram alerts enabled", slog.Int("chats", len(conf.Telegram.ChatIds)))
		}
	}

	store, closeStore, err := openStore(ctx, conf, log)
	if err != nil {
		return err
	}
	defer closeStore()

	tracker := core.New(store, log)

	discord, err := bot.New(conf.Discord.Token, tracker, log, bot.BotConfig{
		AppId:       conf.Discord.AppId,
		GuildId:     conf.Discord.GuildId,
		AdminRoleId: conf.Discord.AdminRoleId,
		ReplyTTL:    time.Duration(conf.Discord.ReplyTTL) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("discord bot: %w", err)
	}
	tracker.SetInviteSource(discord)

	server := api.New(conf, log, tracker)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return discord.Start(ctx)
	})
	group.Go(func() error {
		return server.Start(ctx)
	})
	err = group.Wait()
	log.Info("invitetrack stopped")
	return err
}

// openStore connects mongo when enabled and falls back to the in-memory ledger otherwise.
func openStore(ctx context.Context, conf *config.Config, log *slog.Logger) (ledger.Store, func(), error) {
	mongo, err := database.NewMongoClient(ctx, conf)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: %w", err)
	}
	if mongo == nil {
		log.Warn("mongo disabled; ledger is kept in memory")
		return database.NewMemoryDB(), func() {}, nil
	}
	log.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo connected")
	return mongo, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			log.Warn("closing mongo", sl.Err(err))
		}
	}, nil
}
