package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"factcheck/api/internal/app"
	"factcheck/api/internal/config"
	"factcheck/api/internal/handle"
	"factcheck/api/internal/httpserver"
	"factcheck/api/internal/logger"
	"factcheck/api/internal/nli"
	"factcheck/api/internal/telegram"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.TelegramBotToken == "" {
		cfg.TelegramBotToken = config.MustEnv("TELEGRAM_BOT_TOKEN")
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	pipe, engines, err := app.Pipeline(cfg, lg)
	if err != nil {
		lg.Fatal("pipeline", zap.Error(err))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		lg.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false
	lg.Info("authorized", zap.String("bot", bot.Self.UserName))

	r := &telegram.Router{
		Bot:        bot,
		Pipeline:   pipe,
		Engines:    engines,
		EngManager: nli.NewManager(pipe.Engine()),
		Log:        lg.Named("telegram"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	mux := gin.New()
	mux.Use(gin.Recovery())
	mux.GET("/healthz", handle.Healthz)

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		err = runWebhook(ctx, addr, bot, r, mux, webhookURL, lg)
	} else {
		err = runPolling(ctx, addr, bot, r, mux, lg)
	}
	if err != nil {
		lg.Fatal("bot stopped", zap.Error(err))
	}
}

func runWebhook(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, mux *gin.Engine, baseURL string, lg *zap.Logger) error {
	// secret path derived from the token
	path := "/webhook/" + telegram.ShortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	mux.POST(path, func(c *gin.Context) {
		upd, err := bot.HandleUpdate(c.Request)
		if err != nil {
			lg.Warn("bad webhook update", zap.Error(err))
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
		go r.HandleUpdate(ctx, *upd)
	})

	lg.Info("webhook mode", zap.String("addr", addr), zap.String("path", path))
	return httpserver.New(addr, mux, lg).Run(ctx)
}

func runPolling(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, mux *gin.Engine, lg *zap.Logger) error {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		lg.Warn("delete webhook", zap.Error(err))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.New(addr, mux, lg).Run(ctx)
	})
	g.Go(func() error {
		lg.Info("polling mode")
		(&telegram.Poller{
			Bot:     bot,
			Handle:  r.HandleUpdate,
			Workers: telegram.DefaultWorkers,
			Log:     lg.Named("polling"),
		}).Run(ctx)
		return nil
	})
	return g.Wait()
}
