package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/subwest/bonus-bridge/pkg/bitrix"
	"github.com/subwest/bonus-bridge/pkg/bot"
	"github.com/subwest/bonus-bridge/pkg/conf"
	"github.com/subwest/bonus-bridge/pkg/dialog"
	"github.com/subwest/bonus-bridge/pkg/logger"
	"github.com/subwest/bonus-bridge/pkg/submit"
	"github.com/subwest/bonus-bridge/pkg/webhook"
)

func main() {
	// .env удобен при локальном запуске, в проде переменные приходят из окружения
	if err := godotenv.Load(); err != nil {
		log.Println("файл .env не найден, используем переменные окружения")
	}

	cfg, err := conf.NewConf()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	logger.Set(cfg.Bridge.LogPath)

	api, err := tgbotapi.NewBotAPI(cfg.TG.Token)
	if err != nil {
		logger.Fatalf("создание бота: %v", err)
	}
	api.Debug = false

	crm := bitrix.New(cfg)
	store := dialog.NewStore()

	var action submit.Action
	switch cfg.Bridge.Mode {
	case conf.ModeGroup:
		action = submit.NewGroupForward(api, cfg.TG.StaffGroupID)
	default:
		action = submit.NewDealCreator(crm, cfg.Bitrix)
	}
	logger.Info("режим завершения анкеты: %s", cfg.Bridge.Mode)

	b := bot.New(api, store, action)
	relay := webhook.NewRelay(crm, api, cfg.Bitrix.ResponsibleID)

	srv := &http.Server{
		Addr:    cfg.Bridge.ListenAddr,
		Handler: webhook.NewServer(relay, cfg.Bridge.DumpDir).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("приёмник вебхуков слушает %s", cfg.Bridge.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("приёмник вебхуков: %v", err)
			stop()
		}
	}()

	go func() {
		if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("бот: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("получен сигнал остановки")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("остановка приёмника вебхуков: %v", err)
	}

	logger.Info("сервис остановлен")
}
