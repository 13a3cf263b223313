// Команда provision создаёт в Bitrix24 пользовательское поле сделки
// UF_CRM_DEAL_TELEGRAM_ID. Выполняется один раз при настройке портала.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/subwest/bonus-bridge/pkg/bitrix"
	"github.com/subwest/bonus-bridge/pkg/conf"
	"github.com/subwest/bonus-bridge/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("файл .env не найден, используем переменные окружения")
	}

	cfg, err := conf.NewConf()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	logger.Set(cfg.Bridge.LogPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := bitrix.New(cfg)
	fieldID, err := client.DealUserFieldAdd(ctx)
	if err != nil {
		logger.Fatalf("создание пользовательского поля: %v", err)
	}

	logger.Info("поле %s создано, идентификатор %s", conf.UFTelegramID, fieldID)
}
