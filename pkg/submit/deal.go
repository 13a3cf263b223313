package submit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/subwest/bonus-bridge/pkg/bitrix"
	"github.com/subwest/bonus-bridge/pkg/conf"
	"github.com/subwest/bonus-bridge/pkg/logger"
)

// DealAPI — методы Bitrix24, нужные для создания сделки со скриншотом
type DealAPI interface {
	UploadFile(ctx context.Context, folderID int, filename string, data []byte) (*bitrix.UploadedFile, error)
	DealAdd(ctx context.Context, fields map[string]any) (string, error)
	TimelineCommentAdd(ctx context.Context, dealID string, comment string, authorID int) error
}

// DealCreator создаёт сделку в Bitrix24: загрузка скриншота на диск,
// создание сделки с пользовательскими полями, комментарий в таймлайн
type DealCreator struct {
	api DealAPI
	cfg conf.BitrixConfig
}

func NewDealCreator(api DealAPI, cfg conf.BitrixConfig) *DealCreator {
	return &DealCreator{api: api, cfg: cfg}
}

// Complete выполняет весь цикл создания сделки. Ошибка загрузки файла или
// создания сделки прерывает процесс; уже загруженный файл при неудавшейся
// сделке не удаляется — принятое ограничение. Неудавшийся комментарий в
// таймлайн только логируется.
func (d *DealCreator) Complete(ctx context.Context, sub Submission) error {
	data, err := os.ReadFile(sub.PhotoPath)
	if err != nil {
		return fmt.Errorf("чтение скриншота: %w", err)
	}

	file, err := d.api.UploadFile(ctx, d.cfg.DiskFolderID, filepath.Base(sub.PhotoPath), data)
	if err != nil {
		return err
	}
	logger.Info("скриншот загружен на диск, файл %s", file.ID, sub.ChatID)

	fields := map[string]any{
		"TITLE":          fmt.Sprintf("Subway Bonus Transfer: %s", sub.Phone),
		"CATEGORY_ID":    d.cfg.CategoryID,
		"STAGE_ID":       d.cfg.StageID,
		"ASSIGNED_BY_ID": d.cfg.ResponsibleID,
		"COMMENTS":       fmt.Sprintf("Phone: %s\nTelegram ID: %d", sub.Phone, sub.UserID),
		conf.UFField1:    file.ID,
		conf.UFField2:    file.ID,
		// Обратный маршрут: по этому полю входящие комментарии CRM находят чат
		conf.UFTelegramID: strconv.FormatInt(sub.ChatID, 10),
	}

	dealID, err := d.api.DealAdd(ctx, fields)
	if err != nil {
		return err
	}
	logger.Info("сделка %s создана", dealID, sub.ChatID)

	comment := "Фото приложения"
	if file.DownloadURL != "" {
		comment += fmt.Sprintf("\n[img width=300]%s[/img]", file.DownloadURL)
	}
	if err := d.api.TimelineCommentAdd(ctx, dealID, comment, d.cfg.ResponsibleID); err != nil {
		logger.Warn("комментарий к сделке %s не добавлен: %v", dealID, err, sub.ChatID)
	}

	return nil
}
