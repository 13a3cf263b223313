// Package bot связывает Telegram-обновления с анкетой (pkg/dialog) и
// завершающим действием (pkg/submit).
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/subwest/bonus-bridge/pkg/dialog"
	"github.com/subwest/bonus-bridge/pkg/logger"
	"github.com/subwest/bonus-bridge/pkg/submit"
)

const (
	msgDone = "✅ Ваша заявка отправлена! Наши сотрудники свяжутся с вами в ближайшее время."
	msgFail = "❌ Произошла ошибка при отправке вашей заявки. Пожалуйста, попробуйте позже."

	contactButtonText = "Отправить номер телефона"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	store  *dialog.Store
	action submit.Action
	cli    *http.Client
}

// New собирает бота поверх уже созданного клиента Telegram: тот же клиент
// используется вебхук-приёмником и пересылкой заявок в группу
func New(api *tgbotapi.BotAPI, store *dialog.Store, action submit.Action) *Bot {
	return &Bot{
		api:    api,
		store:  store,
		action: action,
		cli:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Run получает обновления длинным опросом и обрабатывает каждое до конца,
// включая синхронные вызовы внешних API
func (b *Bot) Run(ctx context.Context) error {
	logger.Info("бот авторизован как %s", b.api.Self.UserName)

	updCfg := tgbotapi.NewUpdate(0)
	updCfg.Timeout = 60
	updates := b.api.GetUpdatesChan(updCfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case u := <-updates:
			if u.Message == nil { // реагируем только на сообщения
				continue
			}
			b.handleMessage(ctx, u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	in := buildInput(msg)

	reply := b.store.Update(chatID, func(s *dialog.Session) dialog.Reply {
		return dialog.Handle(s, in)
	})

	switch {
	case reply.Cancelled:
		b.store.Delete(chatID)
		b.reply(chatID, reply.Text, tgbotapi.NewRemoveKeyboard(true))

	case reply.Completed:
		b.complete(ctx, msg, in.PhotoFileID)
		b.store.Delete(chatID)

	default:
		var markup interface{}
		if reply.RequestContact {
			markup = contactKeyboard()
		} else if reply.RemoveKeyboard {
			markup = tgbotapi.NewRemoveKeyboard(true)
		}
		b.reply(chatID, reply.Text, markup)
	}
}

// complete скачивает скриншот во временный файл, собирает заявку и выполняет
// завершающее действие. Временный файл удаляется на любом исходе.
func (b *Bot) complete(ctx context.Context, msg *tgbotapi.Message, fileID string) {
	chatID := msg.Chat.ID

	snap, ok := b.store.Snapshot(chatID)
	if !ok || snap.Phone == "" {
		// Заявка без телефона не отправляется ни при каких условиях
		logger.Error("анкета завершена без телефона, заявка не отправлена", chatID)
		b.reply(chatID, msgFail, nil)
		return
	}

	photoPath, err := b.downloadPhoto(ctx, fileID, msg.From.ID)
	if err != nil {
		logger.Error("скачивание скриншота: %v", err, chatID)
		b.reply(chatID, msgFail, nil)
		return
	}
	defer func() {
		if err := os.Remove(photoPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("временный файл %s не удалён: %v", photoPath, err, chatID)
		}
	}()

	sub := submit.Submission{
		ChatID:      chatID,
		UserID:      msg.From.ID,
		DisplayName: displayName(msg.From),
		Username:    msg.From.UserName,
		Phone:       snap.Phone,
		PhotoPath:   photoPath,
		PhotoFileID: fileID,
	}

	if err := b.action.Complete(ctx, sub); err != nil {
		logger.Error("завершение заявки: %v", err, chatID)
		b.reply(chatID, msgFail, nil)
		return
	}

	b.reply(chatID, msgDone, nil)
}

// downloadPhoto скачивает файл Telegram во временный каталог
func (b *Bot) downloadPhoto(ctx context.Context, fileID string, userID int64) (string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("getFile %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return "", err
	}
	resp, err := b.cli.Do(req)
	if err != nil {
		return "", fmt.Errorf("скачивание %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("скачивание %s: http %d", fileID, resp.StatusCode)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("%d_screenshot_%s.jpg", userID, uuid.NewString()))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("сохранение %s: %w", path, err)
	}
	return path, nil
}

func (b *Bot) reply(chatID int64, text string, markup interface{}) {
	if text == "" {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		logger.Error("отправка сообщения: %v", err, chatID)
	}
}

// buildInput нормализует сообщение Telegram во вход анкеты
func buildInput(msg *tgbotapi.Message) dialog.Input {
	in := dialog.Input{Text: msg.Text}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			in.Start = true
		case "cancel":
			in.Cancel = true
		}
	}
	if msg.Contact != nil {
		in.ContactPhone = msg.Contact.PhoneNumber
	}
	if len(msg.Photo) > 0 {
		in.PhotoFileID = largestPhoto(msg.Photo)
	}
	return in
}

// largestPhoto выбирает вариант фото с максимальным разрешением
func largestPhoto(sizes []tgbotapi.PhotoSize) string {
	best := sizes[0]
	for _, p := range sizes[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best.FileID
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(contactButtonText),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
