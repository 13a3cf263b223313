// Package webhook принимает входящие HTTP-вызовы от Bitrix24 и Telegram и
// транслирует сообщения между таймлайном сделки и чатом клиента.
package webhook

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/subwest/bonus-bridge/pkg/bitrix"
	"github.com/subwest/bonus-bridge/pkg/logger"
)

// Событие Bitrix24 «добавлен комментарий к сделке»
const eventDealCommentAdd = "ONCRMDEALCOMMENTADD"

// DealSource — методы Bitrix24, нужные для трансляции сообщений
type DealSource interface {
	DealGet(ctx context.Context, dealID string) (*bitrix.Deal, error)
	DealFindByChat(ctx context.Context, chatID int64) (*bitrix.Deal, error)
	TimelineCommentAdd(ctx context.Context, dealID string, comment string, authorID int) error
}

// Sender — отправка сообщений в Telegram (реализуется *tgbotapi.BotAPI)
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BitrixEvent — событийный вебхук Bitrix24
type BitrixEvent struct {
	Event string `json:"event"`
	Data  struct {
		Fields struct {
			EntityID any    `json:"ENTITY_ID"`
			Comment  string `json:"COMMENT"`
		} `json:"FIELDS"`
	} `json:"data"`
}

// Relay транслирует комментарии менеджера в чат клиента и сообщения клиента
// в таймлайн сделки
type Relay struct {
	crm           DealSource
	tg            Sender
	responsibleID int
}

func NewRelay(crm DealSource, tg Sender, responsibleID int) *Relay {
	return &Relay{crm: crm, tg: tg, responsibleID: responsibleID}
}

// HandleBitrixEvent обрабатывает событие CRM. Событие с другим тегом или
// сделка без привязанного чата молча пропускаются.
func (r *Relay) HandleBitrixEvent(ctx context.Context, ev BitrixEvent) error {
	if ev.Event != eventDealCommentAdd {
		return nil
	}

	dealID := anyID(ev.Data.Fields.EntityID)
	if dealID == "" {
		logger.Warn("событие %s без идентификатора сделки", ev.Event)
		return nil
	}

	deal, err := r.crm.DealGet(ctx, dealID)
	if err != nil {
		return fmt.Errorf("чтение сделки %s: %w", dealID, err)
	}
	if deal.TelegramID == "" {
		// Сделка создана не из Telegram, уведомлять некого
		return nil
	}

	chatID, err := parseChatID(deal.TelegramID)
	if err != nil {
		logger.Warn("сделка %s: некорректный Telegram ID %q", dealID, deal.TelegramID)
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("💬 <b>Сообщение от менеджера:</b>\n\n%s", ev.Data.Fields.Comment))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := r.tg.Send(msg); err != nil {
		return fmt.Errorf("отправка в чат %d: %w", chatID, err)
	}

	logger.Info("комментарий к сделке %s передан в чат", dealID, chatID)
	return nil
}

// HandleTelegramMessage ищет сделку клиента по идентификатору чата и
// добавляет его сообщение в таймлайн. Без сделки сообщение пропускается.
func (r *Relay) HandleTelegramMessage(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return nil
	}

	deal, err := r.crm.DealFindByChat(ctx, chatID)
	if err != nil {
		return fmt.Errorf("поиск сделки по чату %d: %w", chatID, err)
	}
	if deal == nil {
		return nil
	}

	comment := fmt.Sprintf("Сообщение от клиента:\n%s", text)
	if err := r.crm.TimelineCommentAdd(ctx, deal.ID, comment, r.responsibleID); err != nil {
		return fmt.Errorf("комментарий к сделке %s: %w", deal.ID, err)
	}

	logger.Info("сообщение клиента добавлено в сделку %s", deal.ID, chatID)
	return nil
}
