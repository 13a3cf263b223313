package submit

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/subwest/bonus-bridge/pkg/logger"
)

// Sender — отправка сообщений в Telegram (реализуется *tgbotapi.BotAPI)
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// GroupForward пересылает заявку в групповой чат сотрудников вместо
// создания сделки
type GroupForward struct {
	sender  Sender
	groupID int64
}

func NewGroupForward(sender Sender, groupID int64) *GroupForward {
	return &GroupForward{sender: sender, groupID: groupID}
}

func (g *GroupForward) Complete(ctx context.Context, sub Submission) error {
	caption := fmt.Sprintf(
		"Новая заявка на перенос бонусов\nИмя: %s\nChat ID: %d\nТелефон: %s\nUsername: @%s",
		sub.DisplayName, sub.ChatID, sub.Phone, sub.Username,
	)

	photo := tgbotapi.NewPhoto(g.groupID, tgbotapi.FileID(sub.PhotoFileID))
	photo.Caption = caption

	if _, err := g.sender.Send(photo); err != nil {
		return fmt.Errorf("пересылка заявки в группу %d: %w", g.groupID, err)
	}
	logger.Info("заявка переслана в группу %d", g.groupID, sub.ChatID)
	return nil
}
