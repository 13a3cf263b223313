package bitrix

import (
	"context"
	"fmt"
	"strconv"

	"github.com/subwest/bonus-bridge/pkg/conf"
)

// DealGet читает сделку по идентификатору
func (c *Client) DealGet(ctx context.Context, dealID string) (*Deal, error) {
	var resp dealGetResponse
	if err := c.call(ctx, "crm.deal.get", map[string]any{"id": dealID}, &resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

// DealFindByChat ищет сделку, привязанную к чату Telegram через
// пользовательское поле UF_CRM_DEAL_TELEGRAM_ID.
//
// Одному чату может соответствовать несколько сделок, уникальность на стороне
// Bitrix24 не контролируется. Запрос сортирует по ID по убыванию, поэтому
// всегда выбирается самая свежая сделка. Если совпадений нет, возвращается
// (nil, nil).
func (c *Client) DealFindByChat(ctx context.Context, chatID int64) (*Deal, error) {
	payload := map[string]any{
		"filter": map[string]string{
			conf.UFTelegramID: strconv.FormatInt(chatID, 10),
		},
		"select": []string{"ID", "TITLE"},
		"order":  map[string]string{"ID": "DESC"},
	}

	var resp dealListResponse
	if err := c.call(ctx, "crm.deal.list", payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}
	return &resp.Result[0], nil
}

// DealAdd создаёт сделку и возвращает её идентификатор
func (c *Client) DealAdd(ctx context.Context, fields map[string]any) (string, error) {
	var resp addResponse
	if err := c.call(ctx, "crm.deal.add", map[string]any{"fields": fields}, &resp); err != nil {
		return "", err
	}

	id, err := idToString(resp.Result)
	if err != nil {
		return "", fmt.Errorf("crm.deal.add: %w", err)
	}
	return id, nil
}

// TimelineCommentAdd добавляет комментарий в таймлайн сделки
func (c *Client) TimelineCommentAdd(ctx context.Context, dealID string, comment string, authorID int) error {
	payload := map[string]any{
		"fields": map[string]any{
			"ENTITY_ID":   dealID,
			"ENTITY_TYPE": "deal",
			"COMMENT":     comment,
			"AUTHOR_ID":   authorID,
		},
	}
	return c.call(ctx, "crm.timeline.comment.add", payload, nil)
}
