package bitrix

import (
	"context"

	"github.com/subwest/bonus-bridge/pkg/conf"
)

// DealUserFieldAdd создаёт пользовательское поле сделки для хранения
// Telegram ID. Разовая операция, выполняется командой cmd/provision
// при развёртывании портала.
func (c *Client) DealUserFieldAdd(ctx context.Context) (string, error) {
	payload := map[string]any{
		"fields": map[string]any{
			"FIELD_NAME": conf.UFTelegramID,
			"EDIT_FORM_LABEL": map[string]string{
				"ru": "Telegram ID пользователя",
			},
			"LIST_COLUMN_LABEL": map[string]string{
				"ru": "Telegram ID",
			},
			"USER_TYPE_ID": "string",
			"XML_ID":       "TELEGRAM_ID",
			"SETTINGS": map[string]any{
				"DEFAULT_VALUE": "",
				"SIZE":          20,
				"ROWS":          1,
				"MIN_LENGTH":    0,
				"MAX_LENGTH":    0,
				"REGEXP":        "",
			},
		},
	}

	var resp addResponse
	if err := c.call(ctx, "crm.deal.userfield.add", payload, &resp); err != nil {
		return "", err
	}
	return idToString(resp.Result)
}
