// Package submit выполняет завершающее действие анкеты: создание сделки в
// Bitrix24 либо пересылку заявки в групповой чат сотрудников. Режим выбирается
// конфигурацией, пути не комбинируются.
package submit

import (
	"context"
)

// Submission — заполненная анкета. Собирается только когда есть и телефон,
// и скриншот, используется ровно один раз.
type Submission struct {
	ChatID      int64
	UserID      int64
	DisplayName string
	Username    string
	Phone       string
	PhotoPath   string // Локальная временная копия скриншота
	PhotoFileID string // file_id скриншота в Telegram
}

// Action — завершающее действие по заполненной анкете
type Action interface {
	Complete(ctx context.Context, sub Submission) error
}
