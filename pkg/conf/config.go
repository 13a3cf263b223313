package conf

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// CompletionMode определяет действие после завершения анкеты
type CompletionMode string

const (
	// ModeDeal — создание сделки в Bitrix24 со скриншотом
	ModeDeal CompletionMode = "deal"
	// ModeGroup — пересылка заявки в рабочий групповой чат
	ModeGroup CompletionMode = "group"
)

// Символьные коды пользовательских полей сделки
const (
	UFField1     = "UF_CRM_DEAL_1739785496195"
	UFField2     = "UF_CRM_1749667910221"
	UFTelegramID = "UF_CRM_DEAL_TELEGRAM_ID"
)

type Conf struct {
	TG     TgConfig
	Bitrix BitrixConfig
	Bridge BridgeConfig
}

type TgConfig struct {
	Token        string // Токен бота
	StaffGroupID int64  // ID группового чата сотрудников (обязателен в режиме group)
}

type BitrixConfig struct {
	WebhookURL    string // Базовый URL входящего вебхука, например https://example.bitrix24.ru/rest/1/xxx/
	ResponsibleID int    // Ответственный за сделки и автор комментариев
	CategoryID    int    // Воронка (категория) сделки
	StageID       string // Стадия сделки
	DiskFolderID  int    // Папка на диске Bitrix24 для скриншотов
}

type BridgeConfig struct {
	Mode       CompletionMode // Действие по завершении анкеты
	ListenAddr string         // Адрес HTTP-приёмника вебхуков
	LogPath    string         // Путь к файлу логов
	DumpDir    string         // Каталог для отладочных дампов
}

// NewConf читает конфигурацию из переменных окружения.
// Все обязательные параметры проверяются сразу: сервис не должен
// стартовать с неполной конфигурацией.
func NewConf() (*Conf, error) {
	v := viper.New()
	v.AutomaticEnv()

	for _, key := range []string{
		"TELEGRAM_API_TOKEN",
		"BITRIX_WEBHOOK",
		"BITRIX_RESPONSIBLE_ID",
		"BITRIX_CATEGORY_ID",
		"BITRIX_STAGE_ID",
		"BITRIX_DISK_FOLDER_ID",
		"STAFF_GROUP_ID",
		"COMPLETION_MODE",
		"LISTEN_ADDR",
		"LOG_PATH",
		"DEBUG_DUMP_DIR",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("ошибка привязки переменной %s: %w", key, err)
		}
	}

	v.SetDefault("COMPLETION_MODE", string(ModeDeal))
	v.SetDefault("LISTEN_ADDR", ":5000")
	v.SetDefault("LOG_PATH", "bridge.log")
	v.SetDefault("DEBUG_DUMP_DIR", ".")

	conf := &Conf{}

	conf.TG.Token = v.GetString("TELEGRAM_API_TOKEN")
	if conf.TG.Token == "" {
		return nil, fmt.Errorf("не задан параметр TELEGRAM_API_TOKEN")
	}

	conf.Bitrix.WebhookURL = strings.TrimRight(v.GetString("BITRIX_WEBHOOK"), "/") + "/"
	if conf.Bitrix.WebhookURL == "/" {
		return nil, fmt.Errorf("не задан параметр BITRIX_WEBHOOK")
	}

	if !v.IsSet("BITRIX_RESPONSIBLE_ID") {
		return nil, fmt.Errorf("не задан параметр BITRIX_RESPONSIBLE_ID")
	}
	conf.Bitrix.ResponsibleID = v.GetInt("BITRIX_RESPONSIBLE_ID")
	if conf.Bitrix.ResponsibleID == 0 {
		return nil, fmt.Errorf("некорректное значение BITRIX_RESPONSIBLE_ID")
	}

	if !v.IsSet("BITRIX_CATEGORY_ID") {
		return nil, fmt.Errorf("не задан параметр BITRIX_CATEGORY_ID")
	}
	conf.Bitrix.CategoryID = v.GetInt("BITRIX_CATEGORY_ID")

	conf.Bitrix.StageID = v.GetString("BITRIX_STAGE_ID")
	if conf.Bitrix.StageID == "" {
		return nil, fmt.Errorf("не задан параметр BITRIX_STAGE_ID")
	}

	if !v.IsSet("BITRIX_DISK_FOLDER_ID") {
		return nil, fmt.Errorf("не задан параметр BITRIX_DISK_FOLDER_ID")
	}
	conf.Bitrix.DiskFolderID = v.GetInt("BITRIX_DISK_FOLDER_ID")
	if conf.Bitrix.DiskFolderID == 0 {
		return nil, fmt.Errorf("некорректное значение BITRIX_DISK_FOLDER_ID")
	}

	mode := CompletionMode(v.GetString("COMPLETION_MODE"))
	switch mode {
	case ModeDeal, ModeGroup:
		conf.Bridge.Mode = mode
	default:
		return nil, fmt.Errorf("некорректное значение COMPLETION_MODE: %q (допустимо deal или group)", mode)
	}

	conf.TG.StaffGroupID = v.GetInt64("STAFF_GROUP_ID")
	if conf.Bridge.Mode == ModeGroup && conf.TG.StaffGroupID == 0 {
		return nil, fmt.Errorf("не задан параметр STAFF_GROUP_ID, обязателен в режиме group")
	}

	conf.Bridge.ListenAddr = v.GetString("LISTEN_ADDR")
	conf.Bridge.LogPath = v.GetString("LOG_PATH")
	conf.Bridge.DumpDir = v.GetString("DEBUG_DUMP_DIR")

	return conf, nil
}
