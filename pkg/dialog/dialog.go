// Package dialog реализует анкету переноса бонусов: телефон → скриншот.
// Логика состояний не зависит от Telegram, обвязка живёт в pkg/bot.
package dialog

import (
	"strings"
	"unicode"
)

type State int

const (
	// StateStart — анкета ещё не начата
	StateStart State = iota
	// StateAwaitPhone — ожидаем номер телефона (контакт или текст)
	StateAwaitPhone
	// StateAwaitScreenshot — ожидаем скриншот с бонусным балансом
	StateAwaitScreenshot
)

// Session — состояние анкеты одного пользователя.
// Живёт только в памяти, при перезапуске сервиса теряется.
type Session struct {
	State State
	Phone string
}

// Input — нормализованное входящее сообщение пользователя
type Input struct {
	Text         string
	ContactPhone string // Телефон из вложения contact, принимается без проверки
	PhotoFileID  string // file_id самого крупного варианта фото
	Start        bool   // Команда /start
	Cancel       bool   // Команда /cancel
}

// Reply — ответ анкеты на входящее сообщение
type Reply struct {
	Text           string
	RequestContact bool // Показать клавиатуру «Отправить номер»
	RemoveKeyboard bool
	Completed      bool // Оба поля собраны, можно выполнять завершающее действие
	Cancelled      bool
}

const (
	msgWelcome = "👋 Добро пожаловать в бот переноса бонусов Subway!\nПожалуйста, отправьте свой номер телефона для начала."
	msgAskShot = "Спасибо! Теперь, пожалуйста, загрузите скриншот из старого приложения Subway с вашим бонусным балансом."
	msgBadShot = "Пожалуйста, загрузите скриншот (фото) из старого приложения."
	msgBadTel  = "Не удалось распознать номер телефона. Отправьте номер текстом (10–15 цифр) или нажмите кнопку ниже."
	msgCancel  = "Операция отменена. Чтобы начать заново, введите /start."
)

// Handle выполняет один переход анкеты. Вызывающая сторона обязана
// гарантировать, что для одного пользователя переходы не выполняются
// параллельно (см. Store).
func Handle(s *Session, in Input) Reply {
	if in.Cancel {
		*s = Session{}
		return Reply{Text: msgCancel, RemoveKeyboard: true, Cancelled: true}
	}

	if in.Start || s.State == StateStart {
		*s = Session{State: StateAwaitPhone}
		return Reply{Text: msgWelcome, RequestContact: true}
	}

	switch s.State {
	case StateAwaitPhone:
		phone := in.ContactPhone
		if phone == "" {
			text := strings.TrimSpace(in.Text)
			if !IsValidPhone(text) {
				return Reply{Text: msgBadTel, RequestContact: true}
			}
			phone = text
		}
		s.Phone = phone
		s.State = StateAwaitScreenshot
		return Reply{Text: msgAskShot, RemoveKeyboard: true}

	case StateAwaitScreenshot:
		if in.PhotoFileID == "" {
			return Reply{Text: msgBadShot}
		}
		return Reply{Completed: true}
	}

	// Недостижимо при корректном Store, но на всякий случай начинаем заново
	*s = Session{State: StateAwaitPhone}
	return Reply{Text: msgWelcome, RequestContact: true}
}

// IsValidPhone принимает номер, если после отбрасывания всего, кроме цифр,
// остаётся от 10 до 15 знаков
func IsValidPhone(text string) bool {
	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10 && digits <= 15
}
