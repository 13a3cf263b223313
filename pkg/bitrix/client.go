// Package bitrix предоставляет клиент REST API Bitrix24 (входящий вебхук).
//
// Пример использования:
//
//	client := bitrix.New(cfg)
//	deal, err := client.DealGet(ctx, "42")
//	if err != nil {
//	    logger.Error("ошибка чтения сделки: %v", err)
//	}
//
// Все методы строятся поверх одного вызова call: POST JSON на
// <webhook>/<метод>.json с разбором конверта result/error.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/subwest/bonus-bridge/pkg/conf"
	"github.com/subwest/bonus-bridge/pkg/logger"
)

const DefaultTimeout = 10 * time.Second

// ErrUpstream — любой неуспешный ответ или сетевая ошибка Bitrix24.
// Обработчики сообщают пользователю общую ошибку и не повторяют запрос.
var ErrUpstream = errors.New("ошибка запроса к Bitrix24")

type Client struct {
	webhookURL string // Базовый URL входящего вебхука, всегда с завершающим слэшем
	httpClient *http.Client
}

type Option func(*Client)

// WithTimeout устанавливает кастомный таймаут для HTTP-запросов
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient подменяет HTTP-клиент (используется в тестах)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(cfg *conf.Conf, opts ...Option) *Client {
	c := &Client{
		webhookURL: cfg.Bitrix.WebhookURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call выполняет POST-запрос к REST-методу Bitrix24 и распаковывает ответ в out.
// HTTP-ошибки и бизнес-ошибки формата {"error": ..., "error_description": ...}
// заворачиваются в ErrUpstream.
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: сериализация запроса: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL+method+".json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: чтение ответа: %w", method, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warn("%s: http %d: %s", method, resp.StatusCode, string(respBody))
		return fmt.Errorf("%s: %w: http %d", method, ErrUpstream, resp.StatusCode)
	}

	var apiErr struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
		logger.Warn("%s: ошибка API %s (%s)", method, apiErr.Error, apiErr.ErrorDescription)
		return fmt.Errorf("%s: %w: %s: %s", method, ErrUpstream, apiErr.Error, apiErr.ErrorDescription)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s: разбор ответа: %w", method, err)
		}
	}
	return nil
}

// idToString нормализует идентификатор: Bitrix24 в разных методах
// возвращает его то числом, то строкой
func idToString(v any) (string, error) {
	switch id := v.(type) {
	case float64:
		return strconv.Itoa(int(id)), nil
	case string:
		return id, nil
	default:
		raw, _ := json.Marshal(v)
		return "", fmt.Errorf("неожиданный тип идентификатора: %s", raw)
	}
}
