package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/subwest/bonus-bridge/pkg/logger"
)

// UploadFile загружает файл в папку на диске Bitrix24 в два этапа:
// сначала запрашивается одноразовый uploadUrl, затем на него отправляется
// содержимое файла. Ошибка на любом этапе прерывает весь процесс —
// без файла сделка не создаётся.
func (c *Client) UploadFile(ctx context.Context, folderID int, filename string, data []byte) (*UploadedFile, error) {
	var target uploadURLResponse
	if err := c.call(ctx, "disk.folder.uploadfile", map[string]any{"id": folderID}, &target); err != nil {
		return nil, err
	}
	if target.Result.UploadURL == "" {
		return nil, fmt.Errorf("disk.folder.uploadfile: %w: пустой uploadUrl", ErrUpstream)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("подготовка файла %s: %w", filename, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("подготовка файла %s: %w", filename, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("подготовка файла %s: %w", filename, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Result.UploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("загрузка файла: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("загрузка файла: %w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("загрузка файла: чтение ответа: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warn("загрузка файла: http %d: %s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("загрузка файла: %w: http %d", ErrUpstream, resp.StatusCode)
	}

	var result uploadFileResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("загрузка файла: разбор ответа: %w", err)
	}
	if result.Result.ID == nil {
		return nil, fmt.Errorf("загрузка файла: %w: нет ID файла в ответе", ErrUpstream)
	}

	fileID, err := idToString(result.Result.ID)
	if err != nil {
		return nil, fmt.Errorf("загрузка файла: %w", err)
	}

	return &UploadedFile{
		ID:          fileID,
		DownloadURL: result.Result.DownloadURL,
	}, nil
}
