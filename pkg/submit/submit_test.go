package submit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subwest/bonus-bridge/pkg/bitrix"
	"github.com/subwest/bonus-bridge/pkg/conf"
)

// mockDealAPI записывает вызовы и позволяет симулировать ошибки на каждом шаге
type mockDealAPI struct {
	uploadErr   error
	dealErr     error
	commentErr  error
	uploaded    []string
	dealFields  map[string]any
	comments    []string
	commentDeal string
}

func (m *mockDealAPI) UploadFile(ctx context.Context, folderID int, filename string, data []byte) (*bitrix.UploadedFile, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploaded = append(m.uploaded, filename)
	return &bitrix.UploadedFile{ID: "777", DownloadURL: "https://example.bitrix24.ru/disk/777"}, nil
}

func (m *mockDealAPI) DealAdd(ctx context.Context, fields map[string]any) (string, error) {
	if m.dealErr != nil {
		return "", m.dealErr
	}
	m.dealFields = fields
	return "42", nil
}

func (m *mockDealAPI) TimelineCommentAdd(ctx context.Context, dealID string, comment string, authorID int) error {
	if m.commentErr != nil {
		return m.commentErr
	}
	m.commentDeal = dealID
	m.comments = append(m.comments, comment)
	return nil
}

func testBitrixConfig() conf.BitrixConfig {
	return conf.BitrixConfig{
		WebhookURL:    "https://example.bitrix24.ru/rest/8/secret/",
		ResponsibleID: 8,
		CategoryID:    4,
		StageID:       "C4:NEW",
		DiskFolderID:  1234,
	}
}

func writeScreenshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "555_screenshot.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	return path
}

func testSubmission(t *testing.T) Submission {
	return Submission{
		ChatID:      555,
		UserID:      555,
		DisplayName: "Иван Иванов",
		Username:    "ivan",
		Phone:       "+79991234567",
		PhotoPath:   writeScreenshot(t),
		PhotoFileID: "AgAC-largest",
	}
}

func TestDealCreator_Complete(t *testing.T) {
	api := &mockDealAPI{}
	creator := NewDealCreator(api, testBitrixConfig())

	err := creator.Complete(context.Background(), testSubmission(t))
	require.NoError(t, err)

	require.Len(t, api.uploaded, 1)
	assert.Equal(t, "555_screenshot.jpg", api.uploaded[0])

	require.NotNil(t, api.dealFields)
	assert.Equal(t, "Subway Bonus Transfer: +79991234567", api.dealFields["TITLE"])
	assert.Equal(t, 4, api.dealFields["CATEGORY_ID"])
	assert.Equal(t, "C4:NEW", api.dealFields["STAGE_ID"])
	assert.Equal(t, 8, api.dealFields["ASSIGNED_BY_ID"])
	assert.Equal(t, "777", api.dealFields[conf.UFField1])
	assert.Equal(t, "777", api.dealFields[conf.UFField2])
	assert.Equal(t, "555", api.dealFields[conf.UFTelegramID])
	assert.Contains(t, api.dealFields["COMMENTS"], "+79991234567")

	require.Len(t, api.comments, 1)
	assert.Equal(t, "42", api.commentDeal)
	assert.Contains(t, api.comments[0], "[img width=300]https://example.bitrix24.ru/disk/777[/img]")
}

func TestDealCreator_UploadFailureAbortsFlow(t *testing.T) {
	api := &mockDealAPI{uploadErr: bitrix.ErrUpstream}
	creator := NewDealCreator(api, testBitrixConfig())

	err := creator.Complete(context.Background(), testSubmission(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, bitrix.ErrUpstream)

	// Сделка не создаётся, если файл не загружен
	assert.Nil(t, api.dealFields)
	assert.Empty(t, api.comments)
}

func TestDealCreator_DealFailureNoComment(t *testing.T) {
	api := &mockDealAPI{dealErr: errors.New("crm.deal.add: http 500")}
	creator := NewDealCreator(api, testBitrixConfig())

	err := creator.Complete(context.Background(), testSubmission(t))
	require.Error(t, err)
	assert.Empty(t, api.comments)
}

func TestDealCreator_CommentFailureNotFatal(t *testing.T) {
	api := &mockDealAPI{commentErr: errors.New("timeline down")}
	creator := NewDealCreator(api, testBitrixConfig())

	// Комментарий в таймлайн — best effort
	err := creator.Complete(context.Background(), testSubmission(t))
	require.NoError(t, err)
	require.NotNil(t, api.dealFields)
}

// mockSender записывает отправленные в Telegram сообщения
type mockSender struct {
	sendErr error
	sent    []tgbotapi.Chattable
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m.sendErr != nil {
		return tgbotapi.Message{}, m.sendErr
	}
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, nil
}

func TestGroupForward_Complete(t *testing.T) {
	sender := &mockSender{}
	fwd := NewGroupForward(sender, -1001234567890)

	err := fwd.Complete(context.Background(), testSubmission(t))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	photo, ok := sender.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-1001234567890), photo.ChatID)
	assert.Contains(t, photo.Caption, "+79991234567")
	assert.Contains(t, photo.Caption, "Иван Иванов")
	assert.Contains(t, photo.Caption, "@ivan")
}

func TestGroupForward_SendFailure(t *testing.T) {
	sender := &mockSender{sendErr: errors.New("telegram down")}
	fwd := NewGroupForward(sender, -1001234567890)

	err := fwd.Complete(context.Background(), testSubmission(t))
	require.Error(t, err)
}
