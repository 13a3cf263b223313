package bitrix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subwest/bonus-bridge/pkg/conf"
)

// newTestClient поднимает поддельный портал Bitrix24 и возвращает клиент,
// настроенный на него
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &conf.Conf{}
	cfg.Bitrix.WebhookURL = srv.URL + "/rest/8/secret/"

	return New(cfg, WithHTTPClient(srv.Client())), srv
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestDealGet(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/8/secret/crm.deal.get.json", r.URL.Path)
		payload := decodeBody(t, r)
		assert.Equal(t, "42", payload["id"])

		fmt.Fprint(w, `{"result":{"ID":"42","TITLE":"Subway Bonus Transfer: +79991234567","UF_CRM_DEAL_TELEGRAM_ID":"555"}}`)
	})

	deal, err := client.DealGet(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", deal.ID)
	assert.Equal(t, "555", deal.TelegramID)
}

func TestDealFindByChat(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/8/secret/crm.deal.list.json", r.URL.Path)
		payload := decodeBody(t, r)

		filter := payload["filter"].(map[string]any)
		assert.Equal(t, "555", filter[conf.UFTelegramID])

		// Детерминированный выбор: всегда самая свежая сделка
		order := payload["order"].(map[string]any)
		assert.Equal(t, "DESC", order["ID"])

		fmt.Fprint(w, `{"result":[{"ID":"42","TITLE":"x"},{"ID":"7","TITLE":"старая"}],"total":2}`)
	})

	deal, err := client.DealFindByChat(context.Background(), 555)
	require.NoError(t, err)
	require.NotNil(t, deal)
	assert.Equal(t, "42", deal.ID)
}

func TestDealFindByChat_NoMatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":[]}`)
	})

	deal, err := client.DealFindByChat(context.Background(), 555)
	require.NoError(t, err)
	assert.Nil(t, deal)
}

func TestDealAdd(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/8/secret/crm.deal.add.json", r.URL.Path)
		payload := decodeBody(t, r)
		fields := payload["fields"].(map[string]any)
		assert.Equal(t, "Subway Bonus Transfer: +79991234567", fields["TITLE"])

		// Идентификатор приходит числом
		fmt.Fprint(w, `{"result":42}`)
	})

	id, err := client.DealAdd(context.Background(), map[string]any{
		"TITLE": "Subway Bonus Transfer: +79991234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestTimelineCommentAdd(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/8/secret/crm.timeline.comment.add.json", r.URL.Path)
		payload := decodeBody(t, r)
		fields := payload["fields"].(map[string]any)
		assert.Equal(t, "42", fields["ENTITY_ID"])
		assert.Equal(t, "deal", fields["ENTITY_TYPE"])
		assert.Equal(t, float64(8), fields["AUTHOR_ID"])

		fmt.Fprint(w, `{"result":101}`)
	})

	err := client.TimelineCommentAdd(context.Background(), "42", "Сообщение от клиента:\nhello", 8)
	require.NoError(t, err)
}

func TestCall_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"NOT_FOUND","error_description":"Not found"}`)
	})

	_, err := client.DealGet(context.Background(), "999")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCall_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.DealGet(context.Background(), "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestDealUserFieldAdd(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/8/secret/crm.deal.userfield.add.json", r.URL.Path)
		payload := decodeBody(t, r)
		fields := payload["fields"].(map[string]any)
		assert.Equal(t, conf.UFTelegramID, fields["FIELD_NAME"])
		assert.Equal(t, "string", fields["USER_TYPE_ID"])

		fmt.Fprint(w, `{"result":133}`)
	})

	id, err := client.DealUserFieldAdd(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "133", id)
}
