package lenco

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wathaci/internal/domain"
)

func TestInitiateCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/mobile-money", r.URL.Path)
		assert.Equal(t, "Bearer lk_test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "51.25", body["amount"])
		assert.Equal(t, "260971234567", body["phone"])
		assert.Equal(t, "airtel", body["operator"])
		assert.Equal(t, "WC-1", body["reference"])

		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"id":"col_1","reference":"WC-1","status":"pay-offline","lencoReference":"LN1"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{APIKey: "lk_test", BaseURL: srv.URL})
	require.NoError(t, err)

	col, err := c.InitiateCollection(context.Background(), CollectionRequest{
		Reference: "WC-1",
		Amount:    decimal.RequireFromString("51.25"),
		Phone:     "260971234567",
		Operator:  domain.OperatorAirtel,
	})
	require.NoError(t, err)
	assert.Equal(t, "col_1", col.ID)
	assert.Equal(t, StatusPayOffline, col.Status)
}

func TestCollectionStatusAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/status/WC-9", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Collection not found"}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{APIKey: "lk_test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.CollectionStatus(context.Background(), "WC-9")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Collection not found", apiErr.Message)
	assert.True(t, errors.Is(err, domain.ErrProviderFailure))
}

func TestVerifySignature(t *testing.T) {
	key := WebhookKey("whsec")
	body := []byte(`{"event":"collection.successful","data":{"reference":"WC-1"}}`)
	sig := Sign(key, body)

	assert.NoError(t, VerifySignature(key, body, sig))
	assert.NoError(t, VerifySignature(key, body, " "+sig+" "))
	assert.ErrorIs(t, VerifySignature(key, body, "deadbeef"), domain.ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(key, append(body, ' '), sig), domain.ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(key, body, ""), domain.ErrInvalidSignature)
	assert.Error(t, VerifySignature(nil, body, sig))
}

func TestParseWebhook(t *testing.T) {
	ev, err := ParseWebhook([]byte(`{"event":"collection.failed","data":{"id":"col_2","reference":"WC-2","reasonForFailure":"insufficient balance"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventCollectionFailed, ev.Event)
	assert.Equal(t, "collection.failed:col_2", ev.ID())

	_, err = ParseWebhook([]byte(`{"event":""}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{})
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
}
