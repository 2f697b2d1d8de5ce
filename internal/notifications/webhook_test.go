package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

func TestWebhookRelayPostsNotification(t *testing.T) {
	var got webhookPayload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	relay, err := NewWebhookRelay(config.NotificationsConfig{WebhookURL: server.URL, WebhookToken: "secret", WebhookTimeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, relay)

	passID := uuid.New()
	n := &models.Notification{
		ID:         uuid.New(),
		Audience:   enums.AudienceAdmin,
		Title:      "New gate pass request",
		Message:    "New gate pass GP-2024-0001 created and pending approval",
		GatePassID: &passID,
		PassNumber: "GP-2024-0001",
		CreatedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, relay.Relay(context.Background(), n))
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "admin", got.Audience)
	assert.Equal(t, passID.String(), got.GatePassID)
	assert.Equal(t, "2024-01-02T03:04:05Z", got.CreatedAt)
}

func TestWebhookRelayReportsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	relay, err := NewWebhookRelay(config.NotificationsConfig{WebhookURL: server.URL})
	require.NoError(t, err)
	err = relay.Relay(context.Background(), &models.Notification{ID: uuid.New(), Audience: enums.AudienceHR})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNewWebhookRelayDisabledWithoutURL(t *testing.T) {
	relay, err := NewWebhookRelay(config.NotificationsConfig{})
	require.NoError(t, err)
	assert.Nil(t, relay)
	assert.NoError(t, relay.Relay(context.Background(), &models.Notification{}))

	_, err = NewWebhookRelay(config.NotificationsConfig{WebhookURL: "ftp://example.com"})
	assert.Error(t, err)
}
