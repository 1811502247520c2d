package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfcTrackAPI/handlers"
	"nfcTrackAPI/services"
	"nfcTrackAPI/tests/helpers"
)

// TestSignUpWebhookCreatesProfile simulates the flow spec'd for sign-up:
// the identity is created at the provider, and our profile row is the
// webhook's side effect.
func TestSignUpWebhookCreatesProfile(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	sessionBus := services.NewSessionEventBus()
	defer sessionBus.Close()
	webhookHandler := handlers.NewWebhookHandler(profileService, sessionBus)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_webhook_" + time.Now().Format("20060102150405")

	createPayload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "Webhook should succeed")

	ctx := context.Background()
	p, err := profileService.GetProfileByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "test.user@example.com", p.Email)
	assert.Equal(t, "Test User", p.FullName)
}

func TestUserDeletedWebhookRemovesProfile(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	sessionBus := services.NewSessionEventBus()
	defer sessionBus.Close()
	webhookHandler := handlers.NewWebhookHandler(profileService, sessionBus)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_delete_" + time.Now().Format("20060102150405")

	createPayload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	rr := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload)))
	require.Equal(t, http.StatusOK, rr.Code)

	deletePayload := helpers.MockClerkWebhookPayload("user.deleted", clerkID)
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(deletePayload)))
	assert.Equal(t, http.StatusOK, rr.Code)

	_, err := profileService.GetProfileByClerkID(context.Background(), clerkID)
	assert.ErrorIs(t, err, services.ErrProfileNotFound)
}

// TestSessionWebhookReachesSubscribers checks that session changes flow
// through the bus to subscribers in the order the provider sent them.
func TestSessionWebhookReachesSubscribers(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	sessionBus := services.NewSessionEventBus()
	defer sessionBus.Close()
	webhookHandler := handlers.NewWebhookHandler(profileService, sessionBus)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	received := make(chan services.SessionEvent, 4)
	sub := sessionBus.Subscribe(func(e services.SessionEvent) {
		received <- e
	})
	defer sub.Unsubscribe()

	clerkID := "user_test_session_" + time.Now().Format("20060102150405")

	for _, eventType := range []string{"session.created", "session.ended"} {
		payload := helpers.MockClerkWebhookPayload(eventType, clerkID)
		rr := httptest.NewRecorder()
		webhookHandler.HandleClerkWebhook(rr, httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload)))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	first := waitForEvent(t, received)
	second := waitForEvent(t, received)
	assert.Equal(t, "session.created", first.Type)
	assert.Equal(t, "session.ended", second.Type)
	assert.Equal(t, clerkID, first.UserID)
}

func waitForEvent(t *testing.T, ch <-chan services.SessionEvent) services.SessionEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return services.SessionEvent{}
	}
}
