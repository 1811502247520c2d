package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"nfcTrackAPI/internal/profile"
	"nfcTrackAPI/internal/types/clerk"
	"nfcTrackAPI/middleware"
	"nfcTrackAPI/services"

	log "github.com/sirupsen/logrus"
)

// WebhookHandler receives Clerk's push notifications. user.* events keep
// the profiles table in sync with the identity provider; session.* events
// are fanned out on the session event bus.
type WebhookHandler struct {
	profileService *services.ProfileService
	sessionBus     *services.SessionEventBus
}

func NewWebhookHandler(profileService *services.ProfileService, sessionBus *services.SessionEventBus) *WebhookHandler {
	return &WebhookHandler{
		profileService: profileService,
		sessionBus:     sessionBus,
	}
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Errorf("Error reading webhook body: %v", err)
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	if !h.verifyWebhookSignature(r, body) {
		log.Warn("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event clerk.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Errorf("Error parsing webhook: %v", err)
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	log.Infof("Received webhook event: %s", event.Type)

	ctx := r.Context()
	switch event.Type {
	case "user.created":
		if err := h.handleUserCreated(ctx, event.Data); err != nil {
			log.Errorf("Error handling user.created: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.updated":
		if err := h.handleUserUpdated(ctx, event.Data); err != nil {
			log.Errorf("Error handling user.updated: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.deleted":
		if err := h.handleUserDeleted(ctx, event.Data); err != nil {
			log.Errorf("Error handling user.deleted: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "session.created", "session.ended", "session.removed", "session.revoked":
		h.handleSessionEvent(event.Type, event.Data)

	default:
		log.Infof("Unhandled webhook event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	email := ""
	if len(userData.EmailAddresses) > 0 {
		email = userData.EmailAddresses[0].EmailAddress
	}

	createReq := &profile.CreateProfileRequest{
		ClerkID:  userData.ID,
		Email:    email,
		FullName: joinName(userData.FirstName, userData.LastName),
	}

	p, err := h.profileService.CreateProfile(ctx, createReq)
	if err != nil {
		return fmt.Errorf("failed to create profile in database: %w", err)
	}

	log.Infof("Successfully created profile: %s (Clerk ID: %s)", p.Email, p.ClerkID)
	return nil
}

func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data json.RawMessage) error {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	email := ""
	if len(userData.EmailAddresses) > 0 {
		email = userData.EmailAddresses[0].EmailAddress
	}

	err := h.profileService.UpdateProfileFromIdentity(ctx, userData.ID, email, joinName(userData.FirstName, userData.LastName))
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	log.Infof("Successfully updated profile: Clerk ID: %s", userData.ID)
	return nil
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	if err := h.profileService.DeleteProfileByClerkID(ctx, userData.ID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	log.Infof("Successfully deleted profile: Clerk ID: %s", userData.ID)
	return nil
}

func (h *WebhookHandler) handleSessionEvent(eventType string, data json.RawMessage) {
	var sessionData clerk.ClerkSessionData
	if err := json.Unmarshal(data, &sessionData); err != nil {
		log.Errorf("Error parsing %s data: %v", eventType, err)
		return
	}

	middleware.CountSessionEvent(eventType)
	h.sessionBus.Publish(services.SessionEvent{
		Type:      eventType,
		SessionID: sessionData.ID,
		UserID:    sessionData.UserID,
		At:        time.Now(),
	})
}

func (h *WebhookHandler) verifyWebhookSignature(r *http.Request, body []byte) bool {
	webhookSecret := os.Getenv("CLERK_WEBHOOK_SECRET")
	if webhookSecret == "" {
		log.Warn("CLERK_WEBHOOK_SECRET not set, skipping signature verification")
		return true
	}

	svixID := r.Header.Get("svix-id")
	svixTimestamp := r.Header.Get("svix-timestamp")
	svixSignature := r.Header.Get("svix-signature")

	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		log.Warn("Missing webhook signature headers")
		return false
	}

	signedContent := fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, string(body))

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(signedContent))
	expectedSignature := hex.EncodeToString(mac.Sum(nil))

	// Svix v1 signatures; a header may carry several space-separated values.
	for _, sig := range strings.Fields(svixSignature) {
		provided := strings.TrimPrefix(sig, "v1,")
		if provided != sig && hmac.Equal([]byte(expectedSignature), []byte(provided)) {
			return true
		}
	}

	return false
}

func joinName(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}
