package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"nfcTrackAPI/internal/profile"
	"nfcTrackAPI/middleware"
	"nfcTrackAPI/services"

	log "github.com/sirupsen/logrus"
)

type UserHandler struct {
	profileService *services.ProfileService
	cardService    *services.CardService
}

func NewUserHandler(profileService *services.ProfileService, cardService *services.CardService) *UserHandler {
	return &UserHandler{
		profileService: profileService,
		cardService:    cardService,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.profileService.GetProfileByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		log.Errorf("GetProfile: failed for %s: %v", clerkID, err)
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req profile.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.profileService.UpdateProfileByClerkID(ctx, clerkID, &req)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		log.Errorf("UpdateProfile: failed for %s: %v", clerkID, err)
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// GetCard returns the caller's card. No card is a normal zero-state, not
// an error, so the response carries hasCard instead of a 404.
func (h *UserHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	c, err := h.cardService.GetCardForUser(ctx, clerkID)
	if err != nil {
		log.Errorf("GetCard: failed for %s: %v", clerkID, err)
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if c == nil {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"hasCard": false})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hasCard": true,
		"card":    c,
	})
}
