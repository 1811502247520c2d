package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"nfcTrackAPI/internal/card"
	"nfcTrackAPI/services"

	log "github.com/sirupsen/logrus"
)

type CardHandler struct {
	cardService *services.CardService
}

func NewCardHandler(cardService *services.CardService) *CardHandler {
	return &CardHandler{
		cardService: cardService,
	}
}

// AssignCard is the admin operation that ties a physical card to a user.
// Mounted behind ClerkAuthMiddleware + AdminOnlyMiddleware.
func (h *CardHandler) AssignCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req card.AssignCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "Field 'email' is required")
		return
	}

	c, err := h.cardService.AssignCard(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileNotFound):
			respondWithError(w, http.StatusNotFound, "No user with that email")
		case errors.Is(err, services.ErrCardAlreadyExists):
			respondWithError(w, http.StatusConflict, "User already has a card assigned")
		default:
			log.Errorf("AssignCard: failed for %s: %v", req.Email, err)
			respondWithError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	log.Infof("Assigned card %s to user %s", c.CardCode, c.UserID)
	respondWithJSON(w, http.StatusCreated, c)
}
