package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nfcTrackAPI/middleware"
	"nfcTrackAPI/services"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ScanHandler struct {
	scanService    *services.ScanService
	profileService *services.ProfileService
}

func NewScanHandler(scanService *services.ScanService, profileService *services.ProfileService) *ScanHandler {
	return &ScanHandler{
		scanService:    scanService,
		profileService: profileService,
	}
}

// HandleScan is the standalone scan endpoint: GET /api/scan/{cardCode}.
// It records the scan and nothing else; callers discard everything beyond
// success or failure.
func (h *ScanHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cardCode := mux.Vars(r)["cardCode"]
	if cardCode == "" {
		respondWithError(w, http.StatusBadRequest, "Missing card code")
		return
	}

	if err := h.scanService.RecordScan(ctx, cardCode); err != nil {
		if errors.Is(err, services.ErrCardNotFound) {
			respondWithError(w, http.StatusNotFound, "Card not found")
			return
		}
		log.Errorf("HandleScan: failed to record scan for %s: %v", cardCode, err)
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	middleware.CountScanRecorded()
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// PublicCardProfile backs the public /card/{cardCode} page: it logs a scan
// and returns the card owner's display fields. A failed scan insert is
// logged but does not block the profile display, matching the page's
// behavior of showing the owner even if logging hiccups.
func (h *ScanHandler) PublicCardProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cardCode := mux.Vars(r)["cardCode"]
	if cardCode == "" {
		respondWithError(w, http.StatusBadRequest, "Missing card code")
		return
	}

	publicProfile, err := h.profileService.ResolveByCardCode(ctx, cardCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCardNotFound):
			respondWithError(w, http.StatusNotFound, "Card not found")
		case errors.Is(err, services.ErrProfileIntegrity):
			// Data problem, not a user-facing miss. Details are already logged.
			respondWithError(w, http.StatusInternalServerError, "Server error")
		default:
			log.Errorf("PublicCardProfile: failed to resolve %s: %v", cardCode, err)
			respondWithError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	if err := h.scanService.RecordScan(ctx, cardCode); err != nil {
		log.Errorf("PublicCardProfile: failed to log scan for %s: %v", cardCode, err)
	} else {
		middleware.CountScanRecorded()
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cardCode": cardCode,
		"profile":  publicProfile,
	})
}

// GetDashboard returns the caller's card, scan count and recent scans.
func (h *ScanHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	stats, err := h.scanService.GetDashboard(ctx, clerkID)
	if err != nil {
		log.Errorf("GetDashboard: failed for %s: %v", clerkID, err)
		respondWithError(w, http.StatusInternalServerError, "Error loading dashboard")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
