package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nfcTrackAPI/middleware"
	"nfcTrackAPI/services"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	clerksession "github.com/clerk/clerk-sdk-go/v2/session"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
	log "github.com/sirupsen/logrus"
)

// AuthHandler wraps the operations we delegate to Clerk: account creation,
// session revocation, and the session probe the frontend router uses.
// Sign-in itself happens between the browser and Clerk; our part of it is
// token verification in the auth middleware.
type AuthHandler struct {
	profileService *services.ProfileService
}

func NewAuthHandler(profileService *services.ProfileService) *AuthHandler {
	return &AuthHandler{
		profileService: profileService,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// Register creates the identity at Clerk. The profile row is NOT inserted
// here; it arrives through the user.created webhook, so sign-ups made
// directly on Clerk-hosted pages take the exact same path.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if len(req.Password) < 6 {
		respondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	firstName, lastName := splitFullName(req.FullName)

	params := &clerkuser.CreateParams{
		EmailAddresses: &[]string{req.Email},
		Password:       clerk.String(req.Password),
	}
	if firstName != "" {
		params.FirstName = clerk.String(firstName)
	}
	if lastName != "" {
		params.LastName = clerk.String(lastName)
	}

	created, err := clerkuser.Create(ctx, params)
	if err != nil {
		log.Errorf("Register: Clerk user creation failed for %s: %v", req.Email, err)
		respondWithError(w, http.StatusBadGateway, "Registration failed")
		return
	}

	log.Infof("Registered new user %s (Clerk ID: %s)", req.Email, created.ID)
	respondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "Registration successful. You can now login.",
	})
}

// SignOut revokes the caller's current Clerk session. The session.removed
// webhook that follows is what fans the change out to subscribers.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sessionID, ok := middleware.GetSessionID(ctx)
	if !ok || sessionID == "" {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if _, err := clerksession.Revoke(ctx, &clerksession.RevokeParams{ID: sessionID}); err != nil {
		log.Errorf("SignOut: failed to revoke session %s: %v", sessionID, err)
		respondWithError(w, http.StatusBadGateway, "Sign out failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

// GetSession reports whether the request carries a valid session. Mounted
// behind OptionalAuthMiddleware; the frontend router calls it on load to
// decide between /dashboard and /login.
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	clerkID, ok := middleware.GetClerkID(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"userId":        clerkID,
	})
}

func splitFullName(fullName string) (string, string) {
	if fullName == "" {
		return "", ""
	}
	parts := strings.Fields(fullName)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
