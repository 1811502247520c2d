package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfcTrackAPI/handlers"
	"nfcTrackAPI/internal/card"
	"nfcTrackAPI/internal/profile"
	"nfcTrackAPI/internal/scan"
	"nfcTrackAPI/middleware"
	"nfcTrackAPI/services"
	"nfcTrackAPI/tests/helpers"
)

func dashboardRequest(clerkID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	return req.WithContext(ctx)
}

func TestDashboard_NoCardIsZeroState(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	scanService := services.NewScanService(pool)
	scanHandler := handlers.NewScanHandler(scanService, profileService)

	ctx := context.Background()
	stamp := time.Now().Format("20060102150405")
	clerkID := "user_test_zerostate_" + stamp

	_, err := profileService.CreateProfile(ctx, &profile.CreateProfileRequest{
		ClerkID:  clerkID,
		Email:    fmt.Sprintf("test.zerostate.%s@example.com", stamp),
		FullName: "Zero State",
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	scanHandler.GetDashboard(rr, dashboardRequest(clerkID))

	// No card is a normal state, not an error.
	assert.Equal(t, http.StatusOK, rr.Code)

	var stats scan.DashboardStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.False(t, stats.HasCard)
	assert.Zero(t, stats.ScanCount)
	assert.Empty(t, stats.RecentScans)
}

func TestDashboard_CountsAndRecentScans(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	cardService := services.NewCardService(pool)
	scanService := services.NewScanService(pool)
	scanHandler := handlers.NewScanHandler(scanService, profileService)

	ctx := context.Background()
	stamp := time.Now().Format("20060102150405")
	clerkID := "user_test_dash_" + stamp
	email := fmt.Sprintf("test.dash.%s@example.com", stamp)

	_, err := profileService.CreateProfile(ctx, &profile.CreateProfileRequest{
		ClerkID:  clerkID,
		Email:    email,
		FullName: "Dash Tester",
	})
	require.NoError(t, err)

	cardCode := "TESTDASH" + stamp
	_, err = cardService.AssignCard(ctx, &card.AssignCardRequest{Email: email, CardCode: cardCode})
	require.NoError(t, err)

	const total = 7
	for i := 0; i < total; i++ {
		require.NoError(t, scanService.RecordScan(ctx, cardCode))
	}

	rr := httptest.NewRecorder()
	scanHandler.GetDashboard(rr, dashboardRequest(clerkID))

	assert.Equal(t, http.StatusOK, rr.Code)

	var stats scan.DashboardStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.True(t, stats.HasCard)
	assert.Equal(t, cardCode, stats.CardCode)
	assert.Equal(t, int64(total), stats.ScanCount)

	// Recent list is capped at five, newest first.
	require.Len(t, stats.RecentScans, 5)
	for i := 1; i < len(stats.RecentScans); i++ {
		assert.False(t, stats.RecentScans[i].After(stats.RecentScans[i-1]),
			"recent scans must be ordered by descending timestamp")
	}
}

func TestDashboard_FewerThanFiveScans(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	cardService := services.NewCardService(pool)
	scanService := services.NewScanService(pool)
	scanHandler := handlers.NewScanHandler(scanService, profileService)

	ctx := context.Background()
	stamp := time.Now().Format("20060102150405")
	clerkID := "user_test_few_" + stamp
	email := fmt.Sprintf("test.few.%s@example.com", stamp)

	_, err := profileService.CreateProfile(ctx, &profile.CreateProfileRequest{
		ClerkID:  clerkID,
		Email:    email,
		FullName: "Few Scans",
	})
	require.NoError(t, err)

	cardCode := "TESTFEW" + stamp
	_, err = cardService.AssignCard(ctx, &card.AssignCardRequest{Email: email, CardCode: cardCode})
	require.NoError(t, err)

	require.NoError(t, scanService.RecordScan(ctx, cardCode))
	require.NoError(t, scanService.RecordScan(ctx, cardCode))

	rr := httptest.NewRecorder()
	scanHandler.GetDashboard(rr, dashboardRequest(clerkID))

	var stats scan.DashboardStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.ScanCount)
	assert.Len(t, stats.RecentScans, 2)
}
