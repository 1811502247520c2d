package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB creates a test database connection. Tests that need Postgres
// are skipped when neither TEST_DATABASE_URL nor DATABASE_URL is set.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL must be set for database tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes rows created by the tests. Scans cascade with
// their cards.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM cards WHERE user_id IN (SELECT id FROM profiles WHERE email LIKE 'test%@example.com')")
	if err != nil {
		t.Logf("Warning: failed to cleanup test cards: %v", err)
	}
	_, err = pool.Exec(ctx, "DELETE FROM profiles WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test profiles: %v", err)
	}
	pool.Close()
}

// GenerateMockSessionJWT builds a token shaped like a Clerk session JWT.
// It does not pass real verification; handler tests inject the identity
// into the request context instead.
func GenerateMockSessionJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// MockClerkWebhookPayload creates a mock webhook payload
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	payload := ""

	switch eventType {
	case "user.created":
		payload = fmt.Sprintf(`{
			"type": "user.created",
			"data": {
				"id": "%s",
				"first_name": "Test",
				"last_name": "User",
				"email_addresses": [
					{
						"email_address": "test.user@example.com",
						"verification": {"status": "verified"}
					}
				]
			}
		}`, clerkID)
	case "user.deleted":
		payload = fmt.Sprintf(`{
			"type": "user.deleted",
			"data": {
				"id": "%s"
			}
		}`, clerkID)
	case "session.created", "session.ended", "session.removed":
		payload = fmt.Sprintf(`{
			"type": "%s",
			"data": {
				"id": "sess_test123",
				"user_id": "%s",
				"status": "active"
			}
		}`, eventType, clerkID)
	}

	return []byte(payload)
}
