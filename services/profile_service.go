package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nfcTrackAPI/internal/profile"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type ProfileService struct {
	db *pgxpool.Pool
}

func NewProfileService(db *pgxpool.Pool) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) CreateProfile(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error) {
	p := &profile.Profile{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		FullName:  req.FullName,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO profiles (id, clerk_id, email, full_name, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, clerk_id, email, full_name, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		p.ID,
		p.ClerkID,
		p.Email,
		p.FullName,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(
		&p.ID,
		&p.ClerkID,
		&p.Email,
		&p.FullName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return p, nil
}

func (s *ProfileService) GetProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	query := `
	SELECT id, clerk_id, email, full_name, created_at, updated_at
	FROM profiles
	WHERE clerk_id = $1
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&p.ID,
		&p.ClerkID,
		&p.Email,
		&p.FullName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

func (s *ProfileService) GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	query := `
	SELECT id, clerk_id, email, full_name, created_at, updated_at
	FROM profiles
	WHERE email = $1
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&p.ID,
		&p.ClerkID,
		&p.Email,
		&p.FullName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}

	return p, nil
}

func (s *ProfileService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	query := `
	UPDATE profiles
	SET full_name = COALESCE(NULLIF($2, ''), full_name), updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, full_name, created_at, updated_at
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, clerkID, req.FullName).Scan(
		&p.ID,
		&p.ClerkID,
		&p.Email,
		&p.FullName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return p, nil
}

// UpdateProfileFromIdentity syncs email and name changes pushed by the
// identity provider's user.updated webhook.
func (s *ProfileService) UpdateProfileFromIdentity(ctx context.Context, clerkID, email, fullName string) error {
	query := `
	UPDATE profiles
	SET email = COALESCE(NULLIF($2, ''), email),
	    full_name = COALESCE(NULLIF($3, ''), full_name),
	    updated_at = NOW()
	WHERE clerk_id = $1
	`

	tag, err := s.db.Exec(ctx, query, clerkID, email, fullName)
	if err != nil {
		return fmt.Errorf("failed to sync profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// DeleteProfileByClerkID removes the profile and its card. Scan rows hang
// off the card via ON DELETE CASCADE at the schema level; the application
// itself never deletes scans.
func (s *ProfileService) DeleteProfileByClerkID(ctx context.Context, clerkID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cards WHERE user_id = (SELECT id FROM profiles WHERE clerk_id = $1)`, clerkID); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE clerk_id = $1`, clerkID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	return tx.Commit(ctx)
}

// ResolveByCardCode maps a public card code to the owner's public profile.
// A missing card is the normal miss; a card whose owner row is gone is an
// integrity violation and surfaces as a distinct error.
func (s *ProfileService) ResolveByCardCode(ctx context.Context, cardCode string) (*profile.PublicProfile, error) {
	var userID string
	err := s.db.QueryRow(ctx, `SELECT user_id FROM cards WHERE card_code = $1`, cardCode).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to look up card: %w", err)
	}

	p := &profile.Profile{}
	err = s.db.QueryRow(ctx, `SELECT full_name, email FROM profiles WHERE id = $1`, userID).Scan(
		&p.FullName,
		&p.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Errorf("ResolveByCardCode: card %s references missing profile %s", cardCode, userID)
			return nil, ErrProfileIntegrity
		}
		return nil, fmt.Errorf("failed to load card owner profile: %w", err)
	}

	return p.Public(), nil
}
