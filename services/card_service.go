package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nfcTrackAPI/internal/card"
	"nfcTrackAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type CardService struct {
	db *pgxpool.Pool
}

func NewCardService(db *pgxpool.Pool) *CardService {
	return &CardService{db: db}
}

func (s *CardService) GetCardByCode(ctx context.Context, cardCode string) (*card.Card, error) {
	query := `
	SELECT id, card_code, user_id, created_at
	FROM cards
	WHERE card_code = $1
	`

	c := &card.Card{}
	err := s.db.QueryRow(ctx, query, cardCode).Scan(
		&c.ID,
		&c.CardCode,
		&c.UserID,
		&c.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return c, nil
}

// GetCardForUser returns the caller's card, or (nil, nil) when none is
// assigned. Having no card is the dashboard's normal zero-state, not an
// error.
func (s *CardService) GetCardForUser(ctx context.Context, clerkID string) (*card.Card, error) {
	query := `
	SELECT c.id, c.card_code, c.user_id, c.created_at
	FROM cards c
	JOIN profiles p ON p.id = c.user_id
	WHERE p.clerk_id = $1
	`

	c := &card.Card{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&c.ID,
		&c.CardCode,
		&c.UserID,
		&c.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card for user: %w", err)
	}

	return c, nil
}

// AssignCard gives the user identified by email a card. Cards are created
// administratively; users never mint their own. When no code is supplied a
// random one is generated, retrying on the rare collision.
func (s *CardService) AssignCard(ctx context.Context, req *card.AssignCardRequest) (*card.Card, error) {
	var userID string
	err := s.db.QueryRow(ctx, `SELECT id FROM profiles WHERE email = $1`, req.Email).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find card owner: %w", err)
	}

	var existing int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE user_id = $1`, userID).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to check existing card: %w", err)
	}
	if existing > 0 {
		return nil, ErrCardAlreadyExists
	}

	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cardCode := req.CardCode
		if cardCode == "" {
			cardCode, err = utils.GenerateCardCode()
			if err != nil {
				return nil, err
			}
		}

		var taken int64
		if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE card_code = $1`, cardCode).Scan(&taken); err != nil {
			return nil, fmt.Errorf("failed to check card code: %w", err)
		}
		if taken > 0 {
			if req.CardCode != "" {
				// Explicit code collisions are a caller mistake, not retryable.
				return nil, fmt.Errorf("card code %s is already in use", req.CardCode)
			}
			log.Warnf("AssignCard: generated card code collision, retrying (attempt %d)", attempt+1)
			continue
		}

		c := &card.Card{
			ID:        uuid.New().String(),
			CardCode:  cardCode,
			UserID:    userID,
			CreatedAt: time.Now(),
		}

		query := `
		INSERT INTO cards (id, card_code, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, card_code, user_id, created_at
		`

		err = s.db.QueryRow(ctx, query, c.ID, c.CardCode, c.UserID, c.CreatedAt).Scan(
			&c.ID,
			&c.CardCode,
			&c.UserID,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to assign card: %w", err)
		}

		return c, nil
	}

	return nil, fmt.Errorf("failed to generate a unique card code after %d attempts", maxAttempts)
}
