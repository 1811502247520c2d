package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nfcTrackAPI/internal/scan"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScanService struct {
	db *pgxpool.Pool
}

func NewScanService(db *pgxpool.Pool) *ScanService {
	return &ScanService{db: db}
}

// RecordScan appends one scan event for the card matching cardCode. Every
// call with a valid code inserts a new row: repeat visits within seconds
// each count separately, there is no dedup and no idempotency.
func (s *ScanService) RecordScan(ctx context.Context, cardCode string) error {
	var cardID string
	err := s.db.QueryRow(ctx, `SELECT id FROM cards WHERE card_code = $1`, cardCode).Scan(&cardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to look up card: %w", err)
	}

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO scans (id, card_id, scanned_at) VALUES ($1, $2, $3)`,
		uuid.New().String(),
		cardID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}

	return nil
}

// GetDashboard aggregates the caller's card, total scan count and the five
// most recent scan timestamps. A user without a card gets the zero-state.
func (s *ScanService) GetDashboard(ctx context.Context, clerkID string) (*scan.DashboardStats, error) {
	stats := &scan.DashboardStats{RecentScans: []time.Time{}}

	var cardID string
	err := s.db.QueryRow(ctx, `
	SELECT c.id, c.card_code
	FROM cards c
	JOIN profiles p ON p.id = c.user_id
	WHERE p.clerk_id = $1
	`, clerkID).Scan(&cardID, &stats.CardCode)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return nil, fmt.Errorf("failed to get card for dashboard: %w", err)
	}

	stats.HasCard = true

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM scans WHERE card_id = $1`, cardID).Scan(&stats.ScanCount); err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}

	rows, err := s.db.Query(ctx, `
	SELECT scanned_at
	FROM scans
	WHERE card_id = $1
	ORDER BY scanned_at DESC
	LIMIT 5
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent scans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("failed to scan recent scan row: %w", err)
		}
		stats.RecentScans = append(stats.RecentScans, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading recent scans: %w", err)
	}

	return stats, nil
}
