package server

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/wandergames/tourquest/internal/tourquest"
)

// SeedAdmin creates the configured admin account if no admins exist.
// Idempotent across restarts.
func SeedAdmin(ctx context.Context, logger *slog.Logger, store *SQLiteStore, email, password string) error {
	var count int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	_, err = store.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash)
		VALUES (lower(hex(randomblob(8))), ?, ?)
	`, email, string(hash))
	if err != nil {
		return fmt.Errorf("inserting admin: %w", err)
	}

	logger.Info("admin account seeded", "email", email)
	return nil
}

// SeedDemoTour creates a demo tour with one active attempt if no tours
// exist. Does nothing otherwise.
func SeedDemoTour(ctx context.Context, logger *slog.Logger, store *SQLiteStore) error {
	existing, err := store.ListTours(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	tour := tourquest.Tour{
		Name:      "Lima Centro Crawl",
		City:      "Lima",
		BingoMode: false,
		Stops: []tourquest.Stop{
			{
				Name: "Plaza Mayor",
				Challenges: []tourquest.Challenge{
					{Type: tourquest.ChallengeCheckIn, Points: 50, Content: "Check in at the fountain"},
					{Type: tourquest.ChallengeTrivia, Points: 100,
						Content: "Which country's capital is Lima?",
						Answer:  "Peru",
						Options: []string{"Peru", "Chile", "Ecuador", "Bolivia"}},
				},
			},
			{
				Name: "Barrio Chino",
				Challenges: []tourquest.Challenge{
					{Type: tourquest.ChallengePicture, Points: 100, Content: "Team photo under the arch"},
					{Type: tourquest.ChallengeRiddle, Points: 150,
						Content: "I have keys but no locks. What am I?",
						Answer:  "a piano"},
				},
			},
		},
		Challenges: []tourquest.Challenge{
			{Type: tourquest.ChallengeDare, Points: 200, Content: "Order in Spanish only"},
		},
	}

	created, err := store.CreateTour(ctx, tour)
	if err != nil {
		return err
	}
	if _, err := store.CreateActiveTour(ctx, created.ID, []string{"Los Incas"}); err != nil {
		return err
	}

	logger.Info("demo tour seeded", "tour_id", created.ID)
	return nil
}
