package server

import (
	"context"
	"errors"

	"github.com/wandergames/tourquest/internal/tourquest"
)

var (
	ErrNotFound  = errors.New("not found")
	errNoSession = errors.New("no valid session")
)

// teamSession identifies the caller behind a bearer token.
type teamSession struct {
	TeamID       string
	TeamName     string
	ActiveTourID string
	PlayerName   string
}

// TourSummary is returned by the admin tour list.
type TourSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	City           string `json:"city"`
	BingoMode      bool   `json:"bingoMode"`
	StopCount      int    `json:"stopCount"`
	ChallengeCount int    `json:"challengeCount"`
	CreatedAt      string `json:"createdAt"`
}

type Store interface {
	// Team side.
	SessionFromToken(ctx context.Context, token string) (teamSession, error)
	// TeamLookup resolves a join token to the team and its active tour id.
	TeamLookup(ctx context.Context, joinToken string) (tourquest.Team, string, error)
	JoinTeam(ctx context.Context, teamID, playerName string) (token string, err error)

	ActiveTour(ctx context.Context, id string) (tourquest.ActiveTour, error)
	// ResolveAttempt lazily creates the attempt for (activeTourID,
	// challengeID) in the given terminal state. If the attempt already
	// exists it is returned unchanged and newly is false — resolved
	// attempts are immutable.
	ResolveAttempt(ctx context.Context, activeTourID, challengeID string, completed bool) (attempt tourquest.ChallengeAttempt, newly bool, err error)
	SetTourStatus(ctx context.Context, activeTourID string, status tourquest.TourStatus) error
	UpdateCurrentStop(ctx context.Context, activeTourID string, stopIndex int) error
	RecordPubGolfScore(ctx context.Context, activeTourID, stopID string, sips int) error

	BingoCard(ctx context.Context, activeTourID, teamID string) (tourquest.BingoCard, error)
	SaveBingoAwards(ctx context.Context, cardID string, newLines []string, fullHouse bool) error

	// Admin side.
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID string) (sessionID string, err error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)

	ListTours(ctx context.Context) ([]TourSummary, error)
	CreateTour(ctx context.Context, tour tourquest.Tour) (tourquest.Tour, error)
	CreateActiveTour(ctx context.Context, tourID string, teamNames []string) (tourquest.ActiveTour, error)
}
