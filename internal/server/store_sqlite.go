package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wandergames/tourquest/internal/tourquest"
)

// SQLiteStore persists tours and active-tour state. Tour templates are
// immutable once created and stored as a JSON document; mutable play state
// (attempts, status, stop index, pub-golf, bingo awards) lives in relational
// tables keyed by active tour.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func newID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *SQLiteStore) SessionFromToken(ctx context.Context, token string) (teamSession, error) {
	var sess teamSession
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.name, t.active_tour_id, ts.player_name
		FROM team_sessions ts
		JOIN teams t ON t.id = ts.team_id
		WHERE ts.token = ?
	`, token).Scan(&sess.TeamID, &sess.TeamName, &sess.ActiveTourID, &sess.PlayerName)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, errNoSession
	}
	return sess, err
}

func (s *SQLiteStore) TeamLookup(ctx context.Context, joinToken string) (tourquest.Team, string, error) {
	var team tourquest.Team
	var activeTourID string
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.name, t.active_tour_id
		FROM teams t
		JOIN active_tours at ON at.id = t.active_tour_id
		WHERE t.join_token = ? AND at.status = 'ACTIVE'
	`, joinToken).Scan(&team.ID, &team.Name, &activeTourID)
	if errors.Is(err, sql.ErrNoRows) {
		return team, "", ErrNotFound
	}
	return team, activeTourID, err
}

func (s *SQLiteStore) JoinTeam(ctx context.Context, teamID, playerName string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO team_sessions (token, team_id, player_name)
		VALUES (lower(hex(randomblob(16))), ?, ?)
		RETURNING token
	`, teamID, playerName).Scan(&token)
	return token, err
}

func (s *SQLiteStore) ActiveTour(ctx context.Context, id string) (tourquest.ActiveTour, error) {
	var at tourquest.ActiveTour
	var tourDoc string
	var startedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.tour_id, a.status, a.current_stop, a.started_at, t.data
		FROM active_tours a
		JOIN tours t ON t.id = a.tour_id
		WHERE a.id = ?
	`, id).Scan(&at.ID, &at.TourID, &at.Status, &at.CurrentStop, &startedAt, &tourDoc)
	if errors.Is(err, sql.ErrNoRows) {
		return at, ErrNotFound
	}
	if err != nil {
		return at, err
	}
	if err := json.Unmarshal([]byte(tourDoc), &at.Tour); err != nil {
		return at, fmt.Errorf("decoding tour document %s: %w", at.TourID, err)
	}
	at.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT challenge_id, completed, failed
		FROM challenge_attempts
		WHERE active_tour_id = ?
		ORDER BY resolved_at
	`, id)
	if err != nil {
		return at, err
	}
	defer rows.Close()
	for rows.Next() {
		var a tourquest.ChallengeAttempt
		var completed, failed int
		if err := rows.Scan(&a.ChallengeID, &completed, &failed); err != nil {
			return at, err
		}
		a.Completed = completed == 1
		a.Failed = failed == 1
		at.ActiveChallenges = append(at.ActiveChallenges, a)
	}
	if err := rows.Err(); err != nil {
		return at, err
	}

	teamRows, err := s.db.QueryContext(ctx, `
		SELECT id, name FROM teams WHERE active_tour_id = ? ORDER BY created_at
	`, id)
	if err != nil {
		return at, err
	}
	defer teamRows.Close()
	for teamRows.Next() {
		var t tourquest.Team
		if err := teamRows.Scan(&t.ID, &t.Name); err != nil {
			return at, err
		}
		at.Teams = append(at.Teams, t)
	}
	return at, teamRows.Err()
}

func (s *SQLiteStore) ResolveAttempt(ctx context.Context, activeTourID, challengeID string, completed bool) (tourquest.ChallengeAttempt, bool, error) {
	completedInt, failedInt := 0, 1
	if completed {
		completedInt, failedInt = 1, 0
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO challenge_attempts (active_tour_id, challenge_id, completed, failed, resolved_at)
		VALUES (?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(active_tour_id, challenge_id) DO NOTHING
	`, activeTourID, challengeID, completedInt, failedInt)
	if err != nil {
		return tourquest.ChallengeAttempt{}, false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return tourquest.ChallengeAttempt{}, false, err
	}

	var a tourquest.ChallengeAttempt
	var gotCompleted, gotFailed int
	err = s.db.QueryRowContext(ctx, `
		SELECT challenge_id, completed, failed
		FROM challenge_attempts
		WHERE active_tour_id = ? AND challenge_id = ?
	`, activeTourID, challengeID).Scan(&a.ChallengeID, &gotCompleted, &gotFailed)
	if err != nil {
		return a, false, err
	}
	a.Completed = gotCompleted == 1
	a.Failed = gotFailed == 1
	return a, inserted == 1, nil
}

func (s *SQLiteStore) SetTourStatus(ctx context.Context, activeTourID string, status tourquest.TourStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE active_tours
		SET status = ?, ended_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, string(status), activeTourID)
	return err
}

func (s *SQLiteStore) UpdateCurrentStop(ctx context.Context, activeTourID string, stopIndex int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE active_tours SET current_stop = ? WHERE id = ?
	`, stopIndex, activeTourID)
	return err
}

func (s *SQLiteStore) RecordPubGolfScore(ctx context.Context, activeTourID, stopID string, sips int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pub_golf_scores (active_tour_id, stop_id, sips)
		VALUES (?, ?, ?)
		ON CONFLICT(active_tour_id, stop_id) DO UPDATE SET sips = excluded.sips
	`, activeTourID, stopID, sips)
	return err
}

func (s *SQLiteStore) BingoCard(ctx context.Context, activeTourID, teamID string) (tourquest.BingoCard, error) {
	var card tourquest.BingoCard
	var cellsDoc, linesDoc string
	var fullHouse int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, active_tour_id, cells, awarded_lines, full_house
		FROM bingo_cards
		WHERE active_tour_id = ? AND team_id = ?
	`, activeTourID, teamID).Scan(&card.ID, &card.TeamID, &card.ActiveTourID, &cellsDoc, &linesDoc, &fullHouse)
	if errors.Is(err, sql.ErrNoRows) {
		return card, ErrNotFound
	}
	if err != nil {
		return card, err
	}
	if err := json.Unmarshal([]byte(cellsDoc), &card.Cells); err != nil {
		return card, fmt.Errorf("decoding bingo cells: %w", err)
	}
	if err := json.Unmarshal([]byte(linesDoc), &card.AwardedLines); err != nil {
		return card, fmt.Errorf("decoding awarded lines: %w", err)
	}
	card.FullHouseAwarded = fullHouse == 1
	return card, nil
}

func (s *SQLiteStore) SaveBingoAwards(ctx context.Context, cardID string, newLines []string, fullHouse bool) error {
	card, err := s.bingoCardByID(ctx, cardID)
	if err != nil {
		return err
	}
	lines := append(card.AwardedLines, newLines...)
	linesDoc, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	fullHouseInt := 0
	if fullHouse || card.FullHouseAwarded {
		fullHouseInt = 1
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE bingo_cards SET awarded_lines = ?, full_house = ? WHERE id = ?
	`, string(linesDoc), fullHouseInt, cardID)
	return err
}

func (s *SQLiteStore) bingoCardByID(ctx context.Context, cardID string) (tourquest.BingoCard, error) {
	var card tourquest.BingoCard
	var linesDoc string
	var fullHouse int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, awarded_lines, full_house FROM bingo_cards WHERE id = ?
	`, cardID).Scan(&card.ID, &linesDoc, &fullHouse)
	if errors.Is(err, sql.ErrNoRows) {
		return card, ErrNotFound
	}
	if err != nil {
		return card, err
	}
	if err := json.Unmarshal([]byte(linesDoc), &card.AwardedLines); err != nil {
		return card, err
	}
	card.FullHouseAwarded = fullHouse == 1
	return card, nil
}

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var adminID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&adminID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return adminID, passwordHash, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (id, admin_id)
		VALUES (lower(hex(randomblob(16))), ?)
		RETURNING id
	`, adminID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

func (s *SQLiteStore) ListTours(ctx context.Context) ([]TourSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data, created_at FROM tours ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []TourSummary
	for rows.Next() {
		var id, doc, createdAt string
		if err := rows.Scan(&id, &doc, &createdAt); err != nil {
			return nil, err
		}
		var tour tourquest.Tour
		if err := json.Unmarshal([]byte(doc), &tour); err != nil {
			return nil, fmt.Errorf("decoding tour document %s: %w", id, err)
		}
		count := len(tour.Challenges)
		for _, stop := range tour.Stops {
			count += len(stop.Challenges)
		}
		tours = append(tours, TourSummary{
			ID:             id,
			Name:           tour.Name,
			City:           tour.City,
			BingoMode:      tour.BingoMode,
			StopCount:      len(tour.Stops),
			ChallengeCount: count,
			CreatedAt:      createdAt,
		})
	}
	return tours, rows.Err()
}

// CreateTour assigns ids to the tour and every stop and challenge, then
// stores the template as an immutable document.
func (s *SQLiteStore) CreateTour(ctx context.Context, tour tourquest.Tour) (tourquest.Tour, error) {
	tour.ID = newID()
	tour.CreatedAt = time.Now().UTC()
	for i := range tour.Stops {
		stop := &tour.Stops[i]
		stop.ID = newID()
		stop.TourID = tour.ID
		stop.Number = i + 1
		for j := range stop.Challenges {
			stop.Challenges[j].ID = newID()
			stop.Challenges[j].TourID = tour.ID
			stop.Challenges[j].StopID = stop.ID
		}
	}
	for i := range tour.Challenges {
		tour.Challenges[i].ID = newID()
		tour.Challenges[i].TourID = tour.ID
	}

	doc, err := json.Marshal(tour)
	if err != nil {
		return tour, fmt.Errorf("encoding tour document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tours (id, data, created_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	`, tour.ID, string(doc))
	return tour, err
}

// CreateActiveTour starts a team attempt at the given tour. Each named team
// gets a join token; on bingo-mode tours each team also gets a 3x3 card
// built from the tour's first nine stop challenges.
func (s *SQLiteStore) CreateActiveTour(ctx context.Context, tourID string, teamNames []string) (tourquest.ActiveTour, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM tours WHERE id = ?`, tourID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return tourquest.ActiveTour{}, ErrNotFound
	}
	if err != nil {
		return tourquest.ActiveTour{}, err
	}
	var tour tourquest.Tour
	if err := json.Unmarshal([]byte(doc), &tour); err != nil {
		return tourquest.ActiveTour{}, fmt.Errorf("decoding tour document %s: %w", tourID, err)
	}

	at := tourquest.ActiveTour{
		ID:        newID(),
		TourID:    tourID,
		Status:    tourquest.StatusActive,
		Tour:      tour,
		StartedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO active_tours (id, tour_id, status, current_stop, started_at)
		VALUES (?, ?, 'ACTIVE', 0, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	`, at.ID, tourID)
	if err != nil {
		return at, err
	}

	for _, name := range teamNames {
		team := tourquest.Team{
			ID:        newID(),
			Name:      name,
			JoinToken: newID(),
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO teams (id, active_tour_id, name, join_token, created_at)
			VALUES (?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		`, team.ID, at.ID, team.Name, team.JoinToken)
		if err != nil {
			return at, err
		}
		at.Teams = append(at.Teams, team)

		if tour.BingoMode {
			if err := s.createBingoCard(ctx, at.ID, team.ID, tour); err != nil {
				return at, err
			}
		}
	}
	return at, nil
}

func (s *SQLiteStore) createBingoCard(ctx context.Context, activeTourID, teamID string, tour tourquest.Tour) error {
	seq := tour.ChallengeSequence()
	if len(seq) < 9 {
		// Not enough challenges for a grid; the tour plays without a card.
		return nil
	}
	var cells []tourquest.BingoCell
	for i := 0; i < 9; i++ {
		cells = append(cells, tourquest.BingoCell{
			Row:         i / 3,
			Col:         i % 3,
			ChallengeID: seq[i].ID,
		})
	}
	cellsDoc, err := json.Marshal(cells)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bingo_cards (id, active_tour_id, team_id, cells, awarded_lines, full_house)
		VALUES (?, ?, ?, ?, '[]', 0)
	`, newID(), activeTourID, teamID, string(cellsDoc))
	return err
}
