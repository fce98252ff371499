package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wandergames/tourquest/internal/database"
	"github.com/wandergames/tourquest/internal/migrations"
	"github.com/wandergames/tourquest/internal/tourquest"
)

func setupAdminRouter(t *testing.T) *chi.Mux {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	store := NewSQLiteStore(db)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := SeedAdmin(ctx, logger, store, "admin@example.com", "hunter22"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, logger, store, db, "")
	return r
}

func adminLogin(t *testing.T, r *chi.Mux) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(AdminLoginRequest{Email: "admin@example.com", Password: "hunter22"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == adminCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("login: expected a session cookie")
	return nil
}

func TestAdminLoginWrongPassword(t *testing.T) {
	r := setupAdminRouter(t)

	body, _ := json.Marshal(AdminLoginRequest{Email: "admin@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminMe(t *testing.T) {
	r := setupAdminRouter(t)
	cookie := adminLogin(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me AdminMeResponse
	json.NewDecoder(w.Body).Decode(&me)
	if me.Email != "admin@example.com" {
		t.Errorf("expected admin email, got %q", me.Email)
	}

	// Without the cookie.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no cookie: expected 401, got %d", w.Code)
	}
}

func TestAdminLogoutInvalidatesSession(t *testing.T) {
	r := setupAdminRouter(t)
	cookie := adminLogin(t, r)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("after logout: expected 401, got %d", w.Code)
	}
}

func TestAdminCreateTourAndActiveTour(t *testing.T) {
	r := setupAdminRouter(t)
	cookie := adminLogin(t, r)

	tourReq := AdminTourRequest{
		Name: "Arequipa Day Trip",
		City: "Arequipa",
		Stops: []AdminStopRequest{
			{Name: "Plaza", Challenges: []AdminChallengeRequest{
				{Type: "trivia", Points: 100, Content: "q", Answer: "a"},
				{Type: "check_in", Points: 50, Content: "check in"},
			}},
		},
		BonusChallenges: []AdminChallengeRequest{
			{Type: "dare", Points: 200, Content: "dare"},
		},
	}

	// Without the cookie.
	body, _ := json.Marshal(tourReq)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/tours", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie: expected 401, got %d", w.Code)
	}

	// With the cookie.
	req = httptest.NewRequest(http.MethodPost, "/api/admin/tours", bytes.NewReader(body))
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create tour: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var tour tourquest.Tour
	json.NewDecoder(w.Body).Decode(&tour)
	if tour.ID == "" {
		t.Fatal("expected tour id")
	}
	if got := tour.Stops[0].Challenges[0].Type; got != tourquest.ChallengeTrivia {
		t.Errorf("expected normalized TRIVIA type, got %q", got)
	}

	// Start an active tour from it.
	body, _ = json.Marshal(AdminActiveTourRequest{TourID: tour.ID, TeamNames: []string{"Rojo", "Azul"}})
	req = httptest.NewRequest(http.MethodPost, "/api/admin/active-tours", bytes.NewReader(body))
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create active tour: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var at tourquest.ActiveTour
	json.NewDecoder(w.Body).Decode(&at)
	if len(at.Teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(at.Teams))
	}
	for _, team := range at.Teams {
		if team.JoinToken == "" {
			t.Errorf("team %q: expected a join token", team.Name)
		}
	}

	// It shows up in the list.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/tours", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list tours: expected 200, got %d", w.Code)
	}
	var tours []TourSummary
	json.NewDecoder(w.Body).Decode(&tours)
	if len(tours) != 1 {
		t.Errorf("expected 1 tour, got %d", len(tours))
	}
}

func TestAdminCreateTourUnknownChallengeType(t *testing.T) {
	r := setupAdminRouter(t)
	cookie := adminLogin(t, r)

	body, _ := json.Marshal(AdminTourRequest{
		Name: "Broken",
		Stops: []AdminStopRequest{
			{Name: "Plaza", Challenges: []AdminChallengeRequest{
				{Type: "karaoke", Points: 100, Content: "sing"},
			}},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/tours", bytes.NewReader(body))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateActiveTourUnknownTour(t *testing.T) {
	r := setupAdminRouter(t)
	cookie := adminLogin(t, r)

	body, _ := json.Marshal(AdminActiveTourRequest{TourID: "missing", TeamNames: []string{"Rojo"}})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/active-tours", bytes.NewReader(body))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
