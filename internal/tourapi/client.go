// Package tourapi is the typed HTTP client for the active-tour service.
// It maps non-2xx responses to *APIError and classifies every failure as
// transient (retry later) or permanent (drop), which the offline sync
// layer relies on.
package tourapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wandergames/tourquest/internal/tourquest"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Permanent reports whether retrying can never succeed (client error).
func (e *APIError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsPermanent classifies an error from a client call. Only a 4xx response
// is permanent; network failures, timeouts, and 5xx responses are all
// transient.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Permanent()
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the service at baseURL authenticating with the
// given bearer token. Calls time out after 30 seconds; a timeout is a
// transient failure.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithHTTPClient is New with a caller-supplied http.Client, used by
// tests to point at an httptest server with a short timeout.
func NewWithHTTPClient(baseURL, token string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, token: token, http: hc}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// GetActiveTour fetches the full active-tour record, including the tour
// template and all challenge attempts.
func (c *Client) GetActiveTour(ctx context.Context, activeTourID string) (tourquest.ActiveTour, error) {
	var at tourquest.ActiveTour
	err := c.do(ctx, http.MethodGet, "/api/tours/"+activeTourID, nil, &at)
	return at, err
}

func (c *Client) CompleteChallenge(ctx context.Context, activeTourID, challengeID string) (tourquest.ChallengeAttempt, error) {
	var a tourquest.ChallengeAttempt
	err := c.do(ctx, http.MethodPost,
		"/api/tours/"+activeTourID+"/challenges/"+challengeID+"/complete", nil, &a)
	return a, err
}

func (c *Client) FailChallenge(ctx context.Context, activeTourID, challengeID string) (tourquest.ChallengeAttempt, error) {
	var a tourquest.ChallengeAttempt
	err := c.do(ctx, http.MethodPost,
		"/api/tours/"+activeTourID+"/challenges/"+challengeID+"/fail", nil, &a)
	return a, err
}

func (c *Client) FinishTour(ctx context.Context, activeTourID string) (tourquest.ActiveTour, error) {
	var at tourquest.ActiveTour
	err := c.do(ctx, http.MethodPost, "/api/tours/"+activeTourID+"/finish", nil, &at)
	return at, err
}

func (c *Client) AbandonTour(ctx context.Context, activeTourID string) (tourquest.ActiveTour, error) {
	var at tourquest.ActiveTour
	err := c.do(ctx, http.MethodPost, "/api/tours/"+activeTourID+"/abandon", nil, &at)
	return at, err
}

func (c *Client) UpdateCurrentStop(ctx context.Context, activeTourID string, stopIndex int) error {
	body := map[string]int{"stopIndex": stopIndex}
	return c.do(ctx, http.MethodPost, "/api/tours/"+activeTourID+"/stop", body, nil)
}

func (c *Client) UpdatePubGolfScore(ctx context.Context, activeTourID, stopID string, sips int) error {
	body := map[string]any{"stopId": stopID, "sips": sips}
	return c.do(ctx, http.MethodPost, "/api/tours/"+activeTourID+"/pubgolf", body, nil)
}
