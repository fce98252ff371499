package tourapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_BearerTokenAndPaths(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"challengeId":"c1","completed":true,"failed":false}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123")
	att, err := c.CompleteChallenge(context.Background(), "at1", "c1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "/api/tours/at1/challenges/c1/complete", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.True(t, att.Completed)
	assert.Equal(t, "c1", att.ChallengeID)
}

func TestClient_APIErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tours/gone":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"active tour not found"}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"maintenance"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")

	_, err := c.GetActiveTour(context.Background(), "gone")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "active tour not found", apiErr.Message)
	assert.True(t, IsPermanent(err))

	_, err = c.GetActiveTour(context.Background(), "at1")
	require.Error(t, err)
	assert.False(t, IsPermanent(err), "5xx must be transient")
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the dial fails

	c := New(srv.URL, "")
	_, err := c.GetActiveTour(context.Background(), "at1")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestClient_UpdateStopBody(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		body = string(buf)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	require.NoError(t, c.UpdateCurrentStop(context.Background(), "at1", 2))
	assert.JSONEq(t, `{"stopIndex":2}`, body)
}
