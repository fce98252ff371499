package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandergames/tourquest/internal/tourquest"
)

func TestEvaluate_SelfAttestedAlwaysComplete(t *testing.T) {
	types := []tourquest.ChallengeType{
		tourquest.ChallengeLocation,
		tourquest.ChallengePicture,
		tourquest.ChallengeDare,
		tourquest.ChallengeCheckIn,
	}
	for _, ct := range types {
		t.Run(string(ct), func(t *testing.T) {
			c := tourquest.Challenge{ID: "c1", Type: ct}
			out, err := Evaluate(c, "whatever")
			require.NoError(t, err)
			assert.Equal(t, OutcomeCompleted, out)

			// Input is irrelevant, including empty.
			out, err = Evaluate(c, "")
			require.NoError(t, err)
			assert.Equal(t, OutcomeCompleted, out)
		})
	}
}

func TestEvaluate_Trivia(t *testing.T) {
	c := tourquest.Challenge{
		ID:      "c1",
		Type:    tourquest.ChallengeTrivia,
		Answer:  "Lima",
		Options: []string{"Lima", "Cusco", "Arequipa", "Trujillo"},
	}

	for _, opt := range c.Options {
		out, err := Evaluate(c, opt)
		require.NoError(t, err)
		if opt == c.Answer {
			assert.Equal(t, OutcomeCompleted, out, "option %q", opt)
		} else {
			assert.Equal(t, OutcomeFailed, out, "option %q", opt)
		}
	}

	// Byte-equality: case differences fail.
	out, err := Evaluate(c, "lima")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, out)
}

func TestEvaluate_TrueFalse(t *testing.T) {
	tests := []struct {
		answer string
		input  string
		want   Outcome
	}{
		{"true", "true", OutcomeCompleted},
		{"true", "TRUE", OutcomeCompleted},
		{"TRUE", "true", OutcomeCompleted},
		{"false", "False", OutcomeCompleted},
		{"true", "false", OutcomeFailed},
		{"false", "true", OutcomeFailed},
	}
	for _, tt := range tests {
		c := tourquest.Challenge{Type: tourquest.ChallengeTrueFalse, Answer: tt.answer}
		out, err := Evaluate(c, tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out, "answer=%q input=%q", tt.answer, tt.input)
	}
}

func TestEvaluate_Riddle(t *testing.T) {
	c := tourquest.Challenge{Type: tourquest.ChallengeRiddle, Answer: " A Shadow "}

	tests := []struct {
		input string
		want  Outcome
	}{
		{"a shadow", OutcomeCompleted},
		{"  A SHADOW  ", OutcomeCompleted},
		{"A Shadow", OutcomeCompleted},
		{"a shado", OutcomeFailed},
		{"", OutcomeFailed},
	}
	for _, tt := range tests {
		out, err := Evaluate(c, tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out, "input=%q", tt.input)
	}
}

func TestEvaluate_UnknownType(t *testing.T) {
	c := tourquest.Challenge{Type: "KARAOKE"}
	_, err := Evaluate(c, "x")
	require.Error(t, err)

	var ute *UnsupportedTypeError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, tourquest.ChallengeType("KARAOKE"), ute.Type)
}
