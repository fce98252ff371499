// Package engine computes all derived state for an active tour: challenge
// outcomes, progress and streaks, the current stop, and bingo awards. Every
// function here is pure — no I/O, no clocks, no mutation of its inputs.
package engine

import (
	"fmt"
	"strings"

	"github.com/wandergames/tourquest/internal/tourquest"
)

// Outcome is the result of evaluating a submitted challenge.
type Outcome string

const (
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeFailed    Outcome = "FAILED"
)

// UnsupportedTypeError is returned when a challenge carries a type the
// evaluator has no rule for. Callers must treat it as a programmer error,
// never as a completion.
type UnsupportedTypeError struct {
	Type tourquest.ChallengeType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported challenge type %q", string(e.Type))
}

// Evaluate decides the outcome of a single submission.
//
// Self-attested types (location, picture, dare, check-in) always complete.
// Trivia compares the selected option to the answer byte-for-byte.
// True/false and riddle comparisons are case-insensitive; riddles also
// trim surrounding whitespace on both sides.
func Evaluate(c tourquest.Challenge, input string) (Outcome, error) {
	switch c.Type {
	case tourquest.ChallengeLocation, tourquest.ChallengePicture,
		tourquest.ChallengeDare, tourquest.ChallengeCheckIn:
		return OutcomeCompleted, nil

	case tourquest.ChallengeTrivia:
		if input == c.Answer {
			return OutcomeCompleted, nil
		}
		return OutcomeFailed, nil

	case tourquest.ChallengeTrueFalse:
		if strings.EqualFold(input, c.Answer) {
			return OutcomeCompleted, nil
		}
		return OutcomeFailed, nil

	case tourquest.ChallengeRiddle:
		if strings.EqualFold(strings.TrimSpace(input), strings.TrimSpace(c.Answer)) {
			return OutcomeCompleted, nil
		}
		return OutcomeFailed, nil
	}

	return "", &UnsupportedTypeError{Type: c.Type}
}
