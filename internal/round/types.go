// internal/round/types.go
//
// Core type definitions for the quiz round.
// Defines:
//   - State:    lifecycle position of the live round.
//   - Result:   what the terminal reveal shows.
//   - Snapshot: a render-ready copy of the round, safe to hand to any UI.

package round

// State is the lifecycle position of the live round.
//
//	loading → active → correct | revealed
//	loading → errored → (retry) loading
type State string

const (
	StateLoading  State = "loading"
	StateActive   State = "active"
	StateCorrect  State = "correct"
	StateRevealed State = "revealed"
	StateErrored  State = "errored"
)

// Terminal reports whether the round has ended (correct or revealed).
func (s State) Terminal() bool {
	return s == StateCorrect || s == StateRevealed
}

// Result is the terminal outcome of a round.
type Result struct {
	Correct bool   `json:"correct"`
	GaveUp  bool   `json:"gaveUp"`
	Title   string `json:"title"`             // "Correct!" | "Better luck next time!"
	Answer  string `json:"answer"`            // canonical destination name
	FunFact string `json:"funFact"`           // backend fact, random detail fact, or placeholder
	Message string `json:"message,omitempty"` // win message; empty on give-up
}

// Snapshot is a copy of the live round for rendering. It never carries the
// destination name while the round is still active.
type Snapshot struct {
	Seq           uint64   `json:"seq"`   // round sequence number
	State         State    `json:"state"` // lifecycle position
	DestinationID int      `json:"destinationId,omitempty"`
	Clues         []string `json:"clues"`
	AttemptCount  int      `json:"attemptCount"`
	Guesses       []string `json:"guesses"` // incorrect guesses, in submission order
	Hint          string   `json:"hint,omitempty"`
	Shake         bool     `json:"shake"`   // transient, true for ShakeDuration after a miss
	Pending       bool     `json:"pending"` // a submission or give-up is in flight
	Error         string   `json:"error,omitempty"`
	Result        *Result  `json:"result,omitempty"`
}
