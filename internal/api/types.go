// internal/api/types.go
//
// Wire types for the Globetrotter backend.
//   - Destination:  GET /api/destinations/random, GET /api/destinations/{id}
//   - AnswerResult: POST /api/destinations/check-answer
//   - User:         POST /api/users, GET /api/users/{username}

package api

import "encoding/json"

// Destination is a quiz target as served by the backend.
type Destination struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Clues    []string `json:"clues"`
	FunFacts []string `json:"funFacts,omitempty"`
}

// CheckAnswerRequest is the body of POST /api/destinations/check-answer.
type CheckAnswerRequest struct {
	DestinationID int    `json:"destination_id"`
	Answer        string `json:"answer"`
	Username      string `json:"username,omitempty"`
	GaveUp        bool   `json:"gave_up"`
	Tries         int    `json:"tries"`
}

// AnswerResult is the backend's verdict on a guess.
// Pointer fields are nil when the backend omits them (or sends null).
type AnswerResult struct {
	Correct          bool   `json:"correct"`
	CorrectAnswer    string `json:"correct_answer"`
	FunFact          string `json:"fun_fact"`
	BestTry          *int   `json:"best_try"`
	CorrectAnswers   *int   `json:"correct_answers,omitempty"`
	IncorrectAnswers *int   `json:"incorrect_answers,omitempty"`
}

// User is a player record. Missing numeric fields decode as 0.
type User struct {
	ID               int    `json:"id"`
	Username         string `json:"username"`
	BestTry          int    `json:"best_try"`
	CorrectAnswers   int    `json:"correct_answers"`
	IncorrectAnswers int    `json:"incorrect_answers"`
}

// UnmarshalJSON accepts both "best_try" (POST /api/users) and
// "bestTry" (GET /api/users/{username}).
func (u *User) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID               int    `json:"id"`
		Username         string `json:"username"`
		BestTry          *int   `json:"best_try"`
		BestTryCamel     *int   `json:"bestTry"`
		CorrectAnswers   *int   `json:"correct_answers"`
		IncorrectAnswers *int   `json:"incorrect_answers"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*u = User{
		ID:               raw.ID,
		Username:         raw.Username,
		BestTry:          firstInt(raw.BestTry, raw.BestTryCamel),
		CorrectAnswers:   firstInt(raw.CorrectAnswers),
		IncorrectAnswers: firstInt(raw.IncorrectAnswers),
	}
	return nil
}

// firstInt returns the first non-nil value, or 0.
func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

// errorBody is the failure payload shape: {"error": "..."}.
type errorBody struct {
	Error string `json:"error"`
}
