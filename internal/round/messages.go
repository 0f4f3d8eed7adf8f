package round

import (
	"fmt"
	"unicode/utf8"
)

// User-facing text.
const (
	MsgLoadFailed   = "Failed to load destination. Please try again."
	MsgSubmitFailed = "Failed to submit answer. Please try again."
	MsgNoFunFacts   = "No fun facts available for this destination."
	MsgNoDetails    = "Unable to load additional details for this destination."
	HintRegion      = "Hint: Try thinking about the continent or region mentioned in the clues."

	TitleCorrect = "Correct!"
	TitleGaveUp  = "Better luck next time!"
)

// HintFirstLetter reveals the first character of name.
func HintFirstLetter(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return HintRegion
	}
	return fmt.Sprintf("Hint: The first letter is %q", string(r))
}

// hintFor returns the hint to show after the n-th incorrect guess, or ""
// when n does not introduce a new hint.
func hintFor(n int, name string) string {
	switch n {
	case 3:
		return HintRegion
	case 5:
		return HintFirstLetter(name)
	}
	return ""
}

// WinMessage describes a win in tries attempts against the stored best.
// A stored best of 0 means no win has been recorded yet.
func WinMessage(tries, best int) string {
	msg := fmt.Sprintf("You got it in %d tries!", tries)
	if tries == 1 {
		msg = "Amazing! You got it on your first try!"
	}
	switch {
	case best > 0 && best == tries:
		msg += " That's your best score!"
	case best > 0 && best < tries:
		msg += fmt.Sprintf(" Your best is %d %s.", best, Plural(best, "try", "tries"))
	}
	return msg
}

// Plural picks one or many by n.
func Plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
