package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/globetrotter/internal/profile"
	"github.com/robalobadob/globetrotter/internal/round"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	clrBorder = lipgloss.Color("#30363d")
	clrSubtle = lipgloss.Color("#8b949e")
	clrGold   = lipgloss.Color("#e3b341")
	clrGreen  = lipgloss.Color("#3fb950")
	clrRed    = lipgloss.Color("#f85149")
	clrYellow = lipgloss.Color("#f0c862")
	clrWhite  = lipgloss.Color("#e6edf3")
	clrTitle  = lipgloss.Color("#58a6ff")
)

const viewWidth = 64

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}
func bold(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

// box wraps content in a rounded border.
func box(content string, borderClr lipgloss.Color) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderClr).
		Width(viewWidth).
		Padding(0, 1).
		Render(content)
}

// ─── Screen ──────────────────────────────────────────────────────────────────

// Render draws the round and the player's stats.
func Render(s round.Snapshot, p profile.Profile) string {
	parts := []string{renderHeader(p)}

	switch s.State {
	case round.StateLoading:
		parts = append(parts, fg(clrSubtle).Render("Loading destination…"))
	case round.StateErrored:
		parts = append(parts, box(fg(clrRed).Render(s.Error)+"\n"+fg(clrSubtle).Render("Type /retry to try again."), clrRed))
	default:
		parts = append(parts, renderClues(s))
		if body := renderProgress(s); body != "" {
			parts = append(parts, body)
		}
		if s.Result != nil {
			parts = append(parts, renderResult(*s.Result))
		}
	}

	parts = append(parts, renderStats(p), fg(clrSubtle).Render(footer(s.State)))
	return strings.Join(parts, "\n")
}

func renderHeader(p profile.Profile) string {
	title := bold(clrTitle).Render("🌍 Globetrotter")
	who := fg(clrSubtle).Render("playing as guest")
	if p.HasUsername() {
		who = fg(clrWhite).Render("playing as " + p.Username)
	}
	line := title + "  " + who
	if p.BestTry > 0 {
		line += "  " + bold(clrGold).Render(fmt.Sprintf("🏆 Best: %d %s", p.BestTry, round.Plural(p.BestTry, "try", "tries")))
	}
	return line
}

func renderClues(s round.Snapshot) string {
	var b strings.Builder
	b.WriteString(bold(clrWhite).Render("Where am I?"))
	for i, c := range s.Clues {
		fmt.Fprintf(&b, "\n%s %s", fg(clrGold).Render(fmt.Sprintf("%d.", i+1)), c)
	}
	return box(b.String(), clrBorder)
}

func renderProgress(s round.Snapshot) string {
	var lines []string
	if len(s.Guesses) > 0 {
		lines = append(lines, fg(clrSubtle).Render("Previous guesses: ")+fg(clrRed).Render(strings.Join(s.Guesses, ", ")))
	}
	if s.Shake {
		lines = append(lines, bold(clrRed).Render("✗ Not quite!"))
	}
	if s.Hint != "" {
		lines = append(lines, fg(clrYellow).Render("💡 "+s.Hint))
	}
	if s.Pending {
		lines = append(lines, fg(clrSubtle).Render("Checking…"))
	}
	if s.Error != "" {
		lines = append(lines, fg(clrRed).Render(s.Error))
	}
	if s.State == round.StateActive {
		lines = append(lines, fg(clrSubtle).Render(fmt.Sprintf("Attempts: %d", s.AttemptCount)))
	}
	return strings.Join(lines, "\n")
}

func renderResult(r round.Result) string {
	clr := clrGreen
	if !r.Correct {
		clr = clrRed
	}
	lines := []string{bold(clr).Render(r.Title)}
	if r.Correct && r.Message != "" {
		lines = append(lines, r.Message)
	}
	if r.Answer != "" {
		lines = append(lines, "The answer is: "+bold(clrWhite).Render(r.Answer))
	}
	if r.FunFact != "" {
		lines = append(lines, "", fg(clrGold).Render("Fun fact: ")+r.FunFact)
	}
	return box(strings.Join(lines, "\n"), clr)
}

func renderStats(p profile.Profile) string {
	return fmt.Sprintf("%s %d   %s %d",
		fg(clrGreen).Render("✓ Correct:"), p.CorrectAnswers,
		fg(clrRed).Render("✗ Incorrect:"), p.IncorrectAnswers)
}

func footer(st round.State) string {
	switch st {
	case round.StateActive:
		return "Type a guess, /giveup, or /help."
	case round.StateCorrect, round.StateRevealed:
		return "Type /next for a new destination, /challenge to invite a friend."
	case round.StateErrored:
		return "Type /retry, or /quit."
	}
	return ""
}

// Help lists the commands.
const Help = `Commands:
  <guess>           submit a guess
  /giveup           reveal the answer
  /next             next destination (after a round ends)
  /retry            reload after an error
  /name <username>  set your username
  /challenge        invite a friend (link copied to clipboard)
  /stats            show your statistics
  /help             show this help
  /quit             exit`
