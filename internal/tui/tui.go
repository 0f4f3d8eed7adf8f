// internal/tui/tui.go
//
// Line-oriented terminal front end for the round controller.
// A plain line is a guess; lines starting with "/" are commands.
// After every action the screen is re-rendered from fresh snapshots.

package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/globetrotter/internal/challenge"
	"github.com/robalobadob/globetrotter/internal/profile"
	"github.com/robalobadob/globetrotter/internal/round"
)

// Deps are the collaborators the terminal client drives.
type Deps struct {
	Round     *round.Controller
	Profile   *profile.Store
	Registrar profile.Registrar
	Challenge *challenge.Service
}

// UI reads commands from in and writes screens to out.
type UI struct {
	d    Deps
	in   io.Reader
	out  io.Writer
	copy func(string) error
}

// New builds a UI. The system clipboard receives challenge links.
func New(d Deps, in io.Reader, out io.Writer) *UI {
	return &UI{d: d, in: in, out: out, copy: clipboard.WriteAll}
}

// Run starts the first round and processes lines until /quit, EOF or ctx
// is done.
func (u *UI) Run(ctx context.Context) error {
	u.report(u.d.Round.Start(ctx))
	u.render()

	sc := bufio.NewScanner(u.in)
	for {
		fmt.Fprint(u.out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := u.Handle(ctx, sc.Text()); quit {
			return nil
		}
	}
}

// Handle processes one input line and reports whether to quit.
func (u *UI) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		u.report(u.d.Round.Submit(ctx, line))
		u.render()
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "/quit", "/exit":
		fmt.Fprintln(u.out, "Bye!")
		return true
	case "/help":
		fmt.Fprintln(u.out, Help)
		return false
	case "/stats":
		fmt.Fprintln(u.out, renderStats(u.d.Profile.Snapshot()))
		return false
	case "/giveup":
		u.report(u.d.Round.GiveUp(ctx))
	case "/next":
		u.report(u.d.Round.Next(ctx))
	case "/retry":
		u.report(u.d.Round.Retry(ctx))
	case "/name":
		u.setName(ctx, arg)
	case "/challenge":
		u.invite(ctx)
		return false
	default:
		fmt.Fprintf(u.out, "Unknown command %s. Type /help.\n", cmd)
		return false
	}
	u.render()
	return false
}

func (u *UI) setName(ctx context.Context, name string) {
	if name == "" {
		fmt.Fprintln(u.out, "Usage: /name <username>")
		return
	}
	if err := u.d.Profile.SetUsername(ctx, u.d.Registrar, name); err != nil {
		log.Warn().Err(err).Msg("set username")
		fmt.Fprintln(u.out, "Could not set username. Please try again.")
		return
	}
	fmt.Fprintf(u.out, "You are now playing as %s.\n", u.d.Profile.Username())
}

func (u *UI) invite(ctx context.Context) {
	inv, err := u.d.Challenge.Create(ctx, u.d.Profile.Username())
	switch {
	case errors.Is(err, challenge.ErrNoUsername):
		fmt.Fprintln(u.out, "Set a username first with /name <username>.")
		return
	case err != nil:
		log.Warn().Err(err).Msg("create challenge")
		fmt.Fprintln(u.out, "Failed to create challenge. Please try again.")
		return
	}

	fmt.Fprintln(u.out, bold(clrTitle).Render("Challenge a friend"))
	fmt.Fprintln(u.out, "Link: "+inv.Link)
	if err := u.copy(inv.Link); err != nil {
		// atotto needs xclip/xsel (or wl-clipboard) on Linux.
		log.Debug().Err(err).Msg("clipboard copy")
		fmt.Fprintln(u.out, fg(clrSubtle).Render("Couldn't copy to clipboard, copy the link above."))
	} else {
		fmt.Fprintln(u.out, fg(clrGreen).Render("Link copied to clipboard."))
	}
	fmt.Fprintln(u.out, "WhatsApp: "+inv.WhatsAppURL)
	fmt.Fprintln(u.out)
	fmt.Fprintln(u.out, inv.ShareText)
}

// report prints a one-line note for errors the snapshot does not show.
func (u *UI) report(err error) {
	switch {
	case err == nil, errors.Is(err, round.ErrStale):
	case errors.Is(err, round.ErrBusy):
		fmt.Fprintln(u.out, "Still checking your last answer…")
	case errors.Is(err, round.ErrNotActive):
		fmt.Fprintln(u.out, "No round in play. Type /next for a new destination.")
	case errors.Is(err, round.ErrInvalidTransition):
		fmt.Fprintln(u.out, "That doesn't apply right now.")
	default:
		log.Debug().Err(err).Msg("round action")
	}
}

func (u *UI) render() {
	fmt.Fprintln(u.out, Render(u.d.Round.Snapshot(), u.d.Profile.Snapshot()))
}
