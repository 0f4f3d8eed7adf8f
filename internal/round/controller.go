// internal/round/controller.go
//
// Round controller: drives one quiz round from destination load to reveal.
// Responsibilities:
//   - Load a destination and reset round state (Start / Next / Retry).
//   - Count attempts, forward guesses to the backend, record misses and hints.
//   - Reveal the answer on give-up with a randomly chosen fun fact.
//   - Echo backend-reported best try and totals into the player profile.
//
// Concurrency:
//   - State is guarded by mu, which is never held across a backend call.
//   - Profile writes that belong to a round (tries, best try, totals) happen
//     under mu after the sequence check, so a restart cannot slip between
//     the check and the write. Lock order is mu, then the profile's own lock.
//   - Every in-flight call carries the round sequence number it was issued
//     under; a reply for a superseded round is dropped (ErrStale).
//   - At most one submission or give-up is in flight per round (ErrBusy).

package round

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/globetrotter/internal/api"
	"github.com/robalobadob/globetrotter/internal/profile"
)

// ShakeDuration is how long the miss signal stays up after an incorrect guess.
const ShakeDuration = 500 * time.Millisecond

var (
	ErrNotActive         = errors.New("round: not active")
	ErrBusy              = errors.New("round: request already in flight")
	ErrStale             = errors.New("round: superseded by a newer round")
	ErrInvalidTransition = errors.New("round: invalid transition")
)

// Backend is the slice of the backend API the controller needs.
// *api.Client satisfies it.
type Backend interface {
	RandomDestination(ctx context.Context) (api.Destination, error)
	Destination(ctx context.Context, id int) (api.Destination, error)
	CheckAnswer(ctx context.Context, req api.CheckAnswerRequest) (api.AnswerResult, error)
}

// Profile is the slice of the player profile the controller needs.
// *profile.Store satisfies it.
type Profile interface {
	Snapshot() profile.Profile
	RecordBestTry(ctx context.Context, n int) error
	RecordTotals(ctx context.Context, correct, incorrect *int) error
	IncrementTries(ctx context.Context) error
	ResetTries(ctx context.Context) error
}

// Notifier receives a snapshot after every state change.
type Notifier interface {
	Publish(event string, payload any)
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier publishes "round" events to n.
func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notifier = n } }

// WithPicker replaces the uniform fun-fact chooser. pick(n) must return [0, n).
func WithPicker(pick func(n int) int) Option { return func(c *Controller) { c.pick = pick } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// Controller owns the single live round.
type Controller struct {
	backend  Backend
	profile  Profile
	notifier Notifier
	pick     func(n int) int
	now      func() time.Time

	mu          sync.Mutex
	seq         uint64 // bumped on every Start
	state       State
	destination *api.Destination
	attempts    int
	guesses     []string
	hint        string
	result      *Result
	pending     bool
	errMsg      string
	shakeUntil  time.Time
}

// NewController builds a controller in the loading state. Call Start to
// fetch the first destination.
func NewController(backend Backend, prof Profile, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		profile: prof,
		pick:    rand.IntN,
		now:     time.Now,
		state:   StateLoading,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ---------------------------------------------------------------------------
// transitions

// Start abandons whatever round is live and loads a new one. Replies still
// in flight for the abandoned round are discarded.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	return c.startLocked(ctx)
}

// Next starts the following round. The current round must be terminal.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.Terminal() {
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("next from %s: %w", st, ErrInvalidTransition)
	}
	return c.startLocked(ctx)
}

// Retry reloads after a failed destination fetch. The round must be errored.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateErrored {
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("retry from %s: %w", st, ErrInvalidTransition)
	}
	return c.startLocked(ctx)
}

// startLocked resets the round and fetches a destination. Called with mu
// held; releases it.
func (c *Controller) startLocked(ctx context.Context) error {
	c.seq++
	seq := c.seq
	c.state = StateLoading
	c.destination = nil
	c.attempts = 0
	c.guesses = nil
	c.hint = ""
	c.result = nil
	c.pending = false
	c.errMsg = ""
	c.shakeUntil = time.Time{}
	if err := c.profile.ResetTries(ctx); err != nil {
		log.Warn().Err(err).Uint64("round", seq).Msg("reset tries")
	}
	c.mu.Unlock()

	log.Debug().Uint64("round", seq).Msg("round loading")
	c.notify()

	d, err := c.backend.RandomDestination(ctx)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		log.Debug().Uint64("round", seq).Msg("discarding destination for abandoned round")
		return ErrStale
	}
	if err != nil {
		c.state = StateErrored
		c.errMsg = MsgLoadFailed
		c.mu.Unlock()
		log.Warn().Err(err).Uint64("round", seq).Msg("load destination")
		c.notify()
		return fmt.Errorf("load destination: %w", err)
	}
	c.destination = &d
	c.state = StateActive
	c.mu.Unlock()

	log.Debug().Uint64("round", seq).Int("destination", d.ID).Msg("round active")
	c.notify()
	return nil
}

// ---------------------------------------------------------------------------
// guesses

// Submit sends guess to the backend. Blank guesses are ignored. The attempt
// count is incremented before the call and is not rolled back if the call
// fails; the round then stays active so the guess can be resubmitted.
func (c *Controller) Submit(ctx context.Context, guess string) error {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return nil
	}

	c.mu.Lock()
	if c.state != StateActive || c.destination == nil {
		c.mu.Unlock()
		return ErrNotActive
	}
	if c.pending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.pending = true
	c.attempts++
	seq, attempt, dest := c.seq, c.attempts, *c.destination
	if err := c.profile.IncrementTries(ctx); err != nil {
		log.Warn().Err(err).Msg("increment tries")
	}
	c.mu.Unlock()

	username := c.profile.Snapshot().Username

	res, err := c.backend.CheckAnswer(ctx, api.CheckAnswerRequest{
		DestinationID: dest.ID,
		Answer:        guess,
		Username:      username,
		Tries:         attempt,
	})

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		log.Debug().Uint64("round", seq).Msg("discarding answer for abandoned round")
		return ErrStale
	}
	c.pending = false
	if err != nil {
		c.errMsg = MsgSubmitFailed
		c.mu.Unlock()
		log.Warn().Err(err).Uint64("round", seq).Int("attempt", attempt).Msg("submit guess")
		c.notify()
		return fmt.Errorf("submit guess: %w", err)
	}
	c.errMsg = ""

	if res.Correct {
		c.state = StateCorrect
		c.result = &Result{
			Correct: true,
			Title:   TitleCorrect,
			Answer:  res.CorrectAnswer,
			FunFact: res.FunFact,
		}
		if res.BestTry != nil && *res.BestTry > 0 {
			if err := c.profile.RecordBestTry(ctx, *res.BestTry); err != nil {
				log.Warn().Err(err).Msg("record best try")
			}
		}
		if err := c.profile.RecordTotals(ctx, res.CorrectAnswers, nil); err != nil {
			log.Warn().Err(err).Msg("record correct total")
		}
		c.mu.Unlock()

		log.Info().Uint64("round", seq).Int("attempt", attempt).Str("username", username).Msg("correct guess")
		c.notify()
		return nil
	}

	c.guesses = append(c.guesses, guess)
	if h := hintFor(len(c.guesses), dest.Name); h != "" {
		c.hint = h
	}
	c.shakeUntil = c.now().Add(ShakeDuration)
	if err := c.profile.RecordTotals(ctx, nil, res.IncorrectAnswers); err != nil {
		log.Warn().Err(err).Msg("record incorrect total")
	}
	c.mu.Unlock()

	log.Debug().Uint64("round", seq).Int("attempt", attempt).Msg("incorrect guess")
	c.notify()
	return nil
}

// GiveUp ends the round and reveals the answer. Detail fetch failures fall
// back to the already-loaded name with a placeholder fact. With a username
// set, the give-up is then reported to the backend on a best-effort basis.
// Best try is never touched.
func (c *Controller) GiveUp(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateActive || c.destination == nil {
		c.mu.Unlock()
		return ErrNotActive
	}
	if c.pending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.pending = true
	seq, attempt, dest := c.seq, c.attempts, *c.destination
	c.mu.Unlock()

	result := Result{GaveUp: true, Title: TitleGaveUp, Answer: dest.Name}
	detail, err := c.backend.Destination(ctx, dest.ID)
	switch {
	case err != nil:
		log.Warn().Err(err).Int("destination", dest.ID).Msg("destination detail")
		result.FunFact = MsgNoDetails
	default:
		if detail.Name != "" {
			result.Answer = detail.Name
		}
		result.FunFact = c.pickFact(detail.FunFacts)
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		log.Debug().Uint64("round", seq).Msg("discarding give-up for abandoned round")
		return ErrStale
	}
	c.pending = false
	c.errMsg = ""
	c.state = StateRevealed
	c.result = &result
	c.mu.Unlock()
	c.notify()

	username := c.profile.Snapshot().Username
	if username == "" {
		return nil
	}
	res, err := c.backend.CheckAnswer(ctx, api.CheckAnswerRequest{
		DestinationID: dest.ID,
		Answer:        result.Answer,
		Username:      username,
		GaveUp:        true,
		Tries:         attempt,
	})
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("report give-up")
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Debug().Uint64("round", seq).Msg("discarding give-up report for abandoned round")
		return nil
	}
	if err := c.profile.RecordTotals(ctx, res.CorrectAnswers, res.IncorrectAnswers); err != nil {
		log.Warn().Err(err).Msg("record totals after give-up")
	}
	return nil
}

// pickFact chooses one fact uniformly, or the placeholder when none exist.
func (c *Controller) pickFact(facts []string) string {
	if len(facts) == 0 {
		return MsgNoFunFacts
	}
	i := c.pick(len(facts))
	if i < 0 || i >= len(facts) {
		i = 0
	}
	return facts[i]
}

// ---------------------------------------------------------------------------
// views

// Snapshot returns a render-ready copy of the round.
func (c *Controller) Snapshot() Snapshot {
	best := c.profile.Snapshot().BestTry

	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Seq:          c.seq,
		State:        c.state,
		Clues:        []string{},
		AttemptCount: c.attempts,
		Guesses:      append([]string{}, c.guesses...),
		Hint:         c.hint,
		Shake:        c.now().Before(c.shakeUntil),
		Pending:      c.pending,
		Error:        c.errMsg,
	}
	if c.destination != nil {
		s.DestinationID = c.destination.ID
		s.Clues = append(s.Clues, c.destination.Clues...)
	}
	if c.result != nil {
		r := *c.result
		if r.Correct {
			r.Message = WinMessage(c.attempts, best)
		}
		s.Result = &r
	}
	return s
}

func (c *Controller) notify() {
	if c.notifier == nil {
		return
	}
	c.notifier.Publish("round", c.Snapshot())
}
