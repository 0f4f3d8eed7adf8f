// internal/profile/profile.go
//
// Player profile: identity plus lifetime statistics, persisted across runs.
//
// Persistence contract:
//   - The whole Profile is one flat JSON blob under StorageKey.
//   - Load reads it once at start-up; a missing or undecodable blob yields defaults.
//   - Every mutation is read-modify-persist under one lock. If the write fails
//     the in-memory change is rolled back, so memory never runs ahead of storage.
//
// The backend is authoritative for best try and the totals: the store only
// echoes values it is handed and never compares them locally.

package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/globetrotter/internal/api"
	"github.com/robalobadob/globetrotter/internal/storage"
)

// StorageKey is the well-known key the profile blob lives under.
const StorageKey = "globetrotter-storage"

// ErrNegativeCount is returned when a count would be set below zero.
var ErrNegativeCount = errors.New("profile: negative count")

// Profile is the persisted player record.
type Profile struct {
	Username         string `json:"username"`         // "" until set
	BestTry          int    `json:"bestTry"`          // 0 = no win recorded
	Tries            int    `json:"tries"`            // attempts in the current round
	CorrectAnswers   int    `json:"correctAnswers"`   // lifetime, backend-reported
	IncorrectAnswers int    `json:"incorrectAnswers"` // lifetime, backend-reported
}

// HasUsername reports whether an identity has been set.
func (p Profile) HasUsername() bool { return p.Username != "" }

// Registrar creates or retrieves a backend player record.
// *api.Client satisfies it.
type Registrar interface {
	CreateUser(ctx context.Context, username string) (api.User, error)
}

// Store owns the single process-wide Profile.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	p       Profile
	onSave  func(Profile)
}

// Load reads the profile from st. It never fails: a missing key, a storage
// error, or an incompatible blob all fall back to defaults.
func Load(ctx context.Context, st storage.Storage) *Store {
	s := &Store{storage: st}
	blob, err := st.Load(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Debug().Msg("no stored profile, using defaults")
	case err != nil:
		log.Warn().Err(err).Msg("load profile, using defaults")
	default:
		var p Profile
		if err := json.Unmarshal(blob, &p); err != nil {
			log.Warn().Err(err).Msg("stored profile unreadable, using defaults")
		} else if p.BestTry < 0 || p.Tries < 0 || p.CorrectAnswers < 0 || p.IncorrectAnswers < 0 {
			log.Warn().Msg("stored profile has negative counters, using defaults")
		} else {
			s.p = p
		}
	}
	return s
}

// OnSave registers fn to run (outside the lock) after every successful persist.
func (s *Store) OnSave(fn func(Profile)) {
	s.mu.Lock()
	s.onSave = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the current profile.
func (s *Store) Snapshot() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

// Username returns the current username ("" when unset).
func (s *Store) Username() string {
	return s.Snapshot().Username
}

// ---------------------------------------------------------------------------
// identity

// SetUsername registers name with the backend and adopts the returned record
// (username, best try, totals). Blank names are ignored. If the backend call
// fails the profile is left untouched and the error is returned.
func (s *Store) SetUsername(ctx context.Context, reg Registrar, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	u, err := reg.CreateUser(ctx, name)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	log.Info().Str("username", u.Username).Int("best_try", u.BestTry).Msg("username set")
	return s.mutate(ctx, func(p *Profile) error {
		p.Username = u.Username
		p.BestTry = u.BestTry
		p.CorrectAnswers = u.CorrectAnswers
		p.IncorrectAnswers = u.IncorrectAnswers
		return nil
	})
}

// Refresh re-registers an already-set username and adopts the backend's
// best try. It is a no-op without a username; failures are only logged.
func (s *Store) Refresh(ctx context.Context, reg Registrar) {
	name := s.Username()
	if name == "" {
		return
	}
	u, err := reg.CreateUser(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("username", name).Msg("refresh profile")
		return
	}
	err = s.mutate(ctx, func(p *Profile) error {
		if p.Username != name {
			return nil // changed while we were waiting
		}
		p.BestTry = u.BestTry
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("username", name).Msg("persist refreshed profile")
	}
}

// ---------------------------------------------------------------------------
// statistics

// RecordBestTry overwrites the best try with n, unconditionally.
func (s *Store) RecordBestTry(ctx context.Context, n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	return s.mutate(ctx, func(p *Profile) error {
		p.BestTry = n
		return nil
	})
}

// RecordTotals overwrites whichever totals are non-nil.
func (s *Store) RecordTotals(ctx context.Context, correct, incorrect *int) error {
	if correct == nil && incorrect == nil {
		return nil
	}
	if (correct != nil && *correct < 0) || (incorrect != nil && *incorrect < 0) {
		return ErrNegativeCount
	}
	return s.mutate(ctx, func(p *Profile) error {
		if correct != nil {
			p.CorrectAnswers = *correct
		}
		if incorrect != nil {
			p.IncorrectAnswers = *incorrect
		}
		return nil
	})
}

// IncrementTries bumps the round-scoped attempt counter.
func (s *Store) IncrementTries(ctx context.Context) error {
	return s.mutate(ctx, func(p *Profile) error {
		p.Tries++
		return nil
	})
}

// ResetTries zeroes the round-scoped attempt counter. Best try and the
// lifetime totals are untouched.
func (s *Store) ResetTries(ctx context.Context) error {
	return s.mutate(ctx, func(p *Profile) error {
		p.Tries = 0
		return nil
	})
}

// ---------------------------------------------------------------------------
// persistence

// mutate applies fn and persists the result as one step.
func (s *Store) mutate(ctx context.Context, fn func(p *Profile) error) error {
	s.mu.Lock()
	next := s.p
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	blob, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.storage.Save(ctx, StorageKey, blob); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist profile: %w", err)
	}
	s.p = next
	onSave := s.onSave
	s.mu.Unlock()

	if onSave != nil {
		onSave(next)
	}
	return nil
}
