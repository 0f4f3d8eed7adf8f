package profile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/robalobadob/globetrotter/internal/api"
	"github.com/robalobadob/globetrotter/internal/storage"
)

type fakeRegistrar struct {
	user  api.User
	err   error
	calls []string
}

func (f *fakeRegistrar) CreateUser(ctx context.Context, username string) (api.User, error) {
	f.calls = append(f.calls, username)
	if f.err != nil {
		return api.User{}, f.err
	}
	u := f.user
	if u.Username == "" {
		u.Username = username
	}
	return u, nil
}

// flakyStorage fails every Save while fail is set.
type flakyStorage struct {
	*storage.Memory
	fail bool
}

func (f *flakyStorage) Save(ctx context.Context, key string, blob []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.Save(ctx, key, blob)
}

func intp(n int) *int { return &n }

func stored(t *testing.T, st storage.Storage) Profile {
	t.Helper()
	blob, err := st.Load(context.Background(), StorageKey)
	if err != nil {
		t.Fatalf("load stored profile: %v", err)
	}
	var p Profile
	if err := json.Unmarshal(blob, &p); err != nil {
		t.Fatalf("decode stored profile: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	s := Load(context.Background(), storage.NewMemory())
	if got := s.Snapshot(); got != (Profile{}) {
		t.Errorf("Snapshot %+v, want zero profile", got)
	}
	if s.Snapshot().HasUsername() {
		t.Error("default profile should have no username")
	}
}

func TestLoad_Existing(t *testing.T) {
	st := storage.NewMemory()
	_ = st.Save(context.Background(), StorageKey,
		[]byte(`{"username":"ann","bestTry":2,"tries":1,"correctAnswers":7,"incorrectAnswers":3}`))

	got := Load(context.Background(), st).Snapshot()
	want := Profile{Username: "ann", BestTry: 2, Tries: 1, CorrectAnswers: 7, IncorrectAnswers: 3}
	if got != want {
		t.Errorf("Snapshot %+v, want %+v", got, want)
	}
}

func TestLoad_IncompatibleShapeFallsBackToDefaults(t *testing.T) {
	for _, blob := range []string{
		`not json`,
		`{"username":42}`,
		`{"bestTry":-1}`,
		`["a","b"]`,
	} {
		st := storage.NewMemory()
		_ = st.Save(context.Background(), StorageKey, []byte(blob))
		if got := Load(context.Background(), st).Snapshot(); got != (Profile{}) {
			t.Errorf("blob %s: Snapshot %+v, want defaults", blob, got)
		}
	}
}

func TestLoad_NullUsername(t *testing.T) {
	st := storage.NewMemory()
	_ = st.Save(context.Background(), StorageKey, []byte(`{"username":null,"bestTry":3}`))
	got := Load(context.Background(), st).Snapshot()
	if got.Username != "" || got.BestTry != 3 {
		t.Errorf("Snapshot %+v, want empty username and best 3", got)
	}
}

func TestSetUsername_OverwritesStaleValues(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	_ = st.Save(ctx, StorageKey, []byte(`{"username":"old","bestTry":5,"tries":2,"correctAnswers":9,"incorrectAnswers":9}`))
	s := Load(ctx, st)
	reg := &fakeRegistrar{user: api.User{ID: 1, Username: "bob"}}

	if err := s.SetUsername(ctx, reg, "  bob "); err != nil {
		t.Fatalf("SetUsername: %v", err)
	}
	if len(reg.calls) != 1 || reg.calls[0] != "bob" {
		t.Errorf("registrar calls %v, want [bob]", reg.calls)
	}
	want := Profile{Username: "bob", BestTry: 0, Tries: 2, CorrectAnswers: 0, IncorrectAnswers: 0}
	if got := s.Snapshot(); got != want {
		t.Errorf("Snapshot %+v, want %+v", got, want)
	}
	if got := stored(t, st); got != want {
		t.Errorf("stored %+v, want %+v", got, want)
	}
}

func TestSetUsername_BlankIsSkipped(t *testing.T) {
	s := Load(context.Background(), storage.NewMemory())
	reg := &fakeRegistrar{}
	if err := s.SetUsername(context.Background(), reg, "   "); err != nil {
		t.Fatalf("SetUsername blank: %v", err)
	}
	if len(reg.calls) != 0 {
		t.Error("blank username should not reach the backend")
	}
}

func TestSetUsername_BackendFailureLeavesProfile(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	s := Load(ctx, st)
	_ = s.RecordBestTry(ctx, 4)
	before := s.Snapshot()

	err := s.SetUsername(ctx, &fakeRegistrar{err: errors.New("down")}, "bob")
	if err == nil {
		t.Fatal("SetUsername should surface backend failure")
	}
	if got := s.Snapshot(); got != before {
		t.Errorf("Snapshot %+v, want unchanged %+v", got, before)
	}
}

func TestRecordBestTry_Unconditional(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, storage.NewMemory())
	_ = s.RecordBestTry(ctx, 5)
	if err := s.RecordBestTry(ctx, 3); err != nil {
		t.Fatalf("RecordBestTry: %v", err)
	}
	if got := s.Snapshot().BestTry; got != 3 {
		t.Errorf("BestTry %d, want 3", got)
	}
	if err := s.RecordBestTry(ctx, 8); err != nil {
		t.Fatalf("RecordBestTry: %v", err)
	}
	if got := s.Snapshot().BestTry; got != 8 {
		t.Errorf("BestTry %d, want 8 (no local guard)", got)
	}
	if err := s.RecordBestTry(ctx, -1); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("negative best try err %v, want ErrNegativeCount", err)
	}
}

func TestRecordTotals_Partial(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, storage.NewMemory())
	_ = s.RecordTotals(ctx, intp(2), intp(3))

	if err := s.RecordTotals(ctx, nil, intp(4)); err != nil {
		t.Fatalf("RecordTotals: %v", err)
	}
	p := s.Snapshot()
	if p.CorrectAnswers != 2 || p.IncorrectAnswers != 4 {
		t.Errorf("totals %d/%d, want 2/4", p.CorrectAnswers, p.IncorrectAnswers)
	}

	if err := s.RecordTotals(ctx, intp(6), nil); err != nil {
		t.Fatalf("RecordTotals: %v", err)
	}
	p = s.Snapshot()
	if p.CorrectAnswers != 6 || p.IncorrectAnswers != 4 {
		t.Errorf("totals %d/%d, want 6/4", p.CorrectAnswers, p.IncorrectAnswers)
	}
}

func TestTries_ResetKeepsStats(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, storage.NewMemory())
	_ = s.RecordBestTry(ctx, 2)
	_ = s.RecordTotals(ctx, intp(1), intp(1))
	_ = s.IncrementTries(ctx)
	_ = s.IncrementTries(ctx)
	if got := s.Snapshot().Tries; got != 2 {
		t.Fatalf("Tries %d, want 2", got)
	}
	if err := s.ResetTries(ctx); err != nil {
		t.Fatalf("ResetTries: %v", err)
	}
	want := Profile{BestTry: 2, CorrectAnswers: 1, IncorrectAnswers: 1}
	if got := s.Snapshot(); got != want {
		t.Errorf("Snapshot %+v, want %+v", got, want)
	}
}

func TestMutate_RollsBackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	st := &flakyStorage{Memory: storage.NewMemory()}
	s := Load(ctx, st)
	_ = s.RecordBestTry(ctx, 2)

	st.fail = true
	if err := s.RecordBestTry(ctx, 1); err == nil {
		t.Fatal("RecordBestTry should fail when storage fails")
	}
	if got := s.Snapshot().BestTry; got != 2 {
		t.Errorf("BestTry %d, want 2 after rollback", got)
	}
	if got := stored(t, st).BestTry; got != 2 {
		t.Errorf("stored BestTry %d, want 2", got)
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, storage.NewMemory())
	reg := &fakeRegistrar{user: api.User{BestTry: 3}}

	s.Refresh(ctx, reg)
	if len(reg.calls) != 0 {
		t.Error("Refresh without username should not call the backend")
	}

	_ = s.SetUsername(ctx, &fakeRegistrar{}, "ann")
	s.Refresh(ctx, reg)
	if got := s.Snapshot().BestTry; got != 3 {
		t.Errorf("BestTry %d, want 3 after refresh", got)
	}

	s.Refresh(ctx, &fakeRegistrar{err: errors.New("down")})
	if got := s.Snapshot().BestTry; got != 3 {
		t.Errorf("BestTry %d, want 3 after failed refresh", got)
	}
}

func TestOnSave(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, storage.NewMemory())
	var seen []Profile
	s.OnSave(func(p Profile) { seen = append(seen, p) })

	_ = s.IncrementTries(ctx)
	if len(seen) != 1 || seen[0].Tries != 1 {
		t.Errorf("OnSave saw %+v, want one profile with Tries=1", seen)
	}
}
