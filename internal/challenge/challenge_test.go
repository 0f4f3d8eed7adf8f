package challenge

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/globetrotter/internal/api"
)

type fakeUsers struct {
	best      map[string]int
	createErr error
	created   []string
}

func (f *fakeUsers) CreateUser(ctx context.Context, username string) (api.User, error) {
	f.created = append(f.created, username)
	if f.createErr != nil {
		return api.User{}, f.createErr
	}
	return api.User{Username: username, BestTry: f.best[username]}, nil
}

func (f *fakeUsers) GetUser(ctx context.Context, username string) (api.User, error) {
	b, ok := f.best[username]
	if !ok {
		return api.User{}, &api.Error{Op: "get user", Status: 404, Message: "User not found"}
	}
	return api.User{Username: username, BestTry: b}, nil
}

func newService(t *testing.T, users Users) *Service {
	t.Helper()
	s, err := New(users, Config{
		PublicURL: "https://globe.example/",
		CloudName: "demo",
		Secret:    "test-secret",
		TTL:       time.Hour,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestCreate_NoUsername(t *testing.T) {
	users := &fakeUsers{}
	s := newService(t, users)
	if _, err := s.Create(context.Background(), "  "); !errors.Is(err, ErrNoUsername) {
		t.Errorf("err %v, want ErrNoUsername", err)
	}
	if len(users.created) != 0 {
		t.Error("backend should not be called without a username")
	}
}

func TestCreate_BackendFailure(t *testing.T) {
	s := newService(t, &fakeUsers{createErr: errors.New("down")})
	if _, err := s.Create(context.Background(), "ann"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCreateAndAccept(t *testing.T) {
	ctx := context.Background()
	users := &fakeUsers{best: map[string]int{"ann marie": 3}}
	s := newService(t, users)

	inv, err := s.Create(ctx, "ann marie")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(users.created) != 1 || users.created[0] != "ann marie" {
		t.Errorf("created %v", users.created)
	}
	if inv.BestTry != 3 {
		t.Errorf("BestTry %d, want 3", inv.BestTry)
	}
	if !strings.HasPrefix(inv.Link, "https://globe.example/challenge?") {
		t.Fatalf("Link %q", inv.Link)
	}
	u, err := url.Parse(inv.Link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if got := u.Query().Get("username"); got != "ann marie" {
		t.Errorf("link username %q", got)
	}
	if got := u.Query().Get("token"); got != inv.Token {
		t.Errorf("link token mismatch")
	}
	if !strings.Contains(inv.ShareText, "fewer than 3 tries?") || !strings.HasSuffix(inv.ShareText, "Play here: "+inv.Link) {
		t.Errorf("ShareText %q", inv.ShareText)
	}
	if !strings.HasPrefix(inv.WhatsAppURL, "https://wa.me/?text=I%20challenge%20you") {
		t.Errorf("WhatsAppURL %q", inv.WhatsAppURL)
	}

	users.best["ann marie"] = 2
	c, err := s.Accept(ctx, "ann marie", inv.Token)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if c.Username != "ann marie" || c.BestTry != 2 {
		t.Errorf("Challenger %+v, want current backend best 2", c)
	}
}

func TestAccept_Rejects(t *testing.T) {
	ctx := context.Background()
	users := &fakeUsers{best: map[string]int{"ann": 1}}
	s := newService(t, users)
	inv, err := s.Create(ctx, "ann")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Accept(ctx, "bob", inv.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("mismatched username: err %v", err)
	}
	if _, err := s.Accept(ctx, "ann", inv.Token+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token: err %v", err)
	}
	if _, err := s.Accept(ctx, "ann", "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err %v", err)
	}

	other, _ := New(users, Config{Secret: "other-secret"})
	if _, err := other.Accept(ctx, "ann", inv.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign key: err %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := s.Accept(ctx, "ann", inv.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err %v", err)
	}
}

func TestAccept_UnknownChallenger(t *testing.T) {
	ctx := context.Background()
	users := &fakeUsers{best: map[string]int{"ann": 1}}
	s := newService(t, users)
	inv, _ := s.Create(ctx, "ann")
	delete(users.best, "ann")

	_, err := s.Accept(ctx, "ann", inv.Token)
	if !errors.Is(err, api.ErrTransport) {
		t.Errorf("err %v, want backend error", err)
	}
}

func TestShareImageURL(t *testing.T) {
	got := ShareImageURL("dsjcqd10y", "ann", 1)
	want := "https://res.cloudinary.com/dsjcqd10y/image/upload/" +
		"w_800,h_418,c_fill,q_auto,f_auto,b_rgb:000000/" +
		"l_text:Arial_48_bold:Globetrotter%20Challenge,co_rgb:ffffff,g_north,y_60/" +
		"l_text:Arial_32_bold:ann%20is%20challenging%20you%21,co_rgb:ffffff,g_north,y_140/" +
		"l_text:Arial_36_bold:Best%20Score%3A%201%20try,co_rgb:ffffff,g_center,y_40/" +
		"l_text:Arial_28_bold:Play%20Now%21,co_rgb:ffffff,g_south,y_60/" +
		"sample.jpg"
	if got != want {
		t.Errorf("ShareImageURL\n got %s\nwant %s", got, want)
	}
	if got := ShareImageURL("c", "ann", 0); !strings.Contains(got, "Can%20you%20beat%20me%3F") {
		t.Errorf("no-best image %s", got)
	}
	if got := ShareImageURL("c", "ann", 4); !strings.Contains(got, "Best%20Score%3A%204%20tries") {
		t.Errorf("plural image %s", got)
	}
}

func TestShareText_NoBest(t *testing.T) {
	got := ShareText(0, "IMG", "LINK")
	want := "I challenge you to beat my Globetrotter score! Can you guess the destination in fewer than X tries?\n\nIMG\n\nPlay here: LINK"
	if got != want {
		t.Errorf("ShareText %q", got)
	}
}

func TestQR(t *testing.T) {
	png, err := QR("https://globe.example/challenge?username=ann")
	if err != nil {
		t.Fatalf("QR: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("QR output is not a PNG")
	}
}
