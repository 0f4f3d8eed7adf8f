// internal/challenge/challenge.go
//
// Challenge invites: a signed link a player shares so friends can try to
// beat their best score.
// Responsibilities:
//   - Build the invite (link, token, share image, share text, WhatsApp URL).
//   - Verify an incoming invite and look up the challenger.
//   - Render the invite link as a QR code.
//
// Notes:
//   - Tokens are HS256 JWTs keyed by HKDF-SHA256 over the configured secret.
//   - The backend is the source of truth for the challenger's best try.

package challenge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/robalobadob/globetrotter/internal/api"
)

// ErrNoUsername means the player must pick a username before inviting.
var ErrNoUsername = errors.New("challenge: username required")

// QRSize is the edge length in pixels of generated QR codes.
const QRSize = 320

// Users is the backend surface the challenge flow needs.
// *api.Client satisfies it.
type Users interface {
	CreateUser(ctx context.Context, username string) (api.User, error)
	GetUser(ctx context.Context, username string) (api.User, error)
}

// Config holds the invite settings.
type Config struct {
	PublicURL string        // base of the shared link
	CloudName string        // Cloudinary account for the share image
	Secret    string        // token key material
	TTL       time.Duration // token lifetime
}

// Invite is everything needed to share a challenge.
type Invite struct {
	Username    string    `json:"username"`
	BestTry     int       `json:"bestTry"`
	Link        string    `json:"link"`
	Token       string    `json:"token"`
	ImageURL    string    `json:"imageUrl"`
	ShareText   string    `json:"shareText"`
	WhatsAppURL string    `json:"whatsappUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Challenger is who sent an accepted invite.
type Challenger struct {
	Username string `json:"username"`
	BestTry  int    `json:"bestTry"`
}

// Service builds and verifies invites.
type Service struct {
	users Users
	cfg   Config
	key   []byte
	now   func() time.Time
}

// New derives the signing key and returns a ready Service.
func New(users Users, cfg Config) (*Service, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	key, err := deriveKey(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Service{users: users, cfg: cfg, key: key, now: time.Now}, nil
}

// Create re-registers username with the backend and builds an invite
// carrying the backend's best try.
func (s *Service) Create(ctx context.Context, username string) (Invite, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Invite{}, ErrNoUsername
	}
	u, err := s.users.CreateUser(ctx, username)
	if err != nil {
		return Invite{}, fmt.Errorf("create challenge: %w", err)
	}
	if u.Username != "" {
		username = u.Username
	}

	token, exp, err := signToken(s.key, username, u.BestTry, s.now(), s.cfg.TTL)
	if err != nil {
		return Invite{}, fmt.Errorf("sign challenge: %w", err)
	}
	inv := Invite{
		Username:  username,
		BestTry:   u.BestTry,
		Token:     token,
		ExpiresAt: exp,
		Link:      s.link(username, token),
		ImageURL:  ShareImageURL(s.cfg.CloudName, username, u.BestTry),
	}
	inv.ShareText = ShareText(inv.BestTry, inv.ImageURL, inv.Link)
	inv.WhatsAppURL = "https://wa.me/?text=" + encodeComponent(inv.ShareText)
	log.Info().Str("username", username).Int("best_try", u.BestTry).Msg("challenge created")
	return inv, nil
}

// Accept verifies token for username and returns the challenger's current
// record from the backend.
func (s *Service) Accept(ctx context.Context, username, token string) (Challenger, error) {
	c, err := parseToken(s.key, token, s.now())
	if err != nil {
		return Challenger{}, err
	}
	if !strings.EqualFold(c.Username, strings.TrimSpace(username)) {
		return Challenger{}, fmt.Errorf("%w: username mismatch", ErrInvalidToken)
	}
	u, err := s.users.GetUser(ctx, c.Username)
	if err != nil {
		return Challenger{}, fmt.Errorf("look up challenger: %w", err)
	}
	name := u.Username
	if name == "" {
		name = c.Username
	}
	return Challenger{Username: name, BestTry: u.BestTry}, nil
}

// QR renders link as a PNG.
func QR(link string) ([]byte, error) {
	return qrcode.Encode(link, qrcode.Medium, QRSize)
}

func (s *Service) link(username, token string) string {
	q := url.Values{}
	q.Set("username", username)
	q.Set("token", token)
	return s.cfg.PublicURL + "/challenge?" + q.Encode()
}

// ---- share content ----

// ShareImageURL builds the Cloudinary text-overlay card for a challenge.
func ShareImageURL(cloud, username string, bestTry int) string {
	score := "Can you beat me?"
	if bestTry > 0 {
		unit := "tries"
		if bestTry == 1 {
			unit = "try"
		}
		score = fmt.Sprintf("Best Score: %d %s", bestTry, unit)
	}
	layers := []string{
		"w_800,h_418,c_fill,q_auto,f_auto,b_rgb:000000",
		"l_text:Arial_48_bold:" + encodeComponent("Globetrotter Challenge") + ",co_rgb:ffffff,g_north,y_60",
		"l_text:Arial_32_bold:" + encodeComponent(username+" is challenging you!") + ",co_rgb:ffffff,g_north,y_140",
		"l_text:Arial_36_bold:" + encodeComponent(score) + ",co_rgb:ffffff,g_center,y_40",
		"l_text:Arial_28_bold:" + encodeComponent("Play Now!") + ",co_rgb:ffffff,g_south,y_60",
	}
	return "https://res.cloudinary.com/" + cloud + "/image/upload/" + strings.Join(layers, "/") + "/sample.jpg"
}

// ShareText is the message posted alongside the invite.
func ShareText(bestTry int, imageURL, link string) string {
	target := "X"
	if bestTry > 0 {
		target = fmt.Sprint(bestTry)
	}
	return fmt.Sprintf("I challenge you to beat my Globetrotter score! Can you guess the destination in fewer than %s tries?\n\n%s\n\nPlay here: %s",
		target, imageURL, link)
}

// encodeComponent percent-encodes s for use inside a URL, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
