package challenge

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// ErrInvalidToken covers malformed, forged, expired, and mismatched tokens.
var ErrInvalidToken = errors.New("challenge: invalid token")

const keyInfo = "globetrotter challenge v1"

// deriveKey stretches secret into a 32-byte HMAC key.
func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive challenge key: %w", err)
	}
	return key, nil
}

// claims is what an invite token vouches for.
type claims struct {
	Username string `json:"username"`
	BestTry  int    `json:"best_try"`
	jwt.RegisteredClaims
}

func signToken(key []byte, username string, bestTry int, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		BestTry:  bestTry,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString(key)
	return ss, exp, err
}

func parseToken(key []byte, token string, now time.Time) (*claims, error) {
	c := &claims{}
	t, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Username == "" {
		return nil, fmt.Errorf("%w: no username", ErrInvalidToken)
	}
	return c, nil
}
