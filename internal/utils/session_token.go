package utils // package utils provides helpers for session tokens, passwords and slugs

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSessionToken is returned for any cookie value that does not
// verify: bad signature, wrong algorithm, expired or missing sid.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionToken is a freshly issued session. Raw is the opaque id the
// client holds inside the signed cookie; only HashSessionID(Raw) is stored.
type SessionToken struct {
	Raw    string
	Signed string
	Exp    time.Time
}

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionID returns 32 random bytes hex encoded.
func NewSessionID() (string, error) {
	return randomHex(32)
}

// HashSessionID returns the SHA-256 hex digest used as the session row key.
func HashSessionID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IssueSessionToken creates a new session id and signs it with HS256.
func IssueSessionToken(secret string, ttl time.Duration, now time.Time) (SessionToken, error) {
	raw, err := NewSessionID()
	if err != nil {
		return SessionToken{}, err
	}
	exp := now.UTC().Add(ttl)
	signed, err := SignSessionID(secret, raw, now, exp)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Raw: raw, Signed: signed, Exp: exp}, nil
}

// SignSessionID wraps raw in an HS256 token expiring at exp.
func SignSessionID(secret, raw string, now, exp time.Time) (string, error) {
	claims := sessionClaims{
		SID: raw,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.UTC()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseSessionToken verifies signed and returns the raw session id.
func ParseSessionToken(secret, signed string) (string, error) {
	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid || claims.SID == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.SID, nil
}

// randomHex returns n bytes of crypto/rand data, hex encoded.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
