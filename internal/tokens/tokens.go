// Package tokens owns issuing and verifying the signed bearer tokens the
// authentication authority hands out.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for any token that fails verification:
// bad signature, expired, malformed. Callers get one uniform failure so the
// specific check that failed is never leaked.
var ErrUnauthorized = errors.New("invalid or expired token")

// Issue creates a signed token binding the user id to an expiry of
// now + ttl.
func Issue(secret string, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// RemainingTTL returns how long a verified token stays valid. Used to bound
// blacklist entries so they expire with the token.
func RemainingTTL(secret string, token string) (time.Duration, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrUnauthorized
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, ErrUnauthorized
	}
	return time.Until(exp.Time), nil
}

// Verify checks signature and expiry and returns the embedded user id.
func Verify(secret string, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrUnauthorized
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrUnauthorized
	}
	return sub, nil
}
