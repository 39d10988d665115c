package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plugfox/addonhub/internal/model"
)

// Claims - payload of the access token
type Claims struct {
	UserID   model.UserID `json:"uid"`
	Username string       `json:"username"`
	Staff    bool         `json:"staff"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens - ttl <= 0 means 24 hours.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue - sign a token for the user
func (t *Tokens) Issue(user *model.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)

	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Staff:    user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.ToString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse - validate the signature and the expiry
func (t *Tokens) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
