package sessions

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload embedded in a minted session token. Subject
// carries the external subject id.
type SessionClaims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenMinter mints and verifies signed session tokens with a fixed secret
// and lifetime.
type TokenMinter struct {
	secret []byte
	maxAge time.Duration
}

func NewTokenMinter(secret string, maxAge time.Duration) *TokenMinter {
	return &TokenMinter{
		secret: []byte(secret),
		maxAge: maxAge,
	}
}

func (m *TokenMinter) MaxAge() time.Duration {
	return m.maxAge
}

// Mint returns a signed token for the given user and its expiry time.
func (m *TokenMinter) Mint(userID uint, subject string, email string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.maxAge)
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses the token and checks its signature and embedded expiry.
// The session store remains the source of truth over a verified token.
func (m *TokenMinter) Verify(tokenStr string) (*SessionClaims, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return &claims, nil
}
