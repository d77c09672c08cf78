package jwt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"huddle/internal/entity"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// accessClaims is the access-token payload. The registered subject carries
// the user id; email and username ride along so the delivery layer can
// label broadcasts without a user lookup.
type accessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager mints and verifies the two credentials the session manager deals
// in: short-lived HS256 access tokens presented at the websocket handshake,
// and opaque refresh tokens whose state lives in the repository.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue mints an access token for the user.
func (m *Manager) Issue(user entity.User) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Id,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses an access token and returns the identity it asserts.
// Expired tokens are distinguished so the caller can prompt a refresh
// instead of a re-login.
func (m *Manager) Verify(tokenString string) (*entity.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&accessClaims{},
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &entity.TokenClaims{
		UserId:   claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

// NewRefreshToken returns an opaque random credential and when it lapses.
// Revocation and rotation are the repository's concern.
func (m *Manager) NewRefreshToken() (string, time.Time, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	return base64.URLEncoding.EncodeToString(b), time.Now().Add(m.refreshTTL), nil
}
