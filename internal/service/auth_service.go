package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cuberooms/internal/model"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrInvalidHandle = errors.New("handle is required")
)

// AuthService is the identity provider: it hands out signed tokens carrying a
// stable user id per cuber handle. The id is derived from the handle so the
// same cuber always resolves to the same id without a user store.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{jwtSecret: []byte(secret)}
}

// IssueToken returns a signed token for a handle.
func (s *AuthService) IssueToken(handle string) (*model.TokenResponse, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrInvalidHandle
	}

	userID := UserIDFor(handle)
	claims := &model.UserClaims{
		UserID: userID,
		Handle: handle,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.TokenResponse{UserID: userID, Token: signed}, nil
}

// ValidateToken parses and verifies a user token.
func (s *AuthService) ValidateToken(tokenStr string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &model.UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserIDFor maps a handle to its stable user id.
func UserIDFor(handle string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(handle))))
	return "u_" + hex.EncodeToString(sum[:])[:12]
}
