package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"

	DefaultTokenTTL = 24 * time.Hour
)

// TokenClaims - то, что middleware кладёт в контекст запроса.
type TokenClaims struct {
	UserID uuid.UUID
	Role   models.UserRole
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) Issue(user *models.User) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		jwtClaimUserID: user.ID.String(),
		jwtClaimRole:   string(user.Role),
		"exp":          now.Add(m.ttl).Unix(),
		"iat":          now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Parse(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrAuthInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrAuthInvalidToken
	}

	rawID, _ := claims[jwtClaimUserID].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s claim", ErrAuthInvalidToken, jwtClaimUserID)
	}

	roleStr, _ := claims[jwtClaimRole].(string)
	role := models.UserRole(roleStr)
	switch role {
	case models.RoleParticipant, models.RoleAdmin:
	default:
		return nil, errors.Join(ErrAuthInvalidToken, fmt.Errorf("invalid role value in claim: %q", roleStr))
	}

	return &TokenClaims{UserID: userID, Role: role}, nil
}
