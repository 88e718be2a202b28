package middleware

import (
	"context"
	"errors"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/services"
	"github.com/google/uuid"
)

func ClaimsFromContext(ctx context.Context) (*services.TokenClaims, bool) {
	claims, ok := ctx.Value(userContextKey).(*services.TokenClaims)
	return claims, ok && claims != nil
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, errors.New("user claims not found in context or invalid type")
	}
	return claims.UserID, nil
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", errors.New("user claims not found in context or invalid type")
	}
	return claims.Role, nil
}

// WithClaims кладёт claims в контекст (для тестов хендлеров).
func WithClaims(ctx context.Context, claims *services.TokenClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}
