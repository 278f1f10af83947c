// Package mwauth provides the authentication middleware for owner-scoped endpoints.
// The identity itself comes from an upstream auth-layer and is trusted
// unconditionally here: the bearer token carries the already-verified user UUID.
package mwauth

import (
	"context"
	"errors"
	"strings"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/UnendingLoop/ArtShare/internal/mwlogger"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
)

const userContextKey = "auth-user"

// UserResolver - контракт для каталога пользователей
type UserResolver interface {
	ByID(ctx context.Context, id string) (*model.User, error)
}

// New returns a middleware which resolves the request identity into a
// model.User and aborts with 401 when it is missing or unknown
func New(resolver UserResolver) func(*ginext.Context) {
	return func(ctx *ginext.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			abortUnauthorized(ctx)
			return
		}

		if err := uuid.Validate(token); err != nil {
			abortUnauthorized(ctx)
			return
		}

		user, err := resolver.ByID(ctx.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, model.ErrUserNotFound) {
				logger := mwlogger.LoggerFromContext(ctx.Request.Context())
				logger.Error().Err(err).Msg("Failed to resolve request identity")
			}
			abortUnauthorized(ctx)
			return
		}

		ctx.Set(userContextKey, user)
	}
}

// UserFromContext extracts the authenticated user placed there by the middleware
func UserFromContext(ctx *ginext.Context) (*model.User, bool) {
	raw, ok := ctx.Get(userContextKey)
	if !ok {
		return nil, false
	}

	user, ok := raw.(*model.User)
	return user, ok
}

func abortUnauthorized(ctx *ginext.Context) {
	ctx.AbortWithStatusJSON(401, map[string]string{"error": model.ErrUnauthorized.Error()})
}
