package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edutok/edutok/core/user"
)

const (
	contextProfileKey = "profile"
	bearerScheme      = "Bearer"
)

// bearerToken extracts the token of an `Authorization: Bearer <token>` header.
func bearerToken(ctx echo.Context) string {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// authMiddleware rejects requests without a valid identity token and
// stores the caller's user.Profile in the context.
func authMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			prof, err := svc.Authenticate(ctx.Request().Context(), bearerToken(ctx))
			if err != nil {
				if errors.Cause(err) == user.ErrUnauthorized {
					return user.ErrUnauthorized
				}
				return errors.Wrap(err, "authenticating")
			}
			ctx.Set(contextProfileKey, prof)
			return next(ctx)
		}
	}
}

func getContextProfile(ctx echo.Context) (user.Profile, error) {
	if prof, ok := ctx.Get(contextProfileKey).(user.Profile); ok {
		return prof, nil
	}
	return user.Profile{}, user.ErrUnauthorized
}
