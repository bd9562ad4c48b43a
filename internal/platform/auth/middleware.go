package auth

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/emiadi/emiadi/internal/platform/apperr"
)

// Middleware authenticates the bearer credential on every request. The
// failure modes are distinct and distinguishable: missing header, malformed
// header, invalid signature, expired, and revoked each produce their own
// 401 message. On success the Actor is placed on the request context.
func Middleware(secret []byte, revocations RevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return apperr.Unauthenticated("missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apperr.Unauthenticated("invalid authorization format")
			}

			claims, err := ParseToken(secret, parts[1])
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					return apperr.Unauthenticated("token expired")
				}
				return apperr.Unauthenticated("invalid token")
			}

			revoked, err := revocations.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return apperr.Internal(err)
			}
			if revoked {
				return apperr.Unauthenticated("token has been revoked")
			}

			actor, err := ActorFromClaims(claims)
			if err != nil {
				return apperr.Unauthenticated("invalid token")
			}

			// The claims are kept alongside the actor so logout can revoke
			// the exact credential that was presented.
			c.Set("token_claims", claims)
			c.SetRequest(c.Request().WithContext(WithActor(c.Request().Context(), actor)))

			return next(c)
		}
	}
}

// ClaimsFromEcho returns the verified claims of the presented credential,
// or nil when the request was not authenticated.
func ClaimsFromEcho(c echo.Context) *Claims {
	claims, _ := c.Get("token_claims").(*Claims)
	return claims
}
