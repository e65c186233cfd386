package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/akozlov/clothes-shop/internal/apperr"
	"github.com/akozlov/clothes-shop/internal/tokens"
)

const bearerPrefix = "Bearer "

// UserIDKey is the echo context key the resolved user id is stored
// under once RequireAuth passes.
const UserIDKey = "userID"

type Auth struct {
	JWTSecret []byte
}

func NewAuth(secret []byte) *Auth {
	return &Auth{JWTSecret: secret}
}

// RequireAuth gates protected routes. The token comes from the
// Authorization header, or from the token cookie as a fallback. A
// missing token is reported without ever touching the verifier.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := ""
		if header := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, bearerPrefix) {
			raw = strings.TrimPrefix(header, bearerPrefix)
		}
		if raw == "" {
			if cookie, err := c.Cookie("token"); err == nil {
				raw = cookie.Value
			}
		}
		if raw == "" {
			return apperr.Unauthorized("Login first to access this resource")
		}

		userID, err := tokens.Parse(raw, m.JWTSecret)
		if err != nil {
			return apperr.Unauthorized("Invalid or expired token. Please log in again.")
		}

		c.Set(UserIDKey, userID)
		return next(c)
	}
}
