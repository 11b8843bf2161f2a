package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/qrave1/anonspeak/internal/infra/appctx"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/dto"
)

// AdminSubject единственный допустимый subject админского токена
const AdminSubject = "admin"

// GenerateAdminToken выпускает HS256 токен оператора
func GenerateAdminToken(secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &jwt.RegisteredClaims{
		Subject:   AdminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// AdminAuthMiddleware проверяет Authorization: Bearer <jwt>
func AdminAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing or malformed jwt"})
			}

			token, err := jwt.ParseWithClaims(
				raw,
				&jwt.RegisteredClaims{},
				func(token *jwt.Token) (any, error) {
					return []byte(secret), nil
				},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithExpirationRequired(),
			)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired jwt"})
			}

			claims, ok := token.Claims.(*jwt.RegisteredClaims)
			if !ok || !token.Valid {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired jwt"})
			}

			if claims.Subject != AdminSubject {
				return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "invalid subject"})
			}

			c.SetRequest(
				c.Request().WithContext(
					appctx.WithAdminSubject(c.Request().Context(), claims.Subject),
				),
			)

			return next(c)
		}
	}
}
