package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "jobtrackr/internal/errors"
	"jobtrackr/internal/model"
)

const (
	claimsContextKey = "claims"
	userContextKey   = "user"
	bearerPrefix     = "Bearer "
)

// UserFinder resolves the user a token was issued to.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Guard returns the middleware chain protecting secured routes: bearer token
// extraction and verification followed by user resolution.
func Guard(jwtService *JWTService, tokens TokenStoreInterface, users UserFinder) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		echojwt.WithConfig(echojwt.Config{
			ContextKey:  claimsContextKey,
			TokenLookup: "header:" + echo.HeaderAuthorization + ":" + bearerPrefix,
			ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
				claims, err := jwtService.ValidateAccessToken(token)
				if err != nil {
					return nil, apperrors.ErrInvalidToken
				}
				revoked, _ := tokens.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
				if revoked {
					return nil, apperrors.ErrInvalidToken
				}
				return claims, nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return unauthorized(guardError(c.Request().Header.Get(echo.HeaderAuthorization)))
			},
		}),
		resolveUser(users),
	}
}

// guardError classifies a rejected request by its Authorization header: no
// usable bearer credential means authentication is required, anything else
// means the presented token is bad.
func guardError(header string) error {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return apperrors.ErrAuthRequired
	}
	if strings.TrimSpace(header[len(bearerPrefix):]) == "" {
		return apperrors.ErrAuthRequired
	}
	return apperrors.ErrInvalidToken
}

func resolveUser(users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := CurrentClaims(c)
			if !ok {
				return unauthorized(apperrors.ErrAuthRequired)
			}
			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return unauthorized(apperrors.ErrInvalidToken)
				}
				c.Logger().Errorf("resolve user %s: %v", claims.UserID, err)
				return echo.NewHTTPError(http.StatusInternalServerError, apperrors.MapErrorToHTTP(err).ToErrorResponse())
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func unauthorized(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.MapErrorToHTTP(err).ToErrorResponse())
}

// CurrentClaims returns the verified token claims of the request.
func CurrentClaims(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// CurrentUser returns the user resolved by the guard.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userContextKey).(*model.User)
	return user, ok && user != nil
}
