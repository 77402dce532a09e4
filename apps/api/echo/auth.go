package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	identitysvc "github.com/trezcool/darasa/services/identity"
)

const (
	userTokenContextKey = "userToken"
	sessionContextKey   = "session"
)

// newJWTConfig builds the JWT auth middleware config. Tokens are issued by
// the identity provider; this API only verifies them.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    userTokenContextKey,
		Claims:        new(identitysvc.Claims),
	}
}

func getContextClaims(ctx echo.Context) (*identitysvc.Claims, string, error) {
	if token, ok := ctx.Get(userTokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*identitysvc.Claims); ok {
			return claims, token.Raw, nil
		}
	}
	return nil, "", errUnauthorized
}

// getContextSession returns the caller's session handle, anonymous when no
// token was presented.
func getContextSession(ctx echo.Context) *identitysvc.Session {
	if sess, ok := ctx.Get(sessionContextKey).(*identitysvc.Session); ok {
		return sess
	}

	claims, raw, err := getContextClaims(ctx)
	if err != nil {
		return identitysvc.Anonymous()
	}
	sess := identitysvc.NewSession(claims, raw)
	ctx.Set(sessionContextKey, sess)
	return sess
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, _, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
