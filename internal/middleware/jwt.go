package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ErrUnauthenticated is returned for a missing or invalid credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier checks HS256 access tokens issued by utils.NewAccessToken.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses raw and returns the caller it names. Any failure is
// ErrUnauthenticated.
func (v *Verifier) Verify(raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Identity{}, ErrUnauthenticated
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, ErrUnauthenticated
	}
	role, _ := claims["role"].(string)
	return Identity{UserID: id, Role: role}, nil
}

// JWTAuth validates the Bearer access token and stores the caller's
// Identity in the request context for IdentityFrom.
func JWTAuth(v *Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			id, err := v.Verify(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			setIdentity(c, id)
			return next(c)
		}
	}
}
