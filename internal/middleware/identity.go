package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Identity is the authenticated caller of one request.
type Identity struct {
	UserID uint64
	Role   string
}

// IdentityFrom returns the caller stored by JWTAuth.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	if !ok || id == 0 {
		return Identity{}, false
	}
	role, _ := c.Get(ctxRole).(string)
	return Identity{UserID: id, Role: role}, true
}

func setIdentity(c echo.Context, id Identity) {
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxRole, id.Role)
}

// userKey identifies the caller in rate limit keys, "anon" when nobody is
// authenticated.
func userKey(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
