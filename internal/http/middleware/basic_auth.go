package middleware

import (
	"crypto/subtle"

	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
)

// BasicAuth guards inbound routes with a single username/password pair.
// MicroMDM sends these when they are embedded in its configured webhook URL.
func BasicAuth(username, password string) echo.MiddlewareFunc {
	return echoMid.BasicAuth(func(user, pass string, c echo.Context) (bool, error) {
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		return userOK && passOK, nil
	})
}
