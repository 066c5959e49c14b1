// Package session owns the cookies that carry access and refresh tokens.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/errandly/identity-service/internal/core/domain"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Jar writes and reads the session cookie pair. Both cookies are HttpOnly,
// SameSite=Strict and scoped to Path=/. Secure is set in production.
type Jar struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewJar(secure bool, accessTTL, refreshTTL time.Duration) *Jar {
	return &Jar{Secure: secure, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

func (j *Jar) SetAccess(c echo.Context, token string) {
	c.SetCookie(j.cookie(AccessCookie, token, int(j.AccessTTL.Seconds())))
}

func (j *Jar) SetPair(c echo.Context, pair domain.TokenPair) {
	j.SetAccess(c, pair.AccessToken)
	c.SetCookie(j.cookie(RefreshCookie, pair.RefreshToken, int(j.RefreshTTL.Seconds())))
}

// Clear expires both cookies on the client.
func (j *Jar) Clear(c echo.Context) {
	c.SetCookie(j.cookie(AccessCookie, "", -1))
	c.SetCookie(j.cookie(RefreshCookie, "", -1))
}

func (j *Jar) ReadAccess(c echo.Context) string {
	return read(c, AccessCookie)
}

func (j *Jar) ReadRefresh(c echo.Context) string {
	return read(c, RefreshCookie)
}

func (j *Jar) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func read(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
