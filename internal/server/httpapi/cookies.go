package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/server/services"
)

// CookieOptions configures the session cookies. Cookies are always HttpOnly
// and Secure.
type CookieOptions struct {
	SameSite   http.SameSite
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// CookieOptionsFor returns Lax cookies in production and None elsewhere,
// so a frontend on another origin can use them during development.
func CookieOptionsFor(production bool, accessTTL, refreshTTL time.Duration) CookieOptions {
	sameSite := http.SameSiteNoneMode
	if production {
		sameSite = http.SameSiteLaxMode
	}
	return CookieOptions{SameSite: sameSite, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

func (o CookieOptions) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: o.SameSite,
	}
}

func (o CookieOptions) setSession(w http.ResponseWriter, s *services.Session) {
	http.SetCookie(w, o.cookie(common.AccessTokenCookieName, s.AccessToken, int(o.AccessTTL.Seconds())))
	http.SetCookie(w, o.cookie(common.RefreshTokenCookieName, s.RefreshToken, int(o.RefreshTTL.Seconds())))
}

func (o CookieOptions) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, o.cookie(common.AccessTokenCookieName, "", -1))
	http.SetCookie(w, o.cookie(common.RefreshTokenCookieName, "", -1))
}
