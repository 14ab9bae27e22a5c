// Package guest threads an explicit caller identity through the booking
// path. Guests are anonymous: a uuid minted on first contact, carried in a
// signed, encrypted cookie. There is no login.
package guest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const cookieName = "roomly_guest"

const ctxKey = "guestID"

type Identity struct {
	sc *securecookie.SecureCookie
}

func New(hashKey, blockKey []byte) *Identity {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int((365 * 24 * time.Hour).Seconds()))
	return &Identity{sc: sc}
}

// Middleware resolves the guest id from the cookie, minting a fresh identity
// when the cookie is absent or fails to decode.
func (i *Identity) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := i.fromRequest(c.Request)
		if !ok {
			id = uuid.NewString()
			i.setCookie(c.Writer, c.Request, id)
		}
		c.Set(ctxKey, id)
		c.Next()
	}
}

func GuestID(c *gin.Context) string {
	id, _ := c.Get(ctxKey)
	s, _ := id.(string)
	return s
}

func (i *Identity) fromRequest(r *http.Request) (string, bool) {
	ck, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	var id string
	if err := i.sc.Decode(cookieName, ck.Value, &id); err != nil {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (i *Identity) setCookie(w http.ResponseWriter, r *http.Request, id string) {
	encoded, err := i.sc.Encode(cookieName, id)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
	})
}
