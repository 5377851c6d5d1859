package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aman-churiwal/assistant-gateway/internal/chat"
)

const sessionCookie = "gw_session"

// SessionKey is the gin context key the resolved session is stored under.
const SessionKey = "session"

// Session resolves the caller's session from a signed cookie, creating a
// fresh session (and cookie) when the cookie is absent, expired, or
// tampered with. The cookie carries only the session id, signed HS256;
// all session state stays server-side.
func Session(store *chat.Store, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := resolveSession(c, store, secret)
		if sess == nil {
			sess = store.Create()
			if err := setSessionCookie(c, sess.ID, secret); err != nil {
				log.Printf("Failed to sign session cookie: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Session initialization failed",
				})
				c.Abort()
				return
			}
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

func resolveSession(c *gin.Context, store *chat.Store, secret []byte) *chat.Session {
	raw, err := c.Cookie(sessionCookie)
	if err != nil || raw == "" {
		return nil
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sid, ok := claims["sid"].(string)
	if !ok {
		return nil
	}

	sess, ok := store.Get(sid)
	if !ok {
		return nil
	}
	return sess
}

func setSessionCookie(c *gin.Context, sessionID string, secret []byte) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sessionID,
		"iat": time.Now().Unix(),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return err
	}

	c.SetCookie(sessionCookie, signed, 0, "/", "", false, true)
	return nil
}

// SessionFromContext pulls the session the Session middleware stored.
func SessionFromContext(c *gin.Context) *chat.Session {
	v, exists := c.Get(SessionKey)
	if !exists {
		return nil
	}
	sess, _ := v.(*chat.Session)
	return sess
}
