package middleware

import (
	"net/http"

	"voicebox/internal/session"
	"voicebox/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// SessionMiddleware guards endpoints that need a launch session. It verifies
// the signed cookie, loads the session, slides its expiry and attaches it to
// the request context.
func SessionMiddleware(codec *session.Codec, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(session.CookieName)
		if err != nil {
			unauthorized(c)
			return
		}

		id, err := codec.Decode(cookie)
		if err != nil {
			unauthorized(c)
			return
		}

		sess, err := store.Get(c.Request.Context(), id)
		if err != nil {
			unauthorized(c)
			return
		}

		// Best-effort slide; a failed touch only means the TTL does not move.
		_ = store.Touch(c.Request.Context(), sess)

		ctx := session.WithContext(c.Request.Context(), sess)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(session.RelaunchMessage, "SESSION_EXPIRED"))
	c.Abort()
}
