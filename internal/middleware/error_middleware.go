package middleware

import (
	"voicebox/internal/transport/httpdto"
	voicebox_errors "voicebox/pkg/errors"
	"voicebox/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler is the safety net for errors recorded on the gin context that
// no handler turned into a response. The cause is logged with detail; the
// body stays generic.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.WithContext(c.Request.Context()).Errorf("request error: %s", err.Error())
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(voicebox_errors.HTTPStatus(err), httpdto.NewErrorResponse("Something went wrong", "INTERNAL_ERROR"))
	}
}
