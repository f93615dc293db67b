package middleware

import (
	"crypto/subtle"
	"net/http"

	apperrors "betlogic/errors"
	"betlogic/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BearerAuth requires "Authorization: Bearer <key>". An empty key disables
// the check.
func BearerAuth(key string) gin.HandlerFunc {
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := []byte("Bearer " + key)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			err := apperrors.WrapError(apperrors.ErrUnauthorized, "bearer token mismatch")
			LoggerFrom(c, nil).Warn("Rejected request", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "Unauthorized"})
			return
		}
		c.Next()
	}
}
