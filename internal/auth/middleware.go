package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireSession はセッショントークンを検証するミドルウェアを返します。
// トークンがなければ 403、検証に失敗すれば 401 で中断します。
func (m *Manager) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			m.respondWithError(c, newError(KindNoSession, http.StatusForbidden, "Session timeout. Please login again"))
			return
		}

		userID, err := m.signer.Parse(token)
		if err != nil {
			m.logger.Debug(c.Request.Context(), "session token rejected", "error", err)
			m.respondWithError(c, &Error{
				Kind:    KindInvalidSession,
				Status:  http.StatusUnauthorized,
				Message: "Invalid or expired token",
				Err:     err,
			})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}
