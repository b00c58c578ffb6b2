package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/authenticator/internal/config"
)

const (
	// TokenCookieName はセッショントークンを保持するクッキー名です。
	TokenCookieName = "token"
	// PendingSessionName は仮登録中のメールアドレスを保持する署名付きクッキーの名前です。
	PendingSessionName = "pending_signup"

	sessionKeyPendingEmail = "pending_email"
)

// ContextUserIDKey は、セッション検証後のユーザーIDを gin.Context で共有するためのキーです。
const ContextUserIDKey = "auth.userID"

// PendingSessions は仮登録クッキーのセッションミドルウェアを返します。
// 有効期限は認証コードと同じです。
func PendingSessions(cfg *config.Config) gin.HandlerFunc {
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.OTPTTL().Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteStrictMode,
	})
	return sessions.Sessions(PendingSessionName, store)
}

// UserIDFromContext は RequireSession が設定したユーザーIDを返します。
func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func (m *Manager) rememberPendingEmail(c *gin.Context, email string) {
	session := sessions.Default(c)
	session.Set(sessionKeyPendingEmail, email)
	if err := session.Save(); err != nil {
		m.logger.Warn(c.Request.Context(), "failed to save pending signup session", "error", err)
	}
}

func (m *Manager) pendingEmail(c *gin.Context) string {
	email, _ := sessions.Default(c).Get(sessionKeyPendingEmail).(string)
	return email
}

func (m *Manager) forgetPendingEmail(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get(sessionKeyPendingEmail) == nil {
		return
	}
	session.Delete(sessionKeyPendingEmail)
	if err := session.Save(); err != nil {
		m.logger.Warn(c.Request.Context(), "failed to clear pending signup session", "error", err)
	}
}

func (m *Manager) setTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (m *Manager) clearTokenCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// tokenFromRequest はクッキー、次に Authorization: Bearer ヘッダーからトークンを取り出します。
func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(TokenCookieName); err == nil && token != "" {
		return token
	}
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
