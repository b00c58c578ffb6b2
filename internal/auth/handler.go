package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/authenticator/internal/config"
	"github.com/yourusername/authenticator/internal/logging"
)

// Manager は認証 API の HTTP ハンドラーをまとめた構造体です。
type Manager struct {
	svc     *Service
	signer  *Signer
	logger  logging.Logger
	pending gin.HandlerFunc
	secure  bool
	release bool
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, svc *Service, signer *Signer, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		svc:     svc,
		signer:  signer,
		logger:  logger.With("source", "auth"),
		pending: PendingSessions(cfg),
		secure:  cfg.IsRelease(),
		release: cfg.IsRelease(),
	}
}

// RegisterRoutes は認証 API を rg に登録します。
func (m *Manager) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", m.pending, m.Signup)
	rg.POST("/verify-email", m.pending, m.VerifyEmail)
	rg.POST("/login", m.Login)
	rg.POST("/logout", m.Logout)
	rg.POST("/forgot-password", m.ForgotPassword)
	rg.PUT("/reset-password", m.ResetPassword)
	rg.GET("/check-auth", m.RequireSession(), m.CheckAuth)
}

// Signup は POST /signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	var in SignupInput
	if _, err := bindJSON(c, &in, true); err != nil {
		m.respondWithError(c, err)
		return
	}

	user, err := m.svc.Signup(c.Request.Context(), in)
	if err != nil {
		m.respondWithError(c, err)
		return
	}

	m.rememberPendingEmail(c, user.Email)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Verification code has been sent to your email. Please verify your email",
		"user":    user.Summary(),
	})
}

// VerifyEmail は POST /verify-email のハンドラーです。
// email が省略された場合は仮登録クッキーのメールアドレスを使います。
func (m *Manager) VerifyEmail(c *gin.Context) {
	var in VerifyEmailInput
	if _, err := bindJSON(c, &in, false); err != nil {
		m.respondWithError(c, err)
		return
	}
	if in.Email == "" {
		in.Email = m.pendingEmail(c)
	}

	session, err := m.svc.VerifyEmail(c.Request.Context(), in)
	if err != nil {
		m.respondWithError(c, err)
		return
	}

	m.setTokenCookie(c, session.Token, session.TTL)
	m.forgetPendingEmail(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification done successfully",
	})
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var in LoginInput
	empty, err := bindJSON(c, &in, false)
	if err != nil {
		m.respondWithError(c, err)
		return
	}
	if empty {
		m.respondWithError(c, badRequest("Please enter the login details. email and password"))
		return
	}

	session, err := m.svc.Login(c.Request.Context(), in)
	if err != nil {
		m.respondWithError(c, err)
		return
	}

	m.setTokenCookie(c, session.Token, session.TTL)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged in successfully",
		"user":    session.User.Profile(),
	})
}

// Logout は POST /logout のハンドラーです。セッションの有無にかかわらずクッキーを消去します。
func (m *Manager) Logout(c *gin.Context) {
	m.clearTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// ForgotPassword は POST /forgot-password のハンドラーです。
func (m *Manager) ForgotPassword(c *gin.Context) {
	var in ForgotPasswordInput
	empty, err := bindJSON(c, &in, false)
	if err != nil {
		m.respondWithError(c, err)
		return
	}
	if empty {
		m.respondWithError(c, badRequest("Please fill the detail. 'Email required'"))
		return
	}

	if err := m.svc.ForgotPassword(c.Request.Context(), in); err != nil {
		m.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset link sent successfully to your email",
	})
}

// ResetPassword は PUT /reset-password のハンドラーです。
func (m *Manager) ResetPassword(c *gin.Context) {
	var in ResetPasswordInput
	if _, err := bindJSON(c, &in, false); err != nil {
		m.respondWithError(c, err)
		return
	}

	if err := m.svc.ResetPassword(c.Request.Context(), in); err != nil {
		m.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Password has been reset sucessfully",
	})
}

// CheckAuth は GET /check-auth のハンドラーです。RequireSession の後段で使います。
func (m *Manager) CheckAuth(c *gin.Context) {
	userID, ok := UserIDFromContext(c)
	if !ok {
		m.respondWithError(c, newError(KindNoSession, http.StatusForbidden, "Session timeout. Please login again"))
		return
	}

	user, err := m.svc.CheckAuth(c.Request.Context(), userID)
	if err != nil {
		m.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user.Profile(),
	})
}

func bindJSON(c *gin.Context, dst any, strict bool) (bool, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return false, badRequest("Failed to read request body")
	}
	return decodeJSON(raw, dst, strict)
}

func (m *Manager) respondWithError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	if errors.Is(err, context.Canceled) {
		c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{
			"success": false,
			"message": "Request canceled",
		})
		return
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = internalError(err)
	}

	body := gin.H{"success": false}
	switch {
	case apiErr.Kind == KindInternal:
		m.logger.Error(ctx, "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		body["message"] = apiErr.Message
		if !m.release && apiErr.Err != nil {
			body["error"] = apiErr.Err.Error()
		}
	case apiErr.Kind == KindDuplicateEmail:
		body["error"] = apiErr.Message
	case len(apiErr.Fields) > 0:
		if apiErr.Message != "" {
			body["message"] = apiErr.Message
		}
		body["error"] = apiErr.Fields
	default:
		body["message"] = apiErr.Message
		if !m.release && apiErr.Err != nil {
			body["error"] = apiErr.Err.Error()
		}
	}
	c.AbortWithStatusJSON(apiErr.Status, body)
}
