package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/authenticator/internal/config"
	"github.com/yourusername/authenticator/internal/logging"
	"github.com/yourusername/authenticator/internal/users"
)

// セッショントークンの有効期限
const (
	VerifySessionTTL = 7 * 24 * time.Hour
	LoginSessionTTL  = 30 * 24 * time.Hour
)

// Notifier は認証フローのメール送信先です。*mail.Notifier が実装します。
type Notifier interface {
	SendVerificationCode(ctx context.Context, name, email, code string, ttl time.Duration) error
	SendWelcome(ctx context.Context, name, email string) error
	SendPasswordReset(ctx context.Context, name, email, link string, ttl time.Duration) error
	SendPasswordResetSuccess(ctx context.Context, name, email string) error
}

// Session は発行したセッショントークンとその所有者です。
type Session struct {
	User  *users.User
	Token string
	TTL   time.Duration
}

// Service は認証の状態遷移（サインアップ→メール認証→ログイン、パスワードリセット）を担います。
type Service struct {
	store    users.Store
	notifier Notifier
	signer   *Signer
	logger   logging.Logger

	otpTTL      time.Duration
	resetTTL    time.Duration
	clientURL   string
	hideUnknown bool

	now func() time.Time
}

// NewService は Service を作成します。
func NewService(cfg *config.Config, store users.Store, notifier Notifier, signer *Signer, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		store:       store,
		notifier:    notifier,
		signer:      signer,
		logger:      logger.With("source", "auth"),
		otpTTL:      cfg.OTPTTL(),
		resetTTL:    cfg.ResetTTL(),
		clientURL:   strings.TrimRight(cfg.ClientURL, "/"),
		hideUnknown: cfg.HideUnknownMail,
		now:         time.Now,
	}
}

// Signup はユーザーを未認証状態で作成し、認証コードをメールで送信します。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*users.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if fields := validateStruct(in, signupMessages); len(fields) > 0 {
		return nil, validationError("", fields)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, internalError(err)
	}
	code, err := GenerateOTP()
	if err != nil {
		return nil, internalError(err)
	}
	expiresAt := s.now().Add(s.otpTTL).UTC()

	user, err := s.store.Create(ctx, &users.User{
		Name:                       in.Name,
		Email:                      in.Email,
		Password:                   hash,
		VerificationToken:          &code,
		VerificationTokenExpiresAt: &expiresAt,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, newError(KindDuplicateEmail, http.StatusConflict, "Email already exists")
		}
		return nil, internalError(err)
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Name, user.Email, code, s.otpTTL); err != nil {
		return nil, internalError(err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// VerifyEmail は認証コードを照合し、成功したら 7 日間有効のセッションを発行します。
func (s *Service) VerifyEmail(ctx context.Context, in VerifyEmailInput) (*Session, error) {
	code := in.Code.String()
	if code == "" {
		return nil, newError(KindInvalidCode, http.StatusBadRequest, "Please enter the verification code")
	}
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, newError(KindMissingEmail, http.StatusForbidden, "Missing Email. Please refresh and signup again")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, newError(KindNotFound, http.StatusBadRequest, "user not found!")
		}
		return nil, internalError(err)
	}

	// 認証済み（コード未発行）のユーザーはコード不一致として扱う
	if user.VerificationToken == nil {
		return nil, newError(KindInvalidCode, http.StatusBadRequest, "invalid code")
	}
	if user.VerificationTokenExpiresAt == nil || !s.now().Before(*user.VerificationTokenExpiresAt) {
		return nil, newError(KindExpired, http.StatusBadRequest, "verification code expired!")
	}
	if !equalToken(*user.VerificationToken, code) {
		return nil, newError(KindInvalidCode, http.StatusBadRequest, "invalid code")
	}

	user.IsVerified = true
	user.VerificationToken = nil
	user.VerificationTokenExpiresAt = nil
	if err := s.store.Update(ctx, user); err != nil {
		return nil, internalError(err)
	}

	token, err := s.signer.Issue(user.ID, VerifySessionTTL)
	if err != nil {
		return nil, internalError(err)
	}

	if err := s.notifier.SendWelcome(ctx, user.Name, user.Email); err != nil {
		s.logger.Warn(ctx, "failed to send welcome mail", "user_id", user.ID, "error", err)
	}

	s.logger.Info(ctx, "email verified", "user_id", user.ID)
	return &Session{User: user, Token: token, TTL: VerifySessionTTL}, nil
}

// Login は認証済みユーザーの資格情報を検証し、30 日間有効のセッションを発行します。
// 未認証ユーザーはパスワード照合より先に拒否します。
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if fields := validateStruct(in, loginMessages); len(fields) > 0 {
		return nil, validationError("Please enter valid login details", fields)
	}

	invalid := newError(KindUnauthenticated, http.StatusBadRequest, "Invalid login credentials")

	user, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, invalid
		}
		return nil, internalError(err)
	}
	if !user.IsVerified {
		return nil, newError(KindUnverified, http.StatusForbidden, "You need to verify your email first")
	}
	if !CheckPassword(user.Password, in.Password) {
		s.logger.Info(ctx, "login rejected", "user_id", user.ID)
		return nil, invalid
	}

	user.LastLogin = s.now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		return nil, internalError(err)
	}

	token, err := s.signer.Issue(user.ID, LoginSessionTTL)
	if err != nil {
		return nil, internalError(err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &Session{User: user, Token: token, TTL: LoginSessionTTL}, nil
}

// ForgotPassword はリセットトークンを発行し、リセット用リンクをメールで送信します。
func (s *Service) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	if strings.TrimSpace(in.Email) == "" {
		return badRequest("Please enter the email to get password reset link")
	}
	in.Email = normalizeEmail(in.Email)
	if fields := validateStruct(in, forgotMessages); len(fields) > 0 {
		return validationError("", fields)
	}

	user, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			if s.hideUnknown {
				s.logger.Info(ctx, "password reset requested for unknown email")
				return nil
			}
			return newError(KindNotFound, http.StatusBadRequest, "Email not found")
		}
		return internalError(err)
	}

	token, err := GenerateResetToken()
	if err != nil {
		return internalError(err)
	}
	expiresAt := s.now().Add(s.resetTTL).UTC()
	user.ResetPasswordToken = &token
	user.ResetPasswordExpiresAt = &expiresAt
	if err := s.store.Update(ctx, user); err != nil {
		return internalError(err)
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Name, user.Email, s.resetLink(token, user.Email), s.resetTTL); err != nil {
		return internalError(err)
	}

	s.logger.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword はリセットトークンを検証してパスワードを置き換えます。
// 成功するとトークンは消去され、再利用できません。
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	token := in.Token.String()
	if token == "" {
		return badRequest("Missing token")
	}
	in.Email = normalizeEmail(in.Email)
	if fields := validateStruct(in, resetMessages); len(fields) > 0 {
		return validationError("", fields)
	}

	user, err := s.store.FindByResetToken(ctx, in.Email, token)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return newError(KindNotFound, http.StatusBadRequest, "User not found. Please request a new password reset link")
		}
		return internalError(err)
	}
	if user.ResetPasswordToken == nil || !equalToken(*user.ResetPasswordToken, token) {
		return newError(KindInvalidToken, http.StatusBadRequest, "Invalid token!")
	}
	if user.ResetPasswordExpiresAt == nil || !s.now().Before(*user.ResetPasswordExpiresAt) {
		return newError(KindExpired, http.StatusBadRequest, "Link expired!")
	}

	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return internalError(err)
	}
	user.Password = hash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpiresAt = nil
	if err := s.store.Update(ctx, user); err != nil {
		return internalError(err)
	}

	if err := s.notifier.SendPasswordResetSuccess(ctx, user.Name, user.Email); err != nil {
		s.logger.Warn(ctx, "failed to send password reset confirmation", "user_id", user.ID, "error", err)
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// CheckAuth はセッションのユーザーを返します。
func (s *Service) CheckAuth(ctx context.Context, userID string) (*users.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, newError(KindNotFound, http.StatusBadRequest, "User not found")
		}
		return nil, internalError(err)
	}
	return user, nil
}

func (s *Service) resetLink(token, email string) string {
	return s.clientURL + "/reset-password?token=" + url.QueryEscape(token) + "&email=" + url.QueryEscape(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func equalToken(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
