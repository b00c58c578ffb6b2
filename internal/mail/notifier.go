package mail

import (
	"context"
	"strings"
	"time"
)

// DefaultSiteName はメール本文・件名で使うサービス名です。
const DefaultSiteName = "Authenticator"

// Notifier は認証フローの各メールを組み立てて Sender に渡します。
type Notifier struct {
	sender    Sender
	siteName  string
	clientURL string
	now       func() time.Time
}

// NewNotifier は Notifier を作成します。
// clientURL はダッシュボード・ログイン画面へのリンク生成に使用します。
func NewNotifier(sender Sender, clientURL string) *Notifier {
	if sender == nil {
		panic("sender must be provided")
	}
	return &Notifier{
		sender:    sender,
		siteName:  DefaultSiteName,
		clientURL: strings.TrimRight(clientURL, "/"),
		now:       time.Now,
	}
}

// SendVerificationCode はサインアップ直後の認証コードメールを送信します。
func (n *Notifier) SendVerificationCode(ctx context.Context, name, email, code string, ttl time.Duration) error {
	html, err := render(verificationTmpl, templateData{
		SiteName: n.siteName,
		Name:     name,
		Code:     code,
		Minutes:  minutes(ttl),
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		To:      email,
		Subject: "Welcome to Our Platform - OTP Verification",
		HTML:    html,
	})
}

// SendWelcome はメール認証完了時のウェルカムメールを送信します。
func (n *Notifier) SendWelcome(ctx context.Context, name, email string) error {
	html, err := render(welcomeTmpl, templateData{
		SiteName: n.siteName,
		Name:     name,
		Link:     n.clientURL + "/dashboard",
		Year:     n.now().Year(),
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		To:      email,
		Subject: "Welcome to the " + n.siteName,
		HTML:    html,
	})
}

// SendPasswordReset はパスワード再設定リンクを送信します。
func (n *Notifier) SendPasswordReset(ctx context.Context, name, email, link string, ttl time.Duration) error {
	html, err := render(resetTmpl, templateData{
		SiteName: n.siteName,
		Name:     name,
		Link:     link,
		Minutes:  minutes(ttl),
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		To:      email,
		Subject: "Reset Your Password",
		HTML:    html,
	})
}

// SendPasswordResetSuccess はパスワード再設定完了の通知を送信します。
func (n *Notifier) SendPasswordResetSuccess(ctx context.Context, name, email string) error {
	html, err := render(resetSuccessTmpl, templateData{
		SiteName: n.siteName,
		Name:     name,
		Link:     n.clientURL + "/login",
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		To:      email,
		Subject: "Password Reset Successful",
		HTML:    html,
	})
}
