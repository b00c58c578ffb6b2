// Package mail は認証フローで送信するメールの生成と配送を提供します。
package mail

import (
	"context"

	"github.com/yourusername/authenticator/internal/logging"
)

// Message は送信するメール1通を表します。
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender はメールを配送します。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc は関数を Sender として扱うためのアダプタです。
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogSender は SMTP 未設定のローカル開発用に、メールをログへ出力するだけの Sender です。
type LogSender struct {
	Logger logging.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.Info(ctx, "mail not delivered (SMTP_HOST is empty)",
		"source", "mail",
		"to", msg.To,
		"subject", msg.Subject,
		"html", msg.HTML,
	)
	return nil
}
