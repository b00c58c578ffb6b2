// Package logging は構造化ログのインターフェースと slog 実装を提供します。
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger はコンテキスト対応の構造化ロガーです。
// 可変長引数は key/value の組として解釈されます。
//
//	log.Info(ctx, "user signed up", "user_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With は常に指定した key/value を付与する子ロガーを返します。
	With(args ...any) Logger
}

// New は JSON 形式で w に出力するロガーを作成します。
// debug が true の場合は Debug レベルも出力します。
func New(w io.Writer, debug bool) *SlogLogger {
	if w == nil {
		w = os.Stdout
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h))
}

// Discard は何も出力しないロガーです。テスト用。
func Discard() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
