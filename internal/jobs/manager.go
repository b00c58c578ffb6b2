// Package jobs はメールの非同期配送（Asynq キュー）を提供します。
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/yourusername/authenticator/internal/logging"
	"github.com/yourusername/authenticator/internal/mail"
)

const (
	taskTypeMail = "mail:send"
	queueMail    = "mail"
	maxRetry     = 3
)

// TaskPayload はメール配送ジョブのペイロードです。
type TaskPayload struct {
	JobID   string       `json:"jobId"`
	Message mail.Message `json:"message"`
}

// recordStore は配送状態の保存先です。*Store が実装します。
type recordStore interface {
	Get(ctx context.Context, jobID string) (*Record, error)
	Upsert(ctx context.Context, record *Record) error
	MarkRunning(ctx context.Context, jobID string, attempt int) error
	MarkDone(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, errInfo *ErrorInfo) error
}

// enqueuer は asynq.Client のうち使用するメソッドです。
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Manager はメール配送ジョブの投入と状態管理を担います。
// mail.Sender を実装するため、Notifier の配送先として差し替えられます。
type Manager struct {
	client   enqueuer
	server   *asynq.Server
	mux      *asynq.ServeMux
	store    recordStore
	delivery mail.Sender
	logger   logging.Logger
}

// NewManager は Manager を初期化します。
// delivery は実際にメールを送る Sender（通常は SMTP）です。
func NewManager(redisURL string, store *Store, delivery mail.Sender, logger logging.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if delivery == nil {
		return nil, errors.New("delivery sender is nil")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				queueMail: 1,
			},
		},
	)
	return newManager(asynq.NewClient(opt), server, store, delivery, logger), nil
}

func newManager(client enqueuer, server *asynq.Server, store recordStore, delivery mail.Sender, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	mux := asynq.NewServeMux()
	manager := &Manager{
		client:   client,
		server:   server,
		mux:      mux,
		store:    store,
		delivery: delivery,
		logger:   logger.With("source", "mailqueue"),
	}
	mux.HandleFunc(taskTypeMail, manager.handleMailTask)
	return manager
}

// StartWorkers は Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			m.logger.Error(context.Background(), "asynq server stopped with error", "error", err)
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.server != nil {
		m.server.Shutdown()
	}
	return m.client.Close()
}

// Send はメールを配送キューに投入します（mail.Sender の実装）。
func (m *Manager) Send(ctx context.Context, msg mail.Message) error {
	_, err := m.Enqueue(ctx, msg)
	return err
}

// Enqueue はメールをキューに投入し、ジョブIDを返します。
func (m *Manager) Enqueue(ctx context.Context, msg mail.Message) (string, error) {
	if msg.To == "" {
		return "", fmt.Errorf("message recipient is required")
	}

	payload := &TaskPayload{
		JobID:   uuid.NewString(),
		Message: msg,
	}
	record := &Record{
		JobID:   payload.JobID,
		To:      msg.To,
		Subject: msg.Subject,
		Status:  StatusQueued,
	}
	if err := m.store.Upsert(ctx, record); err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(taskTypeMail, body, asynq.Queue(queueMail))
	if _, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(maxRetry), asynq.TaskID(payload.JobID)); err != nil {
		_ = m.store.MarkFailed(ctx, payload.JobID, &ErrorInfo{Code: "ENQUEUE_FAILED", Message: err.Error()})
		return "", err
	}
	return payload.JobID, nil
}

// GetRecord はジョブ情報を取得します。
func (m *Manager) GetRecord(ctx context.Context, jobID string) (*Record, error) {
	return m.store.Get(ctx, jobID)
}

func (m *Manager) handleMailTask(ctx context.Context, task *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.JobID == "" {
		return fmt.Errorf("missing jobId in payload: %w", asynq.SkipRetry)
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	if err := m.store.MarkRunning(ctx, payload.JobID, attempt+1); err != nil {
		m.logger.Warn(ctx, "failed to update mail job", "job_id", payload.JobID, "error", err)
	}

	if err := m.delivery.Send(ctx, payload.Message); err != nil {
		m.logger.Error(ctx, "mail delivery failed", "job_id", payload.JobID, "to", payload.Message.To, "attempt", attempt+1, "error", err)
		if markErr := m.store.MarkFailed(ctx, payload.JobID, &ErrorInfo{Code: "DELIVERY_FAILED", Message: err.Error()}); markErr != nil {
			m.logger.Warn(ctx, "failed to update mail job", "job_id", payload.JobID, "error", markErr)
		}
		return err
	}

	m.logger.Info(ctx, "mail delivered", "job_id", payload.JobID, "to", payload.Message.To)
	return m.store.MarkDone(ctx, payload.JobID)
}
