package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/authenticator/internal/config"
	"github.com/yourusername/authenticator/internal/jobs"
	"github.com/yourusername/authenticator/internal/logging"
	"github.com/yourusername/authenticator/internal/mail"
)

// setupMail はメールの配送先を組み立てます。
// SMTP_HOST が空ならログ出力のみ、MAIL_ASYNC=true なら Asynq キュー経由で配送します。
func setupMail(cfg *config.Config, logger logging.Logger) (mail.Sender, *jobs.Manager, error) {
	var delivery mail.Sender
	if cfg.SMTPHost == "" {
		delivery = mail.LogSender{Logger: logger}
	} else {
		smtp, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.SenderEmail,
			FromName:  cfg.SenderName,
		})
		if err != nil {
			return nil, nil, err
		}
		delivery = smtp
	}

	if !cfg.MailAsync {
		return delivery, nil, nil
	}

	opt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return nil, nil, err
	}
	store := jobs.NewStore(redis.NewClient(opt), cfg.MailJobTTL())
	manager, err := jobs.NewManager(cfg.QueueRedisURL, store, delivery, logger)
	if err != nil {
		return nil, nil, err
	}
	return manager, manager, nil
}

type mailJobReader interface {
	GetRecord(ctx context.Context, jobID string) (*jobs.Record, error)
}

func mailJobStatusHandler(reader mailJobReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		if strings.TrimSpace(jobID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "job id is required",
			})
			return
		}

		record, err := reader.GetRecord(c.Request.Context(), jobID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Internal server error",
			})
			return
		}
		if record == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "mail job not found",
			})
			return
		}

		payload := gin.H{
			"success":   true,
			"jobId":     record.JobID,
			"to":        record.To,
			"subject":   record.Subject,
			"status":    record.Status,
			"attempts":  record.Attempts,
			"updatedAt": record.UpdatedAt,
		}
		if record.Error != nil {
			payload["error"] = record.Error
		}
		c.JSON(http.StatusOK, payload)
	}
}
