package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/authenticator/internal/auth"
	"github.com/yourusername/authenticator/internal/config"
	"github.com/yourusername/authenticator/internal/jobs"
	"github.com/yourusername/authenticator/internal/logging"
	"github.com/yourusername/authenticator/internal/mail"
)

func newTestServer(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.GinMode = gin.TestMode
	cfg.JWTSecret = "test-jwt-secret"
	cfg.SessionSecret = "test-session-secret"
	cfg.StoreDriver = config.StoreSQLite
	cfg.SQLitePath = ":memory:"

	store, err := openUserStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	sender, mailJobs, err := setupMail(cfg, logging.Discard())
	require.NoError(t, err)
	require.Nil(t, mailJobs)

	signer := auth.NewSigner(cfg.JWTSecret)
	svc := auth.NewService(cfg, store, mail.NewNotifier(sender, cfg.ClientURL), signer, logging.Discard())
	return setupRouter(cfg, auth.NewManager(cfg, svc, signer, logging.Discard()), nil, logging.Discard()), cfg
}

func TestHealth(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, serviceName, body["service"])
	assert.NotEmpty(t, rec.Header().Get(logging.RequestIDHeader))
}

func TestRoutesMountedUnderPrefix(t *testing.T) {
	router, cfg := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, cfg.APIPrefix+"/signup", strings.NewReader(
		`{"name":"Alice","email":"alice@example.com","password":"Secret#123","confirmPassword":"Secret#123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, cfg.APIPrefix+"/check-auth", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSAllowsClientOrigin(t *testing.T) {
	router, cfg := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, cfg.APIPrefix+"/login", nil)
	req.Header.Set("Origin", cfg.ClientURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	router.ServeHTTP(rec, req)

	assert.Equal(t, cfg.ClientURL, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestOpenUserStore_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = "postgres"
	_, err := openUserStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSetupMail_SMTPValidation(t *testing.T) {
	cfg := config.Default()
	cfg.SMTPHost = "smtp.example.com"

	_, _, err := setupMail(cfg, logging.Discard())
	assert.Error(t, err, "sender email is required with SMTP")

	cfg.SenderEmail = "noreply@example.com"
	sender, mailJobs, err := setupMail(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, mailJobs)
	assert.IsType(t, &mail.SMTPSender{}, sender)
}

type fakeJobReader struct {
	record *jobs.Record
	err    error
}

func (f fakeJobReader) GetRecord(ctx context.Context, jobID string) (*jobs.Record, error) {
	return f.record, f.err
}

func TestMailJobStatusHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		reader fakeJobReader
		status int
	}{
		{"found", fakeJobReader{record: &jobs.Record{JobID: "job-1", To: "a@x.com", Status: jobs.StatusSucceeded}}, http.StatusOK},
		{"missing", fakeJobReader{}, http.StatusNotFound},
		{"store error", fakeJobReader{err: errors.New("redis down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/jobs/:id", mailJobStatusHandler(tt.reader))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
