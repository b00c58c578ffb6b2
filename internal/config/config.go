// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ストアの種類
const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// 開発モード専用の署名鍵
const (
	devJWTSecret     = "dev-jwt-secret-change-me"
	devSessionSecret = "dev-session-secret-change-me"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port      string `yaml:"port"`       // APIサーバーのポート番号
	GinMode   string `yaml:"gin_mode"`   // Ginの実行モード (debug, release, test)
	APIPrefix string `yaml:"api_prefix"` // 認証APIのパスプレフィックス

	// CORS設定
	CORSAllowedOrigins string `yaml:"cors_allowed_origins"` // CORS許可オリジン（カンマ区切り）
	ClientURL          string `yaml:"client_url"`           // フロントエンドのURL（リセットリンク生成に使用）

	// 署名鍵
	JWTSecret     string `yaml:"jwt_secret"`     // セッションJWTの署名鍵
	SessionSecret string `yaml:"session_secret"` // 仮登録クッキーの署名鍵

	// ストア設定
	StoreDriver     string `yaml:"store_driver"` // mongo or sqlite
	MongoURI        string `yaml:"mongodb_uri"`
	MongoDatabase   string `yaml:"mongodb_database"`
	SQLitePath      string `yaml:"sqlite_path"`
	HideUnknownMail bool   `yaml:"hide_unknown_emails"` // forgot-password で未登録メールを隠すか

	// メール送信設定
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	SenderEmail  string `yaml:"sender_email"`
	SenderName   string `yaml:"sender_name"`

	// 非同期メール配送（Asynq）
	MailAsync         bool   `yaml:"mail_async"`
	QueueRedisURL     string `yaml:"queue_redis_url"`
	MailJobTTLMinutes int    `yaml:"mail_job_ttl_minutes"`

	// トークン有効期限（分）
	OTPTTLMinutes   int `yaml:"otp_ttl_minutes"`
	ResetTTLMinutes int `yaml:"reset_ttl_minutes"`
}

// Load は設定を読み込みます。
// 優先順位: 環境変数 > CONFIG_FILE (YAML) > デフォルト値。
// .env.local ファイルが存在する場合は先に環境変数として読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.loadYAML(path); err != nil {
			return nil, err
		}
	}
	config.applyEnv()

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.fillDevSecrets()

	return config, nil
}

// Default は開発用のデフォルト設定を返します。
func Default() *Config {
	return &Config{
		Port:      "5000",
		GinMode:   "debug",
		APIPrefix: "/api/auth",

		CORSAllowedOrigins: "http://localhost:5173,http://127.0.0.1:5173",
		ClientURL:          "http://localhost:5173",

		StoreDriver:   StoreMongo,
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "authenticator",
		SQLitePath:    "authenticator.db",

		SMTPPort:   587,
		SenderName: "Authenticator",

		QueueRedisURL:     "redis://127.0.0.1:6379/0",
		MailJobTTLMinutes: 60,

		OTPTTLMinutes:   15,
		ResetTTLMinutes: 15,
	}
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	// サーバー設定
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.APIPrefix = getEnv("API_PREFIX", c.APIPrefix)

	// CORS設定
	c.CORSAllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)
	c.ClientURL = getEnv("CLIENT_URL", c.ClientURL)

	// 署名鍵
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)

	// ストア設定
	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.MongoURI = getEnv("MONGODB_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGODB_DATABASE", c.MongoDatabase)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.HideUnknownMail = getEnvAsBool("HIDE_UNKNOWN_EMAILS", c.HideUnknownMail)

	// メール送信設定
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvAsInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUsername = getEnv("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.SenderEmail = getEnv("SENDER_EMAIL", c.SenderEmail)
	c.SenderName = getEnv("SENDER_NAME", c.SenderName)

	// 非同期メール配送
	c.MailAsync = getEnvAsBool("MAIL_ASYNC", c.MailAsync)
	c.QueueRedisURL = getEnv("QUEUE_REDIS_URL", c.QueueRedisURL)
	c.MailJobTTLMinutes = getEnvAsInt("MAIL_JOB_TTL_MINUTES", c.MailJobTTLMinutes)

	// トークン有効期限
	c.OTPTTLMinutes = getEnvAsInt("OTP_TTL_MINUTES", c.OTPTTLMinutes)
	c.ResetTTLMinutes = getEnvAsInt("RESET_TTL_MINUTES", c.ResetTTLMinutes)
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER: %q", c.StoreDriver)
	}

	// ローカル開発では署名鍵とSMTPは任意（開発用の値で補完する）
	if c.GinMode == "release" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in release mode")
		}
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.StoreDriver == StoreMongo && c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required in release mode")
		}
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required in release mode")
		}
		if c.SenderEmail == "" {
			return fmt.Errorf("SENDER_EMAIL is required in release mode")
		}
		if c.MailAsync && c.QueueRedisURL == "" {
			return fmt.Errorf("QUEUE_REDIS_URL is required when MAIL_ASYNC is enabled")
		}
	}

	return nil
}

// fillDevSecrets は開発モードで未設定の署名鍵を開発用の値で補完します。
func (c *Config) fillDevSecrets() {
	if c.IsRelease() {
		return
	}
	if c.JWTSecret == "" {
		c.JWTSecret = devJWTSecret
	}
	if c.SessionSecret == "" {
		c.SessionSecret = devSessionSecret
	}
}

// IsRelease は本番モードかどうかを返します。
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// OTPTTL は認証コードの有効期限です。
func (c *Config) OTPTTL() time.Duration {
	return minutesOr(c.OTPTTLMinutes, 15)
}

// ResetTTL はパスワードリセットトークンの有効期限です。
func (c *Config) ResetTTL() time.Duration {
	return minutesOr(c.ResetTTLMinutes, 15)
}

// MailJobTTL はメール配送記録の保持期間です。
func (c *Config) MailJobTTL() time.Duration {
	return minutesOr(c.MailJobTTLMinutes, 60)
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if c.ClientURL != "" && !contains(origins, c.ClientURL) {
		origins = append(origins, c.ClientURL)
	}
	return origins
}

func minutesOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Minute
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
