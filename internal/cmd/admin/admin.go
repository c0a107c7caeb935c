// Package admin parses admin command flags and composes the back office.
package admin

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/inkwellhq/inkwell/internal/platform/cmd"
	server "github.com/inkwellhq/inkwell/internal/services/admin/app"
)

// Config holds admin command configuration.
type Config struct {
	HTTPAddr           string `env:"INKWELL_ADMIN_HTTP_ADDR"       envDefault:":8081"`
	ContentStoragePath string `env:"INKWELL_CONTENT_STORAGE_PATH"  envDefault:"content.db"`
	SurveyStoragePath  string `env:"INKWELL_SURVEY_STORAGE_PATH"   envDefault:"survey.db"`
	MediaStoragePath   string `env:"INKWELL_MEDIA_STORAGE_PATH"    envDefault:"media.db"`
	ChatStoragePath    string `env:"INKWELL_CHAT_STORAGE_PATH"     envDefault:"chat.db"`
	ChatBaseURL        string `env:"INKWELL_CHAT_BASE_URL"         envDefault:"http://localhost:8082"`

	TokenIssuer string `env:"INKWELL_TOKEN_ISSUER" envDefault:"inkwell"`
	TokenSecret string `env:"INKWELL_TOKEN_SECRET"`
	OperatorID  string `env:"INKWELL_OPERATOR_ID"  envDefault:"operator"`
	OperatorKey string `env:"INKWELL_OPERATOR_KEY"`

	AIAPIKey       string `env:"INKWELL_AI_API_KEY"`
	AIModel        string `env:"INKWELL_AI_MODEL"         envDefault:"gpt-4o-mini"`
	AIResponsesURL string `env:"INKWELL_AI_RESPONSES_URL"`

	S3Endpoint      string `env:"INKWELL_S3_ENDPOINT"`
	S3AccessKey     string `env:"INKWELL_S3_ACCESS_KEY"`
	S3SecretKey     string `env:"INKWELL_S3_SECRET_KEY"`
	S3Bucket        string `env:"INKWELL_S3_BUCKET"          envDefault:"inkwell-media"`
	S3PublicBaseURL string `env:"INKWELL_S3_PUBLIC_BASE_URL"`
	S3UseSSL        bool   `env:"INKWELL_S3_USE_SSL"         envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "admin HTTP listen address")
	fs.StringVar(&cfg.ContentStoragePath, "content-storage-path", cfg.ContentStoragePath, "content SQLite database path")
	fs.StringVar(&cfg.SurveyStoragePath, "survey-storage-path", cfg.SurveyStoragePath, "survey SQLite database path")
	fs.StringVar(&cfg.MediaStoragePath, "media-storage-path", cfg.MediaStoragePath, "media SQLite database path")
	fs.StringVar(&cfg.ChatStoragePath, "chat-storage-path", cfg.ChatStoragePath, "chat SQLite database path (shared blocklist)")
	fs.StringVar(&cfg.ChatBaseURL, "chat-base-url", cfg.ChatBaseURL, "chat service base URL for presence toggles")
	fs.StringVar(&cfg.TokenIssuer, "token-issuer", cfg.TokenIssuer, "operator token issuer")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "operator token signing secret")
	fs.StringVar(&cfg.OperatorID, "operator-id", cfg.OperatorID, "operator identifier issued as the token subject")
	fs.StringVar(&cfg.OperatorKey, "operator-key", cfg.OperatorKey, "operator access key exchanged for bearer tokens")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the admin app and serves it until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAdmin, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:           cfg.HTTPAddr,
			ContentStoragePath: cfg.ContentStoragePath,
			SurveyStoragePath:  cfg.SurveyStoragePath,
			MediaStoragePath:   cfg.MediaStoragePath,
			ChatStoragePath:    cfg.ChatStoragePath,
			ChatBaseURL:        cfg.ChatBaseURL,
			TokenIssuer:        cfg.TokenIssuer,
			TokenSecret:        cfg.TokenSecret,
			OperatorID:         cfg.OperatorID,
			OperatorKey:        cfg.OperatorKey,
			AIAPIKey:           cfg.AIAPIKey,
			AIModel:            cfg.AIModel,
			AIResponsesURL:     cfg.AIResponsesURL,
			S3Endpoint:         cfg.S3Endpoint,
			S3AccessKey:        cfg.S3AccessKey,
			S3SecretKey:        cfg.S3SecretKey,
			S3Bucket:           cfg.S3Bucket,
			S3PublicBaseURL:    cfg.S3PublicBaseURL,
			S3UseSSL:           cfg.S3UseSSL,
		}); err != nil {
			return fmt.Errorf("serve admin: %w", err)
		}
		return nil
	})
}
