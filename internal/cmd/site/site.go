// Package site parses site command flags and composes the public web server.
package site

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/inkwellhq/inkwell/internal/platform/cmd"
	server "github.com/inkwellhq/inkwell/internal/services/site/app"
)

// Config holds site command configuration.
type Config struct {
	HTTPAddr              string        `env:"INKWELL_SITE_HTTP_ADDR"          envDefault:":8080"`
	ContentStoragePath    string        `env:"INKWELL_CONTENT_STORAGE_PATH"    envDefault:"content.db"`
	NewsletterStoragePath string        `env:"INKWELL_NEWSLETTER_STORAGE_PATH" envDefault:"newsletter.db"`
	SurveyStoragePath     string        `env:"INKWELL_SURVEY_STORAGE_PATH"     envDefault:"survey.db"`
	RedisAddr             string        `env:"INKWELL_REDIS_ADDR"`
	ChatBaseURL           string        `env:"INKWELL_CHAT_BASE_URL"           envDefault:"http://localhost:8082"`
	CalendlyToken         string        `env:"INKWELL_CALENDLY_TOKEN"`
	CalendlyUserURI       string        `env:"INKWELL_CALENDLY_USER_URI"`
	SchedulingTTL         time.Duration `env:"INKWELL_SCHEDULING_CACHE_TTL"    envDefault:"5m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "site HTTP listen address")
	fs.StringVar(&cfg.ContentStoragePath, "content-storage-path", cfg.ContentStoragePath, "content SQLite database path")
	fs.StringVar(&cfg.NewsletterStoragePath, "newsletter-storage-path", cfg.NewsletterStoragePath, "newsletter SQLite database path")
	fs.StringVar(&cfg.SurveyStoragePath, "survey-storage-path", cfg.SurveyStoragePath, "survey SQLite database path")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for rate-limit counters (in-memory when empty)")
	fs.StringVar(&cfg.ChatBaseURL, "chat-base-url", cfg.ChatBaseURL, "chat service base URL for the live-chat proxy")
	fs.StringVar(&cfg.CalendlyToken, "calendly-token", cfg.CalendlyToken, "calendly API token (scheduling disabled when empty)")
	fs.StringVar(&cfg.CalendlyUserURI, "calendly-user-uri", cfg.CalendlyUserURI, "calendly user resource URI")
	fs.DurationVar(&cfg.SchedulingTTL, "scheduling-cache-ttl", cfg.SchedulingTTL, "scheduling event-type cache TTL")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the site app and serves it until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSite, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:              cfg.HTTPAddr,
			ContentStoragePath:    cfg.ContentStoragePath,
			NewsletterStoragePath: cfg.NewsletterStoragePath,
			SurveyStoragePath:     cfg.SurveyStoragePath,
			RedisAddr:             cfg.RedisAddr,
			ChatBaseURL:           cfg.ChatBaseURL,
			CalendlyToken:         cfg.CalendlyToken,
			CalendlyUserURI:       cfg.CalendlyUserURI,
			SchedulingTTL:         cfg.SchedulingTTL,
		}); err != nil {
			return fmt.Errorf("serve site: %w", err)
		}
		return nil
	})
}
