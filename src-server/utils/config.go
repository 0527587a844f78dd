package utils

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	port       string
	sqlitePath string

	location *time.Location

	redisURL string

	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
	mailFrom string

	metricCollectionInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),
		sqlitePath: func() string {
			sqlitePath := os.Getenv("SQLITE_PATH")
			if sqlitePath == "" {
				sqlitePath = "./sqlite.db"
			}
			slog.Debug("env", "SQLITE_PATH", sqlitePath)
			return sqlitePath
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using America/Sao_Paulo")
				loc, err = time.LoadLocation("America/Sao_Paulo")
				if err != nil {
					slog.Error("can't load default timezone", "error", err)
					os.Exit(1)
				}
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),

		redisURL: func() string {
			redisURL := os.Getenv("REDIS_URL")
			if redisURL == "" {
				slog.Warn("REDIS_URL is not set, using localhost:6379")
				redisURL = "localhost:6379"
			}
			slog.Debug("env", "REDIS_URL", redisURL)
			return redisURL
		}(),

		smtpHost: func() string {
			smtpHost := os.Getenv("SMTP_HOST")
			if smtpHost == "" {
				slog.Error("SMTP_HOST is not set")
				os.Exit(1)
			}
			slog.Debug("env", "SMTP_HOST", smtpHost)
			return smtpHost
		}(),
		smtpPort: func() string {
			smtpPort := os.Getenv("SMTP_PORT")
			if smtpPort == "" {
				smtpPort = "587"
			}
			slog.Debug("env", "SMTP_PORT", smtpPort)
			return smtpPort
		}(),
		smtpUser: func() string {
			smtpUser := os.Getenv("SMTP_USER")
			if smtpUser == "" {
				slog.Warn("SMTP_USER is not set")
			}
			return smtpUser
		}(),
		smtpPass: func() string {
			smtpPass := os.Getenv("SMTP_PASS")
			if smtpPass == "" {
				slog.Warn("SMTP_PASS is not set")
			}
			return smtpPass
		}(),
		mailFrom: func() string {
			mailFrom := os.Getenv("MAIL_FROM")
			if mailFrom == "" {
				slog.Error("MAIL_FROM is not set")
				os.Exit(1)
			}
			slog.Debug("env", "MAIL_FROM", mailFrom)
			return mailFrom
		}(),

		metricCollectionInterval: func() time.Duration {
			metricCollectionInterval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if metricCollectionInterval == "" {
				metricCollectionInterval = "60s"
			}
			duration, err := time.ParseDuration(metricCollectionInterval)
			if err != nil {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", metricCollectionInterval, "duration", duration)
			return duration
		}(),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get SQLITE_PATH env, default to ./sqlite.db
func (c *Config) GetSqlitePath() string {
	return c.sqlitePath
}

// Get TIMEZONE env; the reference zone for day windows and mail dates
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get REDIS_URL env
func (c *Config) GetRedisURL() string {
	return c.redisURL
}

// Get SMTP_HOST env
func (c *Config) GetSMTPHost() string {
	return c.smtpHost
}

// Get SMTP_PORT env, default to 587
func (c *Config) GetSMTPPort() string {
	return c.smtpPort
}

// Get SMTP_USER env
func (c *Config) GetSMTPUser() string {
	return c.smtpUser
}

// Get SMTP_PASS env
func (c *Config) GetSMTPPass() string {
	return c.smtpPass
}

// Get MAIL_FROM env
func (c *Config) GetMailFrom() string {
	return c.mailFrom
}

// Get METRIC_COLLECTION_INTERVAL env
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}
