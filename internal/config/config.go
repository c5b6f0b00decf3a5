package config

import "os"

type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Postgres   PostgresConfig
	SMTP       SMTPConfig
	Storage    StorageConfig
	Summarizer SummarizerConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins string
}

type AuthConfig struct {
	AccessTTL         string
	RefreshTTL        string
	AccessPrivateKey  string
	AccessPublicKey   string
	RefreshPrivateKey string
	RefreshPublicKey  string
	BcryptCost        string
	OTPTTL            string
	OTPDigits         string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	From      string
	QueueSize string
}

type StorageConfig struct {
	Backend     string
	UploadDir   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

type SummarizerConfig struct {
	APIKey string
}

type RateLimitConfig struct {
	RedisAddr string
	Limit     string
	Window    string
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:        getenv("PORT", "8080"),
			CORSOrigins: getenv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Auth: AuthConfig{
			AccessTTL:         getenv("ACCESS_TOKEN_TTL", "15m"),
			RefreshTTL:        getenv("REFRESH_TOKEN_TTL", "168h"),
			AccessPrivateKey:  getenv("ACCESS_PRIVATE_KEY", "keys/private.key"),
			AccessPublicKey:   getenv("ACCESS_PUBLIC_KEY", "keys/public.key"),
			RefreshPrivateKey: getenv("REFRESH_PRIVATE_KEY", "keys/refresh_private.key"),
			RefreshPublicKey:  getenv("REFRESH_PUBLIC_KEY", "keys/refresh_public.key"),
			BcryptCost:        os.Getenv("BCRYPT_COST"),
			OTPTTL:            getenv("OTP_TTL", "10m"),
			OTPDigits:         getenv("OTP_DIGITS", "4"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		SMTP: SMTPConfig{
			Host:      getenv("SMTP_HOST", "smtp.gmail.com"),
			Port:      getenv("SMTP_PORT", "465"),
			Username:  os.Getenv("EMAIL_USER"),
			Password:  os.Getenv("EMAIL_PASS"),
			From:      getenv("EMAIL_FROM", "Note App <no-reply@notevault.dev>"),
			QueueSize: getenv("MAIL_QUEUE_SIZE", "64"),
		},
		Storage: StorageConfig{
			Backend:     getenv("STORAGE_BACKEND", "local"),
			UploadDir:   getenv("UPLOAD_DIR", "uploads"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Region:    getenv("S3_REGION", "us-east-1"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		Summarizer: SummarizerConfig{
			APIKey: os.Getenv("AI_API_KEY"),
		},
		RateLimit: RateLimitConfig{
			RedisAddr: os.Getenv("REDIS_ADDR"),
			Limit:     getenv("RATE_LIMIT", "100"),
			Window:    getenv("RATE_WINDOW", "15m"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
