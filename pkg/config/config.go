package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL    string
	DatabaseDriver string
	AutoMigrate    bool

	AuthJWTSecret     []byte
	AuthJWTPublicKey  string
	AuthWebhookSecret string
	AdminUserIDs      []string

	StripeSecretKey     string
	StripeWebhookSecret string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalBaseURL      string

	StoreURL string
	Currency string

	RedisURL string
	CacheTTL time.Duration

	KafkaBrokers []string

	ESURL          string
	ESUser         string
	ESPassword     string
	ESProductIndex string

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string
	S3UsePathStyle bool

	ResendAPIKey   string
	ResendBaseURL  string
	NewsletterFrom string

	CORSOrigins  []string
	CookieSecure bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "storefront")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "pgx")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com")
	v.SetDefault("STORE_URL", "http://localhost:3000")
	v.SetDefault("CURRENCY", "usd")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("ES_PRODUCT_INDEX", "products")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_PATH_STYLE", true)
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")
	v.SetDefault("NEWSLETTER_FROM", "Store <newsletter@example.com>")
}

// Load reads envFiles (missing files are ignored) and then the process environment.
func Load(envFiles ...string) Config {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Config{
		ServiceName: v.GetString("SERVICE_NAME"),
		ServerPort:  v.GetInt("SERVER_PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		DatabaseURL:    v.GetString("DATABASE_URL"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		AutoMigrate:    v.GetBool("DB_AUTO_MIGRATE"),

		AuthJWTSecret:     []byte(v.GetString("AUTH_JWT_SECRET")),
		AuthJWTPublicKey:  v.GetString("AUTH_JWT_PUBLIC_KEY"),
		AuthWebhookSecret: v.GetString("AUTH_WEBHOOK_SECRET"),
		AdminUserIDs:      CSV(v.GetString("ADMIN_USER_IDS")),

		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),

		PayPalClientID:     v.GetString("PAYPAL_CLIENT_ID"),
		PayPalClientSecret: v.GetString("PAYPAL_CLIENT_SECRET"),
		PayPalBaseURL:      strings.TrimRight(v.GetString("PAYPAL_BASE_URL"), "/"),

		StoreURL: strings.TrimRight(v.GetString("STORE_URL"), "/"),
		Currency: strings.ToLower(v.GetString("CURRENCY")),

		RedisURL: v.GetString("REDIS_URL"),
		CacheTTL: v.GetDuration("CACHE_TTL"),

		KafkaBrokers: CSV(v.GetString("KAFKA_BROKERS")),

		ESURL:          v.GetString("ES_URL"),
		ESUser:         v.GetString("ES_USER"),
		ESPassword:     v.GetString("ES_PASSWORD"),
		ESProductIndex: v.GetString("ES_PRODUCT_INDEX"),

		S3Endpoint:     v.GetString("S3_ENDPOINT"),
		S3Region:       v.GetString("S3_REGION"),
		S3Bucket:       v.GetString("S3_BUCKET"),
		S3AccessKey:    v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:    v.GetString("S3_SECRET_KEY"),
		S3PublicURL:    strings.TrimRight(v.GetString("S3_PUBLIC_URL"), "/"),
		S3UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),

		ResendAPIKey:   v.GetString("RESEND_API_KEY"),
		ResendBaseURL:  strings.TrimRight(v.GetString("RESEND_BASE_URL"), "/"),
		NewsletterFrom: v.GetString("NEWSLETTER_FROM"),

		CORSOrigins:  CSV(v.GetString("CORS_ORIGINS")),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
