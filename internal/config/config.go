package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	// AccountEmail is the mailbox the service ingests from; header-derived
	// customer addresses are only accepted when they differ from it.
	AccountEmail string

	PriceFeedBaseURL      string
	PriceFeedToken        string
	PriceFeedRateLimitRPS int
	PriceFeedTimeoutMs    int

	ExtractorBaseURL   string
	ExtractorToken     string
	ExtractorTimeoutMs int
	ExtractorProvider  string

	MatchOKThreshold  float64
	MatchGapThreshold float64

	QuoteNumberPrefix string
	QuoteCurrency     string
	QuoteValidityDays int
	QuoteVATRate      float64

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string

	MailProvider        string
	InquiryQuery        string
	OrderQuery          string
	FetchMax            int
	ListTimeoutSec      int
	InterItemDelayMs    int
	RateLimitCooldownMs int

	SyncIntervalSec int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		AccountEmail: getEnv("ACCOUNT_EMAIL", ""),

		PriceFeedBaseURL:      getEnv("PRICE_FEED_BASE_URL", ""),
		PriceFeedToken:        getEnv("PRICE_FEED_TOKEN", ""),
		PriceFeedRateLimitRPS: getEnvInt("PRICE_FEED_RATE_LIMIT_RPS", 5),
		PriceFeedTimeoutMs:    getEnvInt("PRICE_FEED_TIMEOUT_MS", 30000),

		ExtractorBaseURL:   getEnv("EXTRACTOR_BASE_URL", ""),
		ExtractorToken:     getEnv("EXTRACTOR_TOKEN", ""),
		ExtractorTimeoutMs: getEnvInt("EXTRACTOR_TIMEOUT_MS", 60000),
		ExtractorProvider:  getEnv("EXTRACTOR_PROVIDER", "remote"),

		MatchOKThreshold:  getEnvFloat("MATCH_OK_THRESHOLD", 0.90),
		MatchGapThreshold: getEnvFloat("MATCH_GAP_THRESHOLD", 0.08),

		QuoteNumberPrefix: getEnv("QUOTE_NUMBER_PREFIX", "QTN"),
		QuoteCurrency:     getEnv("QUOTE_CURRENCY", "AED"),
		QuoteValidityDays: getEnvInt("QUOTE_VALIDITY_DAYS", 30),
		QuoteVATRate:      getEnvFloat("QUOTE_VAT_RATE", 0.05),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),

		MailProvider:        getEnv("MAIL_PROVIDER", "gmail"),
		InquiryQuery:        getEnv("INQUIRY_QUERY", "label:inquiries has:attachment"),
		OrderQuery:          getEnv("ORDER_QUERY", "label:orders has:attachment"),
		FetchMax:            getEnvInt("FETCH_MAX", 50),
		ListTimeoutSec:      getEnvInt("LIST_TIMEOUT_SEC", 60),
		InterItemDelayMs:    getEnvInt("INTER_ITEM_DELAY_MS", 500),
		RateLimitCooldownMs: getEnvInt("RATE_LIMIT_COOLDOWN_MS", 2000),

		SyncIntervalSec: getEnvInt("SYNC_INTERVAL_SEC", 300),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
