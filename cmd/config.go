package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/agendabot/internal/calendar"
	"github.com/teemow/agendabot/internal/gemini"
	"github.com/teemow/agendabot/internal/google"
	"github.com/teemow/agendabot/internal/session"
	"github.com/teemow/agendabot/internal/whatsapp"
)

// AppConfig holds every setting of the assistant.
type AppConfig struct {
	HTTPAddr string
	BaseURL  string

	Google google.Config

	GeminiAPIKey      string
	GeminiModel       string
	ValidationRetries int

	Twilio                  whatsapp.Config
	ValidateTwilioSignature bool

	CalendarTimeZone string
	CalendarID       string

	SessionStore         string
	SQLitePath           string
	ValkeyURL            string
	ValkeyPassword       string
	ValkeyTLS            bool
	ValkeyDB             int
	ValkeyKeyPrefix      string
	FirestoreProjectID   string
	FirestoreCredentials string
	FirestoreCollection  string
	SessionEncryptionKey string

	SerializeTurns bool

	LogLevel  string
	LogFormat string

	MetricsEnabled bool
	MetricsAddr    string
}

// envBinding maps a flag to the environment variable used when the flag is
// not given on the command line.
type envBinding struct {
	flag string
	env  string
}

var envBindings = []envBinding{
	{"base-url", "BASE_URL"},
	{"google-client-id", "GOOGLE_CLIENT_ID"},
	{"google-client-secret", "GOOGLE_CLIENT_SECRET"},
	{"google-redirect-uri", "GOOGLE_REDIRECT_URI"},
	{"gemini-api-key", "GEMINI_API_KEY"},
	{"gemini-model", "GEMINI_MODEL"},
	{"validation-retries", "LLM_VALIDATION_RETRIES"},
	{"twilio-account-sid", "TWILIO_ACCOUNT_SID"},
	{"twilio-auth-token", "TWILIO_AUTH_TOKEN"},
	{"twilio-whatsapp-number", "TWILIO_WHATSAPP_NUMBER"},
	{"validate-twilio-signature", "TWILIO_VALIDATE_SIGNATURE"},
	{"calendar-timezone", "CALENDAR_TIMEZONE"},
	{"calendar-id", "CALENDAR_ID"},
	{"session-store", "SESSION_STORE"},
	{"sqlite-path", "SQLITE_PATH"},
	{"valkey-url", "VALKEY_URL"},
	{"valkey-password", "VALKEY_PASSWORD"},
	{"valkey-tls", "VALKEY_TLS_ENABLED"},
	{"valkey-db", "VALKEY_DB"},
	{"valkey-key-prefix", "VALKEY_KEY_PREFIX"},
	{"firestore-project-id", "FIRESTORE_PROJECT_ID"},
	{"firestore-credentials-file", "FIRESTORE_CREDENTIALS_FILE"},
	{"firestore-collection", "FIRESTORE_COLLECTION"},
	{"session-encryption-key", "SESSION_ENCRYPTION_KEY"},
	{"serialize-turns", "SERIALIZE_TURNS"},
	{"log-level", "LOG_LEVEL"},
	{"log-format", "LOG_FORMAT"},
	{"metrics-enabled", "METRICS_ENABLED"},
	{"metrics-addr", "METRICS_ADDR"},
}

// bindFlags registers the configuration flags on cmd.
func bindFlags(cmd *cobra.Command, cfg *AppConfig) {
	f := cmd.Flags()

	f.StringVar(&cfg.HTTPAddr, "http-addr", ":3000", "HTTP listen address. Can also use PORT env var.")
	f.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL used in authorization links. Can also use BASE_URL env var.")

	f.StringVar(&cfg.Google.ClientID, "google-client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	f.StringVar(&cfg.Google.ClientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	f.StringVar(&cfg.Google.RedirectURL, "google-redirect-uri", "", "OAuth redirect URI. Defaults to <base-url>/oauth2callback. Can also use GOOGLE_REDIRECT_URI env var.")

	f.StringVar(&cfg.GeminiAPIKey, "gemini-api-key", "", "Gemini API key. Can also use GEMINI_API_KEY env var.")
	f.StringVar(&cfg.GeminiModel, "gemini-model", gemini.DefaultModel, "Gemini model name. Can also use GEMINI_MODEL env var.")
	f.IntVar(&cfg.ValidationRetries, "validation-retries", 0, "Extra model calls when the answer fails schema validation. Can also use LLM_VALIDATION_RETRIES env var.")

	f.StringVar(&cfg.Twilio.AccountSID, "twilio-account-sid", "", "Twilio account SID. Can also use TWILIO_ACCOUNT_SID env var.")
	f.StringVar(&cfg.Twilio.AuthToken, "twilio-auth-token", "", "Twilio auth token. Can also use TWILIO_AUTH_TOKEN env var.")
	f.StringVar(&cfg.Twilio.From, "twilio-whatsapp-number", "", "Twilio WhatsApp sender number. Can also use TWILIO_WHATSAPP_NUMBER env var.")
	f.BoolVar(&cfg.ValidateTwilioSignature, "validate-twilio-signature", false, "Reject webhook requests without a valid X-Twilio-Signature. Can also use TWILIO_VALIDATE_SIGNATURE env var.")

	f.StringVar(&cfg.CalendarTimeZone, "calendar-timezone", calendar.DefaultTimeZone, "Civil time zone for interpreting and showing times. Can also use CALENDAR_TIMEZONE env var.")
	f.StringVar(&cfg.CalendarID, "calendar-id", "primary", "Google Calendar ID. Can also use CALENDAR_ID env var.")

	f.StringVar(&cfg.SessionStore, "session-store", session.BackendMemory, "Session store: memory, sqlite, valkey or firestore. Can also use SESSION_STORE env var.")
	f.StringVar(&cfg.SQLitePath, "sqlite-path", "agendabot.db", "SQLite database path. Can also use SQLITE_PATH env var.")
	f.StringVar(&cfg.ValkeyURL, "valkey-url", "", "Valkey address or redis:// URL. Can also use VALKEY_URL env var.")
	f.StringVar(&cfg.ValkeyPassword, "valkey-password", "", "Valkey password. Can also use VALKEY_PASSWORD env var.")
	f.BoolVar(&cfg.ValkeyTLS, "valkey-tls", false, "Enable TLS for Valkey connections. Can also use VALKEY_TLS_ENABLED env var.")
	f.IntVar(&cfg.ValkeyDB, "valkey-db", 0, "Valkey database number. Can also use VALKEY_DB env var.")
	f.StringVar(&cfg.ValkeyKeyPrefix, "valkey-key-prefix", "agendabot:session:", "Prefix for Valkey keys. Can also use VALKEY_KEY_PREFIX env var.")
	f.StringVar(&cfg.FirestoreProjectID, "firestore-project-id", "", "Firestore project ID. Can also use FIRESTORE_PROJECT_ID env var.")
	f.StringVar(&cfg.FirestoreCredentials, "firestore-credentials-file", "", "Service account key for Firestore. Can also use FIRESTORE_CREDENTIALS_FILE env var.")
	f.StringVar(&cfg.FirestoreCollection, "firestore-collection", "users", "Firestore collection for sessions. Can also use FIRESTORE_COLLECTION env var.")
	f.StringVar(&cfg.SessionEncryptionKey, "session-encryption-key", "", "AES-256 key for credentials at rest (32 bytes, base64). Generate with: agendabot generate-key. Can also use SESSION_ENCRYPTION_KEY env var.")

	f.BoolVar(&cfg.SerializeTurns, "serialize-turns", false, "Run at most one turn per sender at a time. Can also use SERIALIZE_TURNS env var.")

	f.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	f.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json. Can also use LOG_FORMAT env var.")

	f.BoolVar(&cfg.MetricsEnabled, "metrics-enabled", true, "Enable instrumentation and the metrics server. Can also use METRICS_ENABLED env var.")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")
}

// loadEnvVars applies environment variables to flags that were not
// explicitly set.
func loadEnvVars(cmd *cobra.Command, cfg *AppConfig) error {
	flags := cmd.Flags()
	for _, b := range envBindings {
		if flags.Lookup(b.flag) == nil || flags.Changed(b.flag) {
			continue
		}
		value, ok := os.LookupEnv(b.env)
		if !ok || value == "" {
			continue
		}
		if err := flags.Set(b.flag, value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", b.env, err)
		}
	}

	// PORT carries only the port number, as on most hosting platforms.
	if flags.Lookup("http-addr") != nil && !flags.Changed("http-addr") {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + strings.TrimPrefix(port, ":")
		}
	}

	if cfg.Google.RedirectURL == "" && cfg.BaseURL != "" {
		cfg.Google.RedirectURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/oauth2callback"
	}
	return nil
}

// Location resolves the configured time zone.
func (c *AppConfig) Location() (*time.Location, error) {
	return calendar.LoadLocation(c.CalendarTimeZone)
}

// SessionConfig builds the session store configuration.
func (c *AppConfig) SessionConfig() (session.Config, error) {
	cfg := session.Config{
		Backend:    c.SessionStore,
		SQLitePath: c.SQLitePath,
		Valkey: session.ValkeyConfig{
			URL:        c.ValkeyURL,
			Password:   c.ValkeyPassword,
			TLSEnabled: c.ValkeyTLS,
			KeyPrefix:  c.ValkeyKeyPrefix,
			DB:         c.ValkeyDB,
		},
		Firestore: session.FirestoreConfig{
			ProjectID:       c.FirestoreProjectID,
			CredentialsFile: c.FirestoreCredentials,
			Collection:      c.FirestoreCollection,
		},
	}
	if c.SessionEncryptionKey != "" {
		key, err := session.KeyFromBase64(c.SessionEncryptionKey)
		if err != nil {
			return cfg, fmt.Errorf("invalid session encryption key: %w", err)
		}
		cfg.EncryptionKey = key
	}
	return cfg, cfg.Validate()
}

// validateCore checks the settings every turn-running command needs.
func (c *AppConfig) validateCore() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required (--base-url or BASE_URL)"))
	}
	if err := c.Google.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("gemini API key is required (--gemini-api-key or GEMINI_API_KEY)"))
	}
	if c.ValidationRetries < 0 {
		errs = append(errs, fmt.Errorf("validation retries must be non-negative, got %d", c.ValidationRetries))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SessionConfig(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the configuration needed by serve.
func (c *AppConfig) Validate() error {
	errs := []error{c.validateCore()}
	if err := c.Twilio.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
