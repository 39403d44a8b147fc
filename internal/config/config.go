package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port    string
	LogMode string

	// AllowedOrigins enables CORS for the listed origins. Empty disables it.
	AllowedOrigins []string
}

// DataConfig points at the snapshot directory and optional KPI overrides.
type DataConfig struct {
	ProcessedDir   string
	ThresholdsFile string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	FieldTeamID   string
}

// Enabled reports whether the field team digest can be delivered.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	FarmersRange    string
	BMCsRange       string
	FieldTeamsRange string
	ActionsRange    string
}

// Enabled reports whether a spreadsheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	SnapshotSchedule string
	DigestSchedule   string
	Timezone         string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether evaluation history should be stored.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when everything comes from the environment.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			LogMode:        getenvWithDefault("LOG_MODE", "production"),
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Data: DataConfig{
			ProcessedDir:   getenvWithDefault("PROCESSED_DATA_DIR", "processed_data"),
			ThresholdsFile: os.Getenv("KPI_THRESHOLDS_FILE"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			FieldTeamID:   os.Getenv("WHATSAPP_FIELD_TEAM_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			FarmersRange:    getenvWithDefault("SHEET_FARMERS_RANGE", "Farmers!A:I"),
			BMCsRange:       getenvWithDefault("SHEET_BMCS_RANGE", "BMCs!A:N"),
			FieldTeamsRange: getenvWithDefault("SHEET_FIELD_TEAMS_RANGE", "FieldTeams!A:I"),
			ActionsRange:    getenvWithDefault("SHEET_ACTIONS_RANGE", "Actions!A:C"),
		},
		Reporting: ReportingConfig{
			SnapshotSchedule: getenvWithDefault("SNAPSHOT_CRON_SCHEDULE", "0 * * * *"),
			DigestSchedule:   getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 7 * * 1"),
			Timezone:         getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "dairy_dashboard"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and that
// optional integrations are either fully configured or switched off.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Server.LogMode {
	case "production", "development":
	default:
		return fmt.Errorf("LOG_MODE must be production or development, got %q", c.Server.LogMode)
	}

	if c.Data.ProcessedDir == "" {
		return errors.New("PROCESSED_DATA_DIR must not be empty")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.FieldTeamID == "":
			return errors.New("WHATSAPP_FIELD_TEAM_ID must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Reporting.SnapshotSchedule == "" {
		return errors.New("SNAPSHOT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
