package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreSheets = "sheets"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Holiday sources.
const (
	HolidayGoogle = "google"
	HolidayICS    = "ics"
	HolidayCalDAV = "caldav"
	HolidayNone   = "none"
)

// DefaultHolidayCalendarID is Google's public South Korean holiday calendar.
const DefaultHolidayCalendarID = "ko.south_korea#holiday@group.v.calendar.google.com"

// GoogleConfig holds OAuth client and service-account settings.
type GoogleConfig struct {
	ClientID            string `yaml:"client_id"`
	ClientSecret        string `yaml:"client_secret"`
	CallbackURL         string `yaml:"callback_url"`
	ServiceAccountEmail string `yaml:"service_account_email"`
	PrivateKey          string `yaml:"private_key"`
	CredentialsFile     string `yaml:"credentials_file"`
}

// StoreConfig selects and configures the event table.
type StoreConfig struct {
	Driver        string `yaml:"driver"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	SheetName     string `yaml:"sheet_name"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// HolidayConfig selects and configures the holiday feed.
type HolidayConfig struct {
	Source         string `yaml:"source"`
	CalendarID     string `yaml:"calendar_id"`
	ICSURL         string `yaml:"ics_url"`
	CalDAVURL      string `yaml:"caldav_url"`
	CalDAVUsername string `yaml:"caldav_username"`
	CalDAVPassword string `yaml:"caldav_password"`
	CalDAVCalendar string `yaml:"caldav_calendar"`
}

// AccessConfig holds the login and admin allowlists.
type AccessConfig struct {
	AllowedDomains []string `yaml:"allowed_domains"`
	AllowedEmails  []string `yaml:"allowed_emails"`
	AdminEmails    []string `yaml:"admin_emails"`
}

// Config is the top-level application configuration.
type Config struct {
	Port            string        `yaml:"port"`
	Env             string        `yaml:"env"`
	LogLevel        string        `yaml:"log_level"`
	SessionSecret   string        `yaml:"session_secret"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	Timezone        string        `yaml:"timezone"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	SchoolNameKo    string        `yaml:"school_name_ko"`
	SchoolNameEn    string        `yaml:"school_name_en"`

	Google  GoogleConfig  `yaml:"google"`
	Store   StoreConfig   `yaml:"store"`
	Holiday HolidayConfig `yaml:"holiday"`
	Access  AccessConfig  `yaml:"access"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:            "3000",
		Env:             "development",
		LogLevel:        "info",
		SessionSecret:   "dev_secret",
		SessionTTL:      24 * time.Hour,
		Timezone:        "Asia/Seoul",
		UpstreamTimeout: 10 * time.Second,
		SchoolNameKo:    "스쿨",
		SchoolNameEn:    "School",
		Store: StoreConfig{
			Driver:     StoreSheets,
			SheetName:  "events",
			SQLitePath: "schoolcal.db",
		},
		Holiday: HolidayConfig{
			Source:     HolidayGoogle,
			CalendarID: DefaultHolidayCalendarID,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if path
// is set and the file exists), then environment variables, which win.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// optional file
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Env, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.SessionSecret, "SESSION_SECRET")
	setString(&c.Timezone, "TIMEZONE")
	setString(&c.SchoolNameKo, "SCHOOL_NAME_KO")
	setString(&c.SchoolNameEn, "SCHOOL_NAME_EN")
	if err := setDuration(&c.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.UpstreamTimeout, "UPSTREAM_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.Google.CallbackURL, "GOOGLE_CALLBACK_URL")
	setString(&c.Google.ServiceAccountEmail, "GOOGLE_SERVICE_ACCOUNT_EMAIL")
	setString(&c.Google.PrivateKey, "GOOGLE_PRIVATE_KEY")
	setString(&c.Google.CredentialsFile, "GOOGLE_CREDENTIALS_FILE")

	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Store.SpreadsheetID, "SPREADSHEET_ID")
	setString(&c.Store.SheetName, "SHEET_NAME")
	setString(&c.Store.SQLitePath, "SQLITE_PATH")

	setString(&c.Holiday.Source, "HOLIDAY_SOURCE")
	setString(&c.Holiday.CalendarID, "HOLIDAY_CALENDAR_ID")
	setString(&c.Holiday.ICSURL, "HOLIDAY_ICS_URL")
	setString(&c.Holiday.CalDAVURL, "CALDAV_URL")
	setString(&c.Holiday.CalDAVUsername, "CALDAV_USERNAME")
	setString(&c.Holiday.CalDAVPassword, "CALDAV_PASSWORD")
	setString(&c.Holiday.CalDAVCalendar, "CALDAV_CALENDAR_NAME")

	setList(&c.Access.AllowedDomains, "ALLOWED_DOMAINS")
	setList(&c.Access.AllowedEmails, "ALLOWED_EMAILS")
	setList(&c.Access.AdminEmails, "ADMIN_EMAILS")
	return nil
}

// Normalize fills in missing values so partially-filled files still behave.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = d.UpstreamTimeout
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.Store.Driver == "" {
		c.Store.Driver = d.Store.Driver
	}
	if c.Store.SheetName == "" {
		c.Store.SheetName = d.Store.SheetName
	}
	if c.Holiday.Source == "" {
		c.Holiday.Source = d.Holiday.Source
	}
	if c.Holiday.CalendarID == "" {
		c.Holiday.CalendarID = d.Holiday.CalendarID
	}
	// keys pasted into env files keep their newlines escaped
	c.Google.PrivateKey = strings.ReplaceAll(c.Google.PrivateKey, `\n`, "\n")
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	c.Holiday.Source = strings.ToLower(c.Holiday.Source)
}

// Validate reports settings that make the service unable to start.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreSheets:
		if c.Store.SpreadsheetID == "" {
			return errors.New("SPREADSHEET_ID is required for the sheets store")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Holiday.Source {
	case HolidayGoogle, HolidayNone:
	case HolidayICS:
		if c.Holiday.ICSURL == "" {
			return errors.New("HOLIDAY_ICS_URL is required for the ics holiday source")
		}
	case HolidayCalDAV:
		if c.Holiday.CalDAVURL == "" || c.Holiday.CalDAVCalendar == "" {
			return errors.New("CALDAV_URL and CALDAV_CALENDAR_NAME are required for the caldav holiday source")
		}
	default:
		return fmt.Errorf("unknown holiday source %q", c.Holiday.Source)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Production reports whether cookies should be marked Secure.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// NeedsServiceAccount reports whether any configured component calls Google APIs.
func (c *Config) NeedsServiceAccount() bool {
	return c.Store.Driver == StoreSheets || c.Holiday.Source == HolidayGoogle
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

// setList reads a comma-separated list. Blank entries are dropped.
func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
