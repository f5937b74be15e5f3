package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Scheduling SchedulingConfig
	Billing    BillingConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	TimeZone    string
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// SchedulingConfig holds the working-day constants used by availability and
// slot suggestion. Hours are local to Location.
type SchedulingConfig struct {
	Location          *time.Location
	WorkdayStartHour  int
	WorkdayEndHour    int
	EveningEndHour    int
	SlotDuration      time.Duration
	SuggestionDays    int
	SuggestionLimit   int
	HistorySampleSize int
	LockTTL           time.Duration
	TelehealthBaseURL string
}

type BillingConfig struct {
	DefaultDueDays int
	NumberRetries  int
	UpdateRetries  int
	Sequencer      string
	SweepInterval  time.Duration
}

const (
	SequencerStore = "store"
	SequencerRedis = "redis"
)

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_AUTO_MIGRATE", false)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("JWT_ISSUER", "practice-api")

	viper.SetDefault("PRACTICE_TIMEZONE", "UTC")
	viper.SetDefault("WORKDAY_START_HOUR", 9)
	viper.SetDefault("WORKDAY_END_HOUR", 17)
	viper.SetDefault("EVENING_END_HOUR", 19)
	viper.SetDefault("SLOT_MINUTES", 30)
	viper.SetDefault("SUGGESTION_DAYS", 7)
	viper.SetDefault("SUGGESTION_LIMIT", 5)
	viper.SetDefault("HISTORY_SAMPLE_SIZE", 5)
	viper.SetDefault("SCHEDULE_LOCK_TTL", "5s")
	viper.SetDefault("TELEHEALTH_BASE_URL", "https://meet.practice.local/room")

	viper.SetDefault("BILLING_DEFAULT_DUE_DAYS", 30)
	viper.SetDefault("BILLING_NUMBER_RETRIES", 3)
	viper.SetDefault("BILLING_UPDATE_RETRIES", 3)
	viper.SetDefault("BILLING_SEQUENCER", SequencerStore)
	viper.SetDefault("BILLING_SWEEP_INTERVAL", "1m")
}

func LoadConfig() (*Config, error) {
	setDefaults()
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// A missing .env is fine when everything comes from the environment.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	location, err := time.LoadLocation(viper.GetString("PRACTICE_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRACTICE_TIMEZONE: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Port:     viper.GetString("APP_PORT"),
			Env:      viper.GetString("APP_ENV"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASSWORD"),
			Name:        viper.GetString("DB_NAME"),
			SSLMode:     viper.GetString("DB_SSLMODE"),
			TimeZone:    viper.GetString("DB_TIMEZONE"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			Issuer:        viper.GetString("JWT_ISSUER"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Scheduling: SchedulingConfig{
			Location:          location,
			WorkdayStartHour:  viper.GetInt("WORKDAY_START_HOUR"),
			WorkdayEndHour:    viper.GetInt("WORKDAY_END_HOUR"),
			EveningEndHour:    viper.GetInt("EVENING_END_HOUR"),
			SlotDuration:      time.Duration(viper.GetInt("SLOT_MINUTES")) * time.Minute,
			SuggestionDays:    viper.GetInt("SUGGESTION_DAYS"),
			SuggestionLimit:   viper.GetInt("SUGGESTION_LIMIT"),
			HistorySampleSize: viper.GetInt("HISTORY_SAMPLE_SIZE"),
			LockTTL:           viper.GetDuration("SCHEDULE_LOCK_TTL"),
			TelehealthBaseURL: viper.GetString("TELEHEALTH_BASE_URL"),
		},
		Billing: BillingConfig{
			DefaultDueDays: viper.GetInt("BILLING_DEFAULT_DUE_DAYS"),
			NumberRetries:  viper.GetInt("BILLING_NUMBER_RETRIES"),
			UpdateRetries:  viper.GetInt("BILLING_UPDATE_RETRIES"),
			Sequencer:      viper.GetString("BILLING_SEQUENCER"),
			SweepInterval:  viper.GetDuration("BILLING_SWEEP_INTERVAL"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Scheduling.WorkdayStartHour >= c.Scheduling.WorkdayEndHour {
		return errors.New("WORKDAY_START_HOUR must be before WORKDAY_END_HOUR")
	}
	if c.Scheduling.SlotDuration <= 0 {
		return errors.New("SLOT_MINUTES must be positive")
	}
	if c.Billing.SweepInterval <= 0 {
		return errors.New("BILLING_SWEEP_INTERVAL must be positive")
	}
	if c.Billing.Sequencer != SequencerStore && c.Billing.Sequencer != SequencerRedis {
		return fmt.Errorf("BILLING_SEQUENCER must be %q or %q", SequencerStore, SequencerRedis)
	}
	return nil
}

// DefaultScheduling returns the standard 09:00-17:00, 30-minute setup in loc.
func DefaultScheduling(loc *time.Location) SchedulingConfig {
	if loc == nil {
		loc = time.UTC
	}
	return SchedulingConfig{
		Location:          loc,
		WorkdayStartHour:  9,
		WorkdayEndHour:    17,
		EveningEndHour:    19,
		SlotDuration:      30 * time.Minute,
		SuggestionDays:    7,
		SuggestionLimit:   5,
		HistorySampleSize: 5,
		LockTTL:           5 * time.Second,
		TelehealthBaseURL: "https://meet.practice.local/room",
	}
}

// DefaultBilling returns the standard billing settings.
func DefaultBilling() BillingConfig {
	return BillingConfig{
		DefaultDueDays: 30,
		NumberRetries:  3,
		UpdateRetries:  3,
		Sequencer:      SequencerStore,
		SweepInterval:  time.Minute,
	}
}
