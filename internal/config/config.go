package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string // secret used to sign access tokens
	AccessTTLMin   int    // access token lifetime in minutes
	RefreshTTLDays int    // refresh token lifetime in days
	BcryptCost     int

	Booking   BookingConfig
	Broker    BrokerConfig
	Mail      MailConfig
	Scheduler SchedulerConfig
}

// BookingConfig carries the facility constants.
type BookingConfig struct {
	MaxPetsPerDay    int   // MAX_PETS_PER_DAY
	NightlyRateCents int64 // NIGHTLY_RATE_CENTS, per pet per night
	HorizonMonths    int   // BOOKING_HORIZON_MONTHS
}

// BrokerConfig points at RabbitMQ.  An empty URL disables publishing and
// the consumer.
type BrokerConfig struct {
	URL      string
	Queue    string
	EventLog string // file the consumer appends one line per event to
}

// MailConfig configures outgoing confirmation mail.  An empty Host
// disables mail.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SchedulerConfig holds the maintenance job schedule.
type SchedulerConfig struct {
	Enabled       bool
	ReconcileCron string // crontab for counter reconciliation and purges
	JobTimeout    time.Duration
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		Booking:        LoadBookingConfig(),
		Broker: BrokerConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Queue:    envStr("RABBITMQ_QUEUE", "reservation_events"),
			EventLog: envStr("RESERVATION_LOG", "logs/reservations.log"),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envStr("SMTP_FROM", "reservas@localhost"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       envBool("SCHEDULER_ENABLED", true),
			ReconcileCron: envStr("RECONCILE_CRON", "30 3 * * *"),
			JobTimeout:    envDur("SCHEDULER_JOB_TIMEOUT", 2*time.Minute),
		},
	}
}

// LoadBookingConfig reads the facility constants, falling back to 7 pets a
// day, 18.00 per pet and night and a two month window.  Non-positive
// values are replaced by the defaults.
func LoadBookingConfig() BookingConfig {
	b := BookingConfig{
		MaxPetsPerDay:    envInt("MAX_PETS_PER_DAY", 7),
		NightlyRateCents: int64(envInt("NIGHTLY_RATE_CENTS", 1800)),
		HorizonMonths:    envInt("BOOKING_HORIZON_MONTHS", 2),
	}
	if b.MaxPetsPerDay < 1 {
		b.MaxPetsPerDay = 7
	}
	if b.NightlyRateCents < 1 {
		b.NightlyRateCents = 1800
	}
	if b.HorizonMonths < 1 {
		b.HorizonMonths = 2
	}
	return b
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
