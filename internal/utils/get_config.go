package utils

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// Server
	Port      string `yaml:"PORT"`
	JWTSecret string `yaml:"JWT_SECRET"`

	// Mailing configuration
	AppURL                    string `yaml:"APP_URL"`
	SMTPHost                  string `yaml:"SMTP_HOST"`
	SMTPPort                  string `yaml:"SMTP_PORT"`
	SMTPSenderName            string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail             string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword          string `yaml:"SMTP_AUTH_PASSWORD"`
	EmailFrom                 string `yaml:"EMAIL_FROM"`
	VolunteerCoordinatorEmail string `yaml:"VOLUNTEER_COORDINATOR_EMAIL"`
	VolunteerAdminEmail       string `yaml:"VOLUNTEER_ADMIN_EMAIL"`

	// AWS S3 configuration
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// Cache and notifications
	RedisURL        string `yaml:"REDIS_URL"`
	StatsCacheTTL   string `yaml:"STATS_CACHE_TTL"`
	NotifyWorkers   string `yaml:"NOTIFY_WORKERS"`
	NotifyQueueSize string `yaml:"NOTIFY_QUEUE_SIZE"`
}

var (
	config     Config
	configOnce sync.Once
)

// LoadConfig reads config.yaml, then lets .env and the process environment
// override any key. It only runs once per process.
func LoadConfig() {
	configOnce.Do(loadConfig)
}

func loadConfig() {
	file, err := os.ReadFile("config.yaml")
	if err != nil {
		log.Warnf("config.yaml not loaded: %v", err)
	} else if err := yaml.Unmarshal(file, &config); err != nil {
		log.Errorf("error parsing config.yaml: %v", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf(".env not loaded: %v", err)
	}

	for key, field := range config.fields() {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}
}

func (c *Config) fields() map[string]*string {
	return map[string]*string{
		"DB_USER":                     &c.DBUser,
		"DB_NAME":                     &c.DBName,
		"DB_PASSWORD":                 &c.DBPassword,
		"DB_PORT":                     &c.DBPort,
		"DB_HOST":                     &c.DBHost,
		"PORT":                        &c.Port,
		"JWT_SECRET":                  &c.JWTSecret,
		"APP_URL":                     &c.AppURL,
		"SMTP_HOST":                   &c.SMTPHost,
		"SMTP_PORT":                   &c.SMTPPort,
		"SMTP_SENDER_NAME":            &c.SMTPSenderName,
		"SMTP_AUTH_EMAIL":             &c.SMTPAuthEmail,
		"SMTP_AUTH_PASSWORD":          &c.SMTPAuthPassword,
		"EMAIL_FROM":                  &c.EmailFrom,
		"VOLUNTEER_COORDINATOR_EMAIL": &c.VolunteerCoordinatorEmail,
		"VOLUNTEER_ADMIN_EMAIL":       &c.VolunteerAdminEmail,
		"AWS_S3_BUCKET":               &c.AWSS3Bucket,
		"AWS_S3_REGION":               &c.AWSS3Region,
		"AWS_ACCESS_KEY":              &c.AWSAccessKey,
		"AWS_SECRET_KEY":              &c.AWSSecretKey,
		"REDIS_URL":                   &c.RedisURL,
		"STATS_CACHE_TTL":             &c.StatsCacheTTL,
		"NOTIFY_WORKERS":              &c.NotifyWorkers,
		"NOTIFY_QUEUE_SIZE":           &c.NotifyQueueSize,
	}
}

func GetConfig(key string) string {
	LoadConfig()
	if field, ok := config.fields()[key]; ok {
		return *field
	}
	return ""
}

// GetConfigOr returns fallback when key is unset.
func GetConfigOr(key, fallback string) string {
	if v := GetConfig(key); v != "" {
		return v
	}
	return fallback
}

func GetConfigInt(key string, fallback int) int {
	v, err := strconv.Atoi(GetConfig(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// GetConfigDuration accepts Go duration strings ("30s") or a plain number of seconds.
func GetConfigDuration(key string, fallback time.Duration) time.Duration {
	raw := GetConfig(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
