package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config is read from the environment; a .env file in the working directory is
// loaded first when present. Keys are the upper-cased koanf names (DB_HOST, ...).
type Config struct {
	AppEnv   string `koanf:"app_env"`
	HTTPAddr string `koanf:"http_addr"`

	JWTSecret string `koanf:"jwt_secret"`

	DBDriver   string `koanf:"db_driver"` // postgres | mongo
	DBHost     string `koanf:"db_host"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`
	DBPort     string `koanf:"db_port"`
	DBSSLMode  string `koanf:"db_sslmode"`

	MongoURI      string `koanf:"mongodb_uri"`
	MongoDatabase string `koanf:"mongodb_database"`

	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`

	Estimator    string `koanf:"estimator"` // gemini | edamam
	EdamamAppID  string `koanf:"edamam_app_id"`
	EdamamAppKey string `koanf:"edamam_app_key"`

	Classifier    string `koanf:"classifier"` // rekognition | http
	ClassifierURL string `koanf:"classifier_url"`

	AWSRegion     string `koanf:"aws_region"`
	S3Region      string `koanf:"s3_region"`
	S3Bucket      string `koanf:"s3_bucket"`
	CloudFrontURL string `koanf:"cloudfront_url"`
	SNSFCMArn     string `koanf:"sns_fcm_arn"`
	SNSAPNSArn    string `koanf:"sns_apns_arn"`
	SESEmail      string `koanf:"ses_email"`

	DefaultTimezone    string `koanf:"default_timezone"`
	NutritionParseMode string `koanf:"nutrition_parse_mode"` // strict | lenient
	CORSOrigins        string `koanf:"cors_origins"`         // comma separated
	AIRatePerMinute    int    `koanf:"ai_rate_per_minute"`
}

// Load reads .env (if any) and the process environment and applies defaults.
// Commands that touch the database call Validate.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; real env wins

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AppEnv == "" {
		c.AppEnv = "development"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.DBDriver == "" {
		c.DBDriver = "postgres"
	}
	if c.DBPort == "" {
		c.DBPort = "5432"
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "nutrilog"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-1.5-flash"
	}
	if c.Estimator == "" {
		c.Estimator = "gemini"
	}
	if c.Classifier == "" {
		c.Classifier = "rekognition"
	}
	if c.S3Region == "" {
		c.S3Region = c.AWSRegion
	}
	if c.NutritionParseMode == "" {
		c.NutritionParseMode = "strict"
	}
	if c.CORSOrigins == "" {
		c.CORSOrigins = "http://localhost:3000"
	}
	if c.AIRatePerMinute <= 0 {
		c.AIRatePerMinute = 20
	}
}

// Validate checks the keys every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DBDriver {
	case "postgres":
		if c.DBHost == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for postgres"))
		}
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	switch c.Classifier {
	case "rekognition":
	case "http":
		if c.ClassifierURL == "" {
			errs = append(errs, errors.New("CLASSIFIER_URL is required when CLASSIFIER=http"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CLASSIFIER %q", c.Classifier))
	}
	switch c.Estimator {
	case "gemini":
	case "edamam":
		if c.EdamamAppID == "" || c.EdamamAppKey == "" {
			errs = append(errs, errors.New("EDAMAM_APP_ID and EDAMAM_APP_KEY are required when ESTIMATOR=edamam"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ESTIMATOR %q", c.Estimator))
	}
	switch c.NutritionParseMode {
	case "strict", "lenient":
	default:
		errs = append(errs, fmt.Errorf("unknown NUTRITION_PARSE_MODE %q", c.NutritionParseMode))
	}
	// the CORS middleware panics on an empty list or a scheme-less origin
	origins := c.Origins()
	if len(origins) == 0 {
		errs = append(errs, errors.New("CORS_ORIGINS must list at least one origin"))
	}
	for _, o := range origins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("CORS_ORIGINS entry %q must start with http:// or https://", o))
		}
	}
	return errors.Join(errs...)
}

// IsProduction reports APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// Origins splits CORS_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// PostgresDSN builds the libpq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
