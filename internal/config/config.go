package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment names understood by server.env.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Email providers understood by email.provider.
const (
	EmailProviderLog = "log"
	EmailProviderSES = "ses"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	Rating   RatingConfig   `mapstructure:"rating"`
	Log      LogConfig      `mapstructure:"log"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	Env         string   `mapstructure:"env"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// IsProduction reports whether error details must be hidden from clients.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Env, EnvProduction)
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// S3Config configures trainer image storage. Storage is disabled when BucketName is empty.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether a bucket is configured.
func (s S3Config) Enabled() bool {
	return s.BucketName != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	Issuer     string        `mapstructure:"issuer"`
}

// AuthConfig holds password and reset-token settings.
type AuthConfig struct {
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`
	// ResetURL is the SPA page that receives the reset token, e.g. https://app.trackify.fit/reset-password
	ResetURL string `mapstructure:"reset_url"`
}

type EmailConfig struct {
	Provider     string `mapstructure:"provider"`
	From         string `mapstructure:"from"`
	Region       string `mapstructure:"region"`
	ContactInbox string `mapstructure:"contact_inbox"`
}

type RatingConfig struct {
	Workers int `mapstructure:"workers"`
}

// AdminConfig seeds the first super admin on an empty admins collection.
// Bootstrap is skipped when BootstrapEmail is empty.
type AdminConfig struct {
	BootstrapEmail     string `mapstructure:"bootstrap_email"`
	BootstrapPassword  string `mapstructure:"bootstrap_password"`
	BootstrapFirstName string `mapstructure:"bootstrap_first_name"`
	BootstrapLastName  string `mapstructure:"bootstrap_last_name"`
}

// BootstrapEnabled reports whether a bootstrap admin is configured.
func (a AdminConfig) BootstrapEnabled() bool {
	return a.BootstrapEmail != ""
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const minSecretLength = 32

// LoadConfig reads configuration from file or environment variables.
// An optional .env file in path is loaded into the environment first.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	_ = godotenv.Load(strings.TrimRight(path, "/") + "/.env")

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.secret -> JWT_SECRET
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)
	// AutomaticEnv only resolves keys viper already knows about; secrets have no default.
	_ = v.BindEnv("jwt.secret")
	_ = v.BindEnv("s3.access_key_id")
	_ = v.BindEnv("s3.secret_access_key")
	_ = v.BindEnv("admin.bootstrap_email")
	_ = v.BindEnv("admin.bootstrap_password")

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.env", EnvDevelopment)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "trackify")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("jwt.expiration", "168h")
	v.SetDefault("jwt.issuer", "trackify")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.reset_token_ttl", "1h")
	v.SetDefault("auth.reset_url", "http://localhost:3000/reset-password")
	v.SetDefault("email.provider", EmailProviderLog)
	v.SetDefault("email.from", "no-reply@trackify.fit")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.contact_inbox", "support@trackify.fit")
	v.SetDefault("rating.workers", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("admin.bootstrap_first_name", "Trackify")
	v.SetDefault("admin.bootstrap_last_name", "Admin")
}

// Validate rejects configurations the server must not start with.
// There is deliberately no fallback signing secret.
func (c Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret (JWT_SECRET) is required"))
	} else if len(c.JWT.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("jwt.secret must be at least %d bytes", minSecretLength))
	}
	if c.JWT.Expiration <= 0 {
		errs = append(errs, errors.New("jwt.expiration must be positive"))
	}
	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be within [10,31], got %d", c.Auth.BcryptCost))
	}
	if c.Auth.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.reset_token_ttl must be positive"))
	}
	switch c.Email.Provider {
	case EmailProviderLog, EmailProviderSES:
	default:
		errs = append(errs, fmt.Errorf("email.provider must be %q or %q, got %q", EmailProviderLog, EmailProviderSES, c.Email.Provider))
	}
	if c.Rating.Workers <= 0 {
		errs = append(errs, errors.New("rating.workers must be positive"))
	}
	if c.Database.URI == "" || c.Database.Name == "" {
		errs = append(errs, errors.New("database.uri and database.name are required"))
	}
	if c.Admin.BootstrapEnabled() != (c.Admin.BootstrapPassword != "") {
		errs = append(errs, errors.New("admin.bootstrap_email (ADMIN_BOOTSTRAP_EMAIL) and admin.bootstrap_password (ADMIN_BOOTSTRAP_PASSWORD) must be set together"))
	}
	return errors.Join(errs...)
}
