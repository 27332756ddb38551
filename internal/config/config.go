package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConnectionStringEnv is the environment variable holding the Azure storage connection string.
const ConnectionStringEnv = "AZURE_STORAGE_CONNECTION_STRING"

// EnvPrefix prefixes every other environment override, e.g. BLOBQUICKSTART_STORAGE_PROVIDER.
const EnvPrefix = "BLOBQUICKSTART"

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Quickstart QuickstartConfig `mapstructure:"quickstart"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// StorageConfig selects the backend and how to authenticate against it.
// ConnectionString is intentionally not validated: a missing credential is
// reported by the quickstart itself.
type StorageConfig struct {
	// Provider is one of azblob, s3 or minio.
	Provider         string `mapstructure:"provider" validate:"oneof=azblob s3 minio"`
	ConnectionString string `mapstructure:"connection_string"`
	// Endpoint overrides the service URL (Azurite, LocalStack, MinIO host:port).
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
	// AccessKey and SecretKey are the account name/key for azblob, or the key pair for s3 and minio.
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// UseEnvCredentials reads the provider's standard credential variables instead.
	UseEnvCredentials bool   `mapstructure:"use_env_credentials"`
	Compression       string `mapstructure:"compression" validate:"oneof=none gzip"`
	Encryption        string `mapstructure:"encryption" validate:"oneof=none aes256"`
	EncryptKey        string `mapstructure:"encrypt_key" validate:"required_if=Encryption aes256"`
}

type QuickstartConfig struct {
	ContainerPrefix string `mapstructure:"container_prefix" validate:"required,max=27"`
	FilePrefix      string `mapstructure:"file_prefix" validate:"required"`
	Content         string `mapstructure:"content"`
	// LocalDir is where the temp files are written; empty means the desktop folder.
	LocalDir     string `mapstructure:"local_dir"`
	PageSize     int32  `mapstructure:"page_size" validate:"gte=1,lte=5000"`
	PublicAccess string `mapstructure:"public_access" validate:"oneof=none blob container"`
	// Interactive waits for Enter before cleanup and before exiting.
	Interactive bool `mapstructure:"interactive"`
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"provider":      "storage.provider",
	"endpoint":      "storage.endpoint",
	"region":        "storage.region",
	"local-dir":     "quickstart.local_dir",
	"page-size":     "quickstart.page_size",
	"public-access": "quickstart.public_access",
	"interactive":   "quickstart.interactive",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
}

// Load loads configuration from defaults, an optional config file, a .env
// file, environment variables and finally the given flags (nil for none).
// The "config" flag, when set, names the config file explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	configFile := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("storage.connection_string", ConnectionStringEnv); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", ConnectionStringEnv, err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags on the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "blobquickstart")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("storage.provider", "azblob")
	v.SetDefault("storage.connection_string", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_env_credentials", false)
	v.SetDefault("storage.compression", "none")
	v.SetDefault("storage.encryption", "none")
	v.SetDefault("storage.encrypt_key", "")

	v.SetDefault("quickstart.container_prefix", "quickstartblobs")
	v.SetDefault("quickstart.file_prefix", "QuickStart_")
	v.SetDefault("quickstart.content", "Hello, World!")
	v.SetDefault("quickstart.local_dir", "")
	v.SetDefault("quickstart.page_size", 5000)
	v.SetDefault("quickstart.public_access", "blob")
	v.SetDefault("quickstart.interactive", true)
}
