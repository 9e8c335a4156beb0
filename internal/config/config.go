package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	muonce sync.Once
	cf     *ConfigSingleTon

	ErrConfigInvalid = errors.New("config invalid")
)

type ConfigSingleTon struct {
	Config *Config
	v      *viper.Viper
	mu     sync.RWMutex
}

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	Env        string `mapstructure:"ENV"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	DbName       string `mapstructure:"POSTGRES_DB"`
	DbHost       string `mapstructure:"POSTGRES_HOST"`
	DbPort       string `mapstructure:"POSTGRES_PORT"`
	DbUser       string `mapstructure:"POSTGRES_USER"`
	DbPas        string `mapstructure:"POSTGRES_PASSWORD"`
	MigrationURL string `mapstructure:"MIGRATION_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`
	LogKafkaTopic   string `mapstructure:"LOG_KAFKA_TOPIC"`

	AccessToken string `mapstructure:"ACCESS_TOKEN"`

	SmtpHost     string `mapstructure:"SMTP_HOST"`
	SmtpPort     int    `mapstructure:"SMTP_PORT"`
	EmailAccount string `mapstructure:"EMAIL_ACCOUNT"`
	SmtpAuthKey  string `mapstructure:"SMTP_AUTH_KEY"`
	ShopName     string `mapstructure:"SHOP_NAME"`

	AddressAPIURL string `mapstructure:"ADDRESS_API_URL"`
	OtelEndpoint  string `mapstructure:"OTEL_ENDPOINT"`

	CorsAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	RateLimitCapacity     int     `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRatePS       float64 `mapstructure:"RATE_LIMIT_RATE_PS"`
	NotificationQueueSize int     `mapstructure:"NOTIFICATION_QUEUE_SIZE"`
}

// 所有 key 都要有 default，AutomaticEnv 才能在 Unmarshal 時讀到環境變數
var defaults = map[string]any{
	"SERVER_PORT":             "8080",
	"ENV":                     "development",
	"LOG_LEVEL":               "info",
	"POSTGRES_DB":             "bongland",
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_USER":           "",
	"POSTGRES_PASSWORD":       "",
	"MIGRATION_URL":           "file://internal/infra/repository/db/migrations",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"KAFKA_BROKERS":           "",
	"KAFKA_ORDER_TOPIC":       "bongland.order.events",
	"LOG_KAFKA_TOPIC":         "",
	"ACCESS_TOKEN":            "",
	"SMTP_HOST":               "smtp.gmail.com",
	"SMTP_PORT":               587,
	"EMAIL_ACCOUNT":           "",
	"SMTP_AUTH_KEY":           "",
	"SHOP_NAME":               "BÔNG LAND",
	"ADDRESS_API_URL":         "https://provinces.open-api.vn/api",
	"OTEL_ENDPOINT":           "",
	"CORS_ALLOWED_ORIGINS":    "*",
	"RATE_LIMIT_CAPACITY":     10,
	"RATE_LIMIT_RATE_PS":      1.0,
	"NOTIFICATION_QUEUE_SIZE": 100,
}

// GetConfig 第一次呼叫時載入設定，並監聽設定檔變更
func GetConfig() *Config {
	initConfig()
	cf.mu.RLock()
	defer cf.mu.RUnlock()
	return cf.Config
}

func initConfig() {
	muonce.Do(func() {
		path := configFilePath()
		// .env 先寫進 process env，讓其他套件也讀得到
		if err := godotenv.Load(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("no .env file loaded, using environment only")
		}

		v := newViper(path)
		config, err := load(v)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cf = &ConfigSingleTon{Config: config, v: v}

		if _, err := os.Stat(path); err == nil {
			v.OnConfigChange(func(e fsnotify.Event) {
				log.Info().Str("file", e.Name).Msg("config file changed")
				newConfig, err := load(v)
				if err != nil {
					log.Error().Err(err).Msg("reload config failed, keep old config")
					return
				}
				cf.mu.Lock()
				cf.Config = newConfig
				cf.mu.Unlock()
			})
			v.WatchConfig()
		}
	})
}

func configFilePath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return ".env"
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	return v
}

// LoadConfig 從指定檔案與環境變數載入設定，不影響 singleton
func LoadConfig(path string) (*Config, error) {
	return load(newViper(path))
}

func load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.AccessToken == "" {
		missing = append(missing, "ACCESS_TOKEN")
	}
	if c.DbUser == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if c.DbName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfigInvalid, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) CorsOrigins() []string {
	origins := splitList(c.CorsAllowedOrigins)
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (c *Config) MailEnabled() bool {
	return c.EmailAccount != "" && c.SmtpAuthKey != ""
}

func splitList(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			res = append(res, p)
		}
	}
	return res
}
