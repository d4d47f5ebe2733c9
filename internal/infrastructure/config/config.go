package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Preferences   PreferenceConfig    `mapstructure:"preferences"`
	Collaborators CollaboratorsConfig `mapstructure:"collaborators"`
	ListStore     ListStoreConfig     `mapstructure:"list_store"`
	Shopping      ShoppingConfig      `mapstructure:"shopping"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	BodyLimit     int64               `mapstructure:"body_limit"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	LogLevel      string              `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// PreferenceConfig 分類偏好儲存設定
type PreferenceConfig struct {
	// Backend memory、redis 或 sqlite
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	SQLitePath    string `mapstructure:"sqlite_path"`
}

// CollaboratorsConfig 餐點計畫與庫存服務
type CollaboratorsConfig struct {
	MealPlanURL  string        `mapstructure:"meal_plan_url"`
	InventoryURL string        `mapstructure:"inventory_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryCount   int           `mapstructure:"retry_count"`
}

// ListStoreConfig 已生成清單的暫存設定
type ListStoreConfig struct {
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ShoppingConfig 清單生成預設值
type ShoppingConfig struct {
	CheckInventory     bool `mapstructure:"check_inventory"`
	CombineIngredients bool `mapstructure:"combine_ingredients"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MetricsConfig 指標設定
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時略過）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New(), ".")
}

// Load 以指定的 viper 實例讀取設定，測試可直接使用
func Load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("preferences.backend", "PREFERENCE_BACKEND")
	_ = v.BindEnv("preferences.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("preferences.redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("preferences.sqlite_path", "PREFERENCE_DB_PATH")
	_ = v.BindEnv("collaborators.meal_plan_url", "MEAL_PLAN_SERVICE_URL")
	_ = v.BindEnv("collaborators.inventory_url", "INVENTORY_SERVICE_URL")
	_ = v.BindEnv("collaborators.api_key", "COLLABORATOR_API_KEY")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	// 設定檔可選
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "grocery-engine")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	// 偏好儲存
	v.SetDefault("preferences.backend", "memory")
	v.SetDefault("preferences.redis_addr", "localhost:6379")
	v.SetDefault("preferences.redis_db", 0)
	v.SetDefault("preferences.key_prefix", "grocery:prefs")
	v.SetDefault("preferences.sqlite_path", "data/preferences.db")

	// 外部服務
	v.SetDefault("collaborators.timeout", "10s")
	v.SetDefault("collaborators.retry_count", 2)

	// 清單暫存
	v.SetDefault("list_store.max_size", 1000)
	v.SetDefault("list_store.ttl", "24h")
	v.SetDefault("list_store.cleanup_interval", "10m")

	// 清單生成
	v.SetDefault("shopping.check_inventory", true)
	v.SetDefault("shopping.combine_ingredients", true)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("body_limit", 1<<20) // 1MB
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Preferences.Backend {
	case "memory":
	case "redis":
		if config.Preferences.RedisAddr == "" {
			return fmt.Errorf("redis address is required for redis preference backend")
		}
	case "sqlite":
		if config.Preferences.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite preference backend")
		}
	default:
		return fmt.Errorf("unknown preference backend %q", config.Preferences.Backend)
	}

	if config.ListStore.MaxSize <= 0 {
		return fmt.Errorf("invalid list store max size")
	}
	if config.ListStore.TTL <= 0 {
		return fmt.Errorf("invalid list store ttl")
	}
	if config.ListStore.CleanupInterval <= 0 {
		return fmt.Errorf("invalid list store cleanup interval")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}
	if config.BodyLimit <= 0 {
		return fmt.Errorf("invalid body limit")
	}

	return nil
}
