package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const devJWTSecret = "dev-only-project-tracker-secret-change-me"

// MinJWTSecretLength is the HS256 key size in bytes.
const MinJWTSecretLength = 32

type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         string        `json:"port" yaml:"port"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	Environment  string        `json:"environment" yaml:"environment"`
}

type DatabaseConfig struct {
	Driver          string        `json:"driver" yaml:"driver"`
	Host            string        `json:"host" yaml:"host"`
	Port            string        `json:"port" yaml:"port"`
	User            string        `json:"user" yaml:"user"`
	Password        string        `json:"password" yaml:"password"`
	Name            string        `json:"name" yaml:"name"`
	SSLMode         string        `json:"ssl_mode" yaml:"ssl_mode"`
	SQLitePath      string        `json:"sqlite_path" yaml:"sqlite_path"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Host         string        `json:"host" yaml:"host"`
	Port         string        `json:"port" yaml:"port"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	TaskListTTL  time.Duration `json:"task_list_ttl" yaml:"task_list_ttl"`
}

type AuthConfig struct {
	JWTSecret       string        `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL        time.Duration `json:"token_ttl" yaml:"token_ttl"`
	BCryptCost      int           `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	StrictOwnership bool          `json:"strict_ownership" yaml:"strict_ownership"`
	AdminUsername   string        `json:"admin_username" yaml:"admin_username"`
	AdminEmail      string        `json:"admin_email" yaml:"admin_email"`
	AdminPassword   string        `json:"admin_password" yaml:"admin_password"`
}

type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			Environment:  "development",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "project_tracker",
			SSLMode:         "disable",
			SQLitePath:      "project_tracker.db",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         "6379",
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			TaskListTTL:  5 * time.Minute,
		},
		Auth: AuthConfig{
			JWTSecret:     devJWTSecret,
			TokenTTL:      24 * time.Hour,
			BCryptCost:    10,
			AdminUsername: "admin",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig layers defaults, an optional YAML file (CONFIG_FILE), a .env file
// and finally the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	config := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	config.Server = ServerConfig{
		Host:         getEnv("HOST", config.Server.Host),
		Port:         getEnv("PORT", config.Server.Port),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", config.Server.ReadTimeout),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", config.Server.WriteTimeout),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", config.Server.IdleTimeout),
		Environment:  getEnv("ENVIRONMENT", config.Server.Environment),
	}
	config.Database = DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", config.Database.Driver),
		Host:            getEnv("DB_HOST", config.Database.Host),
		Port:            getEnv("DB_PORT", config.Database.Port),
		User:            getEnv("DB_USER", config.Database.User),
		Password:        getEnv("DB_PASSWORD", config.Database.Password),
		Name:            getEnv("DB_NAME", config.Database.Name),
		SSLMode:         getEnv("DB_SSL_MODE", config.Database.SSLMode),
		SQLitePath:      getEnv("DB_SQLITE_PATH", config.Database.SQLitePath),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", config.Database.MaxOpenConns),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", config.Database.MaxIdleConns),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", config.Database.ConnMaxLifetime),
		ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", config.Database.ConnMaxIdleTime),
	}
	config.Redis = RedisConfig{
		Enabled:      getEnvAsBool("REDIS_ENABLED", config.Redis.Enabled),
		Host:         getEnv("REDIS_HOST", config.Redis.Host),
		Port:         getEnv("REDIS_PORT", config.Redis.Port),
		Password:     getEnv("REDIS_PASSWORD", config.Redis.Password),
		DB:           getEnvAsInt("REDIS_DB", config.Redis.DB),
		PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", config.Redis.PoolSize),
		MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", config.Redis.MinIdleConns),
		MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", config.Redis.MaxRetries),
		DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", config.Redis.DialTimeout),
		ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", config.Redis.ReadTimeout),
		WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", config.Redis.WriteTimeout),
		TaskListTTL:  getEnvAsDuration("REDIS_TASK_LIST_TTL", config.Redis.TaskListTTL),
	}
	config.Auth = AuthConfig{
		JWTSecret:       getEnv("JWT_SECRET", config.Auth.JWTSecret),
		TokenTTL:        getEnvAsDuration("JWT_TTL", config.Auth.TokenTTL),
		BCryptCost:      getEnvAsInt("BCRYPT_COST", config.Auth.BCryptCost),
		StrictOwnership: getEnvAsBool("AUTH_STRICT_OWNERSHIP", config.Auth.StrictOwnership),
		AdminUsername:   getEnv("ADMIN_USERNAME", config.Auth.AdminUsername),
		AdminEmail:      getEnv("ADMIN_EMAIL", config.Auth.AdminEmail),
		AdminPassword:   getEnv("ADMIN_PASSWORD", config.Auth.AdminPassword),
	}
	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.Database.Driver == "postgres" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production")
	}
	if c.IsProduction() && c.Auth.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT secret must be set in production")
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT secret must be at least %d bytes", MinJWTSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
