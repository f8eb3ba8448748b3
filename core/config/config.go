package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Swap     SwapConfig
}

type ServerConfig struct {
	Env     string
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type SwapConfig struct {
	// PendingTTL is how long a swap request may stay PENDING before the
	// expiry sweeper rejects it. Zero disables the sweeper.
	PendingTTL time.Duration
}

var (
	instance *Config
	once     sync.Once
)

func Load() *Config {
	once.Do(func() {
		// .env is optional; real deployments set env vars directly.
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.SetDefault("ENV", "development")
		viper.SetDefault("SERVER_HOST", "0.0.0.0")
		viper.SetDefault("SERVER_PORT", 7070)
		viper.SetDefault("SERVER_BASE_URL", "")

		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", 5432)
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "slotswap")
		viper.SetDefault("DB_SSL_MODE", "disable")

		viper.SetDefault("REDIS_ADDR", "localhost:6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)

		viper.SetDefault("JWT_SECRET", "")
		viper.SetDefault("JWT_ACCESS_TOKEN_TTL", "15m")
		viper.SetDefault("JWT_REFRESH_TOKEN_TTL", "168h")

		viper.SetDefault("SWAP_PENDING_TTL", "72h")

		instance = &Config{
			Server: ServerConfig{
				Env:     viper.GetString("ENV"),
				Host:    viper.GetString("SERVER_HOST"),
				Port:    viper.GetInt("SERVER_PORT"),
				BaseURL: viper.GetString("SERVER_BASE_URL"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetInt("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSL_MODE"),
			},
			Redis: RedisConfig{
				Addr:     viper.GetString("REDIS_ADDR"),
				Password: viper.GetString("REDIS_PASSWORD"),
				DB:       viper.GetInt("REDIS_DB"),
			},
			JWT: JWTConfig{
				Secret:          viper.GetString("JWT_SECRET"),
				AccessTokenTTL:  viper.GetDuration("JWT_ACCESS_TOKEN_TTL"),
				RefreshTokenTTL: viper.GetDuration("JWT_REFRESH_TOKEN_TTL"),
			},
			Swap: SwapConfig{
				PendingTTL: viper.GetDuration("SWAP_PENDING_TTL"),
			},
		}
	})
	return instance
}

func Get() *Config {
	if instance == nil {
		return Load()
	}
	return instance
}
