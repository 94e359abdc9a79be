package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DB         DBConfig
	Server     ServerConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Generation UpstreamConfig
	Analysis   UpstreamConfig
	Events     EventsConfig
	Cache      CacheConfig
}

type DBConfig struct {
	// Driver is one of "oracle" (go-ora), "godror" or "memory".
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LoggerConfig struct {
	Level string
	Env   string
}

type AuthConfig struct {
	JWTSecret string
}

// UpstreamConfig configures the generation or analysis collaborator.
// Provider is "http", "ollama", "openai", "static" (generation only)
// or "none" (analysis only).
type UpstreamConfig struct {
	Provider     string
	BaseURL      string
	Timeout      time.Duration
	Model        string
	APIKey       string
	QuestionBank string
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

type CacheConfig struct {
	SessionTTL time.Duration
}

const (
	DefaultGenerationTimeout = 120 * time.Second
	DefaultAnalysisTimeout   = 60 * time.Second
	DefaultSessionTTL        = 10 * time.Minute
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.driver", "oracle")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 150)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("generation.provider", "http")
	v.SetDefault("generation.timeout", DefaultGenerationTimeout)
	v.SetDefault("analysis.provider", "http")
	v.SetDefault("analysis.timeout", DefaultAnalysisTimeout)
	v.SetDefault("events.exchange", "quiz.sessions")
	v.SetDefault("cache.session_ttl", DefaultSessionTTL)
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// DB_HOST overrides db.host and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		fmt.Println("No config file found, using defaults and environment")
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DB: DBConfig{
			Driver:   v.GetString("db.driver"),
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
		},
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		Generation: upstreamFromViper(v, "generation"),
		Analysis:   upstreamFromViper(v, "analysis"),
		Events: EventsConfig{
			AMQPURL:  v.GetString("events.amqp_url"),
			Exchange: v.GetString("events.exchange"),
		},
		Cache: CacheConfig{
			SessionTTL: v.GetDuration("cache.session_ttl"),
		},
	}
}

func upstreamFromViper(v *viper.Viper, prefix string) UpstreamConfig {
	return UpstreamConfig{
		Provider:     v.GetString(prefix + ".provider"),
		BaseURL:      v.GetString(prefix + ".base_url"),
		Timeout:      v.GetDuration(prefix + ".timeout"),
		Model:        v.GetString(prefix + ".model"),
		APIKey:       v.GetString(prefix + ".api_key"),
		QuestionBank: v.GetString(prefix + ".question_bank"),
	}
}

func (c *Config) GetDSN() string {
	// Oracle DSN format: user/password@host:port/service
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}

// GetGodrorDSN returns the connect string format godror expects.
func (c *Config) GetGodrorDSN() string {
	return fmt.Sprintf(`user="%s" password="%s" connectString="%s:%d/%s"`,
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}
