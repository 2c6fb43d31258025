package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Matching MatchingConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	LogLevel  string
	BatchSize int
}

// MatchingConfig carries the tunable matcher constants. Zero values mean
// "use the engine default".
type MatchingConfig struct {
	AmountWeight   float64
	DateWeight     float64
	NameWeight     float64
	KeywordBonus   float64
	AutoThreshold  float64
	MinimumFloor   float64
	SplitMargin    float64
	DateWindowDays int
}

// Load reads configuration from an optional config file and the
// environment. Environment variables use underscores: DB_HOST, SERVER_PORT,
// MATCHING_AUTO_THRESHOLD, and so on.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "club_recon")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("server.port", "8080")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.batch_size", 1000)
	v.SetDefault("matching.amount_weight", 0.5)
	v.SetDefault("matching.date_weight", 0.3)
	v.SetDefault("matching.name_weight", 0.2)
	v.SetDefault("matching.keyword_bonus", 20)
	v.SetDefault("matching.auto_threshold", 85)
	v.SetDefault("matching.minimum_floor", 50)
	v.SetDefault("matching.split_margin", 1.5)
	v.SetDefault("matching.date_window_days", 90)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/club-recon")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		App: AppConfig{
			LogLevel:  v.GetString("app.log_level"),
			BatchSize: v.GetInt("app.batch_size"),
		},
		Matching: MatchingConfig{
			AmountWeight:   v.GetFloat64("matching.amount_weight"),
			DateWeight:     v.GetFloat64("matching.date_weight"),
			NameWeight:     v.GetFloat64("matching.name_weight"),
			KeywordBonus:   v.GetFloat64("matching.keyword_bonus"),
			AutoThreshold:  v.GetFloat64("matching.auto_threshold"),
			MinimumFloor:   v.GetFloat64("matching.minimum_floor"),
			SplitMargin:    v.GetFloat64("matching.split_margin"),
			DateWindowDays: v.GetInt("matching.date_window_days"),
		},
	}, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
