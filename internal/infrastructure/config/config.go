package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// Config holds all configuration for our application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	HTTPPort       int      `mapstructure:"http_port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// RedisConfig holds the analytics cache configuration. Caching is disabled
// when Addr is empty.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SchedulingConfig overrides parts of the engine's stock configuration.
type SchedulingConfig struct {
	Strategy              string  `mapstructure:"strategy"`
	MaxStudentsPerGroup   int     `mapstructure:"max_students_per_group"`
	MinStudentsPerGroup   int     `mapstructure:"min_students_per_group"`
	MaxClassesPerDay      int     `mapstructure:"max_classes_per_day"`
	MinBreakMinutes       int     `mapstructure:"min_break_minutes"`
	MaxDifficultyVariance int     `mapstructure:"max_difficulty_variance"`
	HorizonDays           int     `mapstructure:"horizon_days"`
	ContentPriority       float64 `mapstructure:"content_priority"`
	StudentPreference     float64 `mapstructure:"student_preference"`
	TeacherAvailability   float64 `mapstructure:"teacher_availability"`
	ClassSizeOptimization float64 `mapstructure:"class_size_optimization"`
	TimeEfficiency        float64 `mapstructure:"time_efficiency"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "heypeter")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.log_sql", false)

	// Redis defaults: empty addr keeps the analytics cache off
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl_minutes", 15)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	// Scheduling defaults mirror the engine's stock configuration
	stock := entity.DefaultRulesEngineConfig()
	viper.SetDefault("scheduling.strategy", stock.Strategy)
	viper.SetDefault("scheduling.max_students_per_group", stock.Constraints.MaxStudentsPerGroup)
	viper.SetDefault("scheduling.min_students_per_group", stock.Constraints.MinStudentsPerGroup)
	viper.SetDefault("scheduling.max_classes_per_day", stock.Constraints.MaxClassesPerDay)
	viper.SetDefault("scheduling.min_break_minutes", stock.Constraints.MinBreakMinutes)
	viper.SetDefault("scheduling.max_difficulty_variance", stock.Constraints.MaxDifficultyVariance)
	viper.SetDefault("scheduling.horizon_days", stock.SchedulingHorizonDays)
	viper.SetDefault("scheduling.content_priority", stock.Weights.ContentPriority)
	viper.SetDefault("scheduling.student_preference", stock.Weights.StudentPreference)
	viper.SetDefault("scheduling.teacher_availability", stock.Weights.TeacherAvailability)
	viper.SetDefault("scheduling.class_size_optimization", stock.Weights.ClassSizeOptimization)
	viper.SetDefault("scheduling.time_efficiency", stock.Weights.TimeEfficiency)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RulesEngineConfig folds the configured overrides into the stock engine
// configuration.
func (c *Config) RulesEngineConfig() entity.RulesEngineConfig {
	cfg := entity.DefaultRulesEngineConfig()
	if c.Scheduling.Strategy != "" {
		cfg.Strategy = c.Scheduling.Strategy
	}
	if c.Scheduling.MaxStudentsPerGroup > 0 {
		cfg.Constraints.MaxStudentsPerGroup = c.Scheduling.MaxStudentsPerGroup
	}
	if c.Scheduling.MinStudentsPerGroup > 0 {
		cfg.Constraints.MinStudentsPerGroup = c.Scheduling.MinStudentsPerGroup
	}
	if c.Scheduling.MaxClassesPerDay > 0 {
		cfg.Constraints.MaxClassesPerDay = c.Scheduling.MaxClassesPerDay
	}
	if c.Scheduling.MinBreakMinutes > 0 {
		cfg.Constraints.MinBreakMinutes = c.Scheduling.MinBreakMinutes
	}
	if c.Scheduling.MaxDifficultyVariance > 0 {
		cfg.Constraints.MaxDifficultyVariance = c.Scheduling.MaxDifficultyVariance
	}
	if c.Scheduling.HorizonDays > 0 {
		cfg.SchedulingHorizonDays = c.Scheduling.HorizonDays
	}
	if c.Scheduling.ContentPriority > 0 {
		cfg.Weights = entity.OptimizationWeights{
			ContentPriority:       c.Scheduling.ContentPriority,
			StudentPreference:     c.Scheduling.StudentPreference,
			TeacherAvailability:   c.Scheduling.TeacherAvailability,
			ClassSizeOptimization: c.Scheduling.ClassSizeOptimization,
			TimeEfficiency:        c.Scheduling.TimeEfficiency,
		}
	}
	return cfg
}
