package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	DBHost        string `mapstructure:"FSTR_DB_HOST"`
	DBPort        string `mapstructure:"FSTR_DB_PORT"`
	DBLogin       string `mapstructure:"FSTR_DB_LOGIN"`
	DBPass        string `mapstructure:"FSTR_DB_PASS"`
	DBName        string `mapstructure:"FSTR_DB_NAME"`
	DBSSLMode     string `mapstructure:"FSTR_DB_SSLMODE"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
}

func Load() Config {
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("FSTR_DB_HOST", "localhost")
	viper.SetDefault("FSTR_DB_PORT", "5432")
	viper.SetDefault("FSTR_DB_LOGIN", "postgres")
	viper.SetDefault("FSTR_DB_PASS", "postgres")
	viper.SetDefault("FSTR_DB_NAME", "fstr")
	viper.SetDefault("FSTR_DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}

// PostgresURL assembles the connection string from the FSTR_DB_* parts.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBLogin, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}
