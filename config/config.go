package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Attempt      Attempt
	Notification Notification
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Attempt struct {
	// DefaultMaxCopyEvents is the violation budget applied to new tests that
	// do not set their own.
	DefaultMaxCopyEvents int
}

type Notification struct {
	WebhookURL string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ATTEMPT_MAX_COPY_EVENTS", 3)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Attempt.DefaultMaxCopyEvents = viper.GetInt("ATTEMPT_MAX_COPY_EVENTS")
	config.Notification.WebhookURL = viper.GetString("NOTIFICATION_WEBHOOK_URL")

	log.Info().Interface("config", config).Msg("Config loaded")
	return &config, nil
}
