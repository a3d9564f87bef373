// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath     = pflag.String("config", ".", "Directory searched for the config.toml file")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	if !pflag.Parsed() {
		// Tolerate foreign flags such as the test binary's -test.* set
		pflag.CommandLine.ParseErrorsWhitelist.UnknownFlags = true
		pflag.Parse()
	}
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("db.path", "db_path")

	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender_address", "mail_sender_address")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("mail.resend_cooldown", "mail_resend_cooldown")

	v.BindEnv("tokens.cleanup_interval", "tokens_cleanup_interval")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("db.path", "database.db")

	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.resend_cooldown", "5m")

	v.SetDefault("tokens.cleanup_interval", "1h")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetString("db.path") == "" {
		return errors.New("no database path provided")
	}

	if v.GetString("host.domain") == "" {
		return errors.New("no host domain provided")
	}

	if v.GetString("mail.host") == "" {
		return errors.New("no mail host provided")
	}

	if v.GetInt("mail.port") <= 0 {
		return errors.New("invalid mail port provided")
	}

	if v.GetString("mail.sender_address") == "" {
		return errors.New("no mail sender address provided")
	}

	if v.GetString("mail.password") == "" {
		return errors.New("no mail password provided")
	}

	if v.GetDuration("mail.resend_cooldown") <= 0 {
		return errors.New("mail.resend_cooldown must be a positive duration")
	}

	if v.GetDuration("tokens.cleanup_interval") <= 0 {
		return errors.New("tokens.cleanup_interval must be a positive duration")
	}

	return nil
}
