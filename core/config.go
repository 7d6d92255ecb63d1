package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Addr            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine   string // inmem | postgres
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}

	NotificationConfig struct {
		DailyReminderAt string // local wall-clock "HH:MM"
		FlushInterval   time.Duration
		SendWorkers     int
		QueueSize       int
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		AppName  string

		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		RollbarToken     string

		Server       ServerConfig
		Database     DatabaseConfig
		Notification NotificationConfig
	}
)

// NewConfig loads configuration from the environment (and an optional
// config/.env.<env> file) on top of sane defaults.
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Ratiba")
	conf.SetDefault("build", "dev")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.addr", ":8000")
	conf.SetDefault("server.debugHost", "localhost:6060")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("database.engine", "inmem")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "ratiba")
	conf.SetDefault("database.user", "postgres")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.sslMode", "disable")
	conf.SetDefault("notification.dailyReminderAt", "08:00")
	conf.SetDefault("notification.flushInterval", 5*time.Minute)
	conf.SetDefault("notification.sendWorkers", 4)
	conf.SetDefault("notification.queueSize", 256)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         env == "TEST",
		Env:              env,
		Build:            conf.GetString("build"),
		AppName:          conf.GetString("appName"),
		DefaultFromEmail: mail.Address{Name: conf.GetString("appName"), Address: conf.GetString("defaultFromEmail")},
		SendgridAPIKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Addr:            conf.GetString("server.addr"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:   conf.GetString("database.engine"),
			Host:     conf.GetString("database.host"),
			Port:     conf.GetString("database.port"),
			Name:     conf.GetString("database.name"),
			User:     conf.GetString("database.user"),
			Password: conf.GetString("database.password"),
			SSLMode:  conf.GetString("database.sslMode"),
		},
		Notification: NotificationConfig{
			DailyReminderAt: conf.GetString("notification.dailyReminderAt"),
			FlushInterval:   conf.GetDuration("notification.flushInterval"),
			SendWorkers:     conf.GetInt("notification.sendWorkers"),
			QueueSize:       conf.GetInt("notification.queueSize"),
		},
	}
}
