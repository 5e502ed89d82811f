package database

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogLevel        string `envconfig:"LOG_LEVEL" default:"debug"` // Expected to hold values like "debug", "info", "warn", "error"
	LogFormat       string `envconfig:"LOG_FORMAT" default:"text"` // Expected to hold values like "json" or "text"
	Driver          string `envconfig:"DB_DRIVER" default:"sqlite"` // "sqlite" or "postgres"
	DatabaseURLMain string `envconfig:"DATABASE_URL_MAIN" default:"file:halalinvest.db?_foreign_keys=on"`
	GormLogLevel    int    `envconfig:"GORM_LOG_LEVEL" default:"2"`
	MaxOpenConns    int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int    `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	SeedDemoUser    bool   `envconfig:"SEED_DEMO_USER" default:"true"`
	AdminEmail      string `envconfig:"SEED_ADMIN_EMAIL"`
	AdminPassword   string `envconfig:"SEED_ADMIN_PASSWORD"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
