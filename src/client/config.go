package client

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseURL  string `envconfig:"HALALINVEST_URL" default:"http://localhost:3000"`
	Email    string `envconfig:"HALALINVEST_EMAIL"`
	Password string `envconfig:"HALALINVEST_PASSWORD"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
