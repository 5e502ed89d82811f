package pricing

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Period         time.Duration `envconfig:"PRICE_UPDATE_PERIOD" default:"10s"`
	MaxStepPercent float64       `envconfig:"PRICE_MAX_STEP_PERCENT" default:"1"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
