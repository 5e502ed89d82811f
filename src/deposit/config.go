package deposit

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	MinAmount          decimal.Decimal `envconfig:"DEPOSIT_MIN_AMOUNT" default:"10"`
	VerificationWindow time.Duration   `envconfig:"DEPOSIT_VERIFICATION_WINDOW" default:"24h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
