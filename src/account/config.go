package account

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	// New accounts start with this balance as a welcome bonus.
	OpeningBalance decimal.Decimal `envconfig:"OPENING_BALANCE" default:"10"`
	SnapshotStore  string          `envconfig:"SNAPSHOT_STORE" default:"db"` // db | redis | memory
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
