package security

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	JWTSecret         string        `envconfig:"JWT_SECRET" default:"dev-only-change-me"`
	JWTIssuer         string        `envconfig:"JWT_ISSUER" default:"halalinvest"`
	JWTTTL            time.Duration `envconfig:"JWT_TTL" default:"24h"`
	BcryptCost        int           `envconfig:"BCRYPT_COST" default:"10"`
	MinPasswordLength int           `envconfig:"MIN_PASSWORD_LENGTH" default:"6"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
