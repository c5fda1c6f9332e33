package env

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Addr      string `env:"REDWIRE_ADDR,default=127.0.0.1:6379"`
	Network   string `env:"REDWIRE_NETWORK,default=tcp"`
	DB        int    `env:"REDWIRE_DB,default=0"`
	Password  string `env:"REDWIRE_PASSWORD"`
	PoolSize  int    `env:"REDWIRE_POOL_SIZE,default=8"`
	LogLevel  string `env:"REDWIRE_LOG_LEVEL,default=info"`
	DebugHTTP bool   `env:"REDWIRE_DEBUG_HTTP"`
}

// LoadConfig reads the environment, after loading .env.local if present.
func LoadConfig(ctx context.Context) (*Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}

	return &config, nil
}
