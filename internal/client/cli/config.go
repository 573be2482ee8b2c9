package cli

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config is the client configuration. Environment variables provide the
// defaults; command-line flags override them.
type Config struct {
	ServerURL string `env:"AUTHKEEPER_SERVER" envDefault:"http://localhost:8080"`
	GRPCAddr  string `env:"AUTHKEEPER_GRPC" envDefault:"localhost:50051"`
	TokenFile string `env:"AUTHKEEPER_TOKEN_FILE"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = defaultTokenFile()
	}
	return cfg, nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "authkeeper", "token")
}
