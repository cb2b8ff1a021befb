package web

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the dashboard server configuration, read from the environment
// with an optional .env file for local runs.
type Config struct {
	Addr        string `envconfig:"SNAPBRIDGE_WEB_ADDR" default:":8787"`
	ExportDir   string `envconfig:"SNAPBRIDGE_EXPORT_DIR" default:"exports"`
	DownloadDir string `envconfig:"SNAPBRIDGE_DOWNLOAD_DIR" default:"downloads"`
	OutputDir   string `envconfig:"SNAPBRIDGE_OUTPUT_DIR" default:"processed"`
	BundlePath  string `envconfig:"SNAPBRIDGE_BUNDLE" default:"snapchat_metadata.json"`
	WatchDir    bool   `envconfig:"SNAPBRIDGE_WATCH_EXPORTS" default:"true"`
}

// LoadConfig reads the dashboard configuration. A missing .env file is
// not an error.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
