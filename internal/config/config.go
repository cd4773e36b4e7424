package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvSandbox    = "SANDBOX"
	EnvProduction = "PRODUCTION"
)

type Config struct {
	App struct {
		Port        string
		StoreURL    string
		CatalogPath string
	}
	PayPal struct {
		Environment  string
		ClientID     string
		ClientSecret string
		JWTStrict    bool
	}
}

// Load reads configuration from the environment, optionally seeding it from
// a .env file first. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.App.Port = os.Getenv("PORT")
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}

	cfg.App.StoreURL = os.Getenv("STORE_URL")
	if cfg.App.StoreURL == "" {
		cfg.App.StoreURL = "https://www.pp-store-sync.railway.app"
	}

	cfg.App.CatalogPath = os.Getenv("CATALOG_PATH")
	if cfg.App.CatalogPath == "" {
		cfg.App.CatalogPath = "product_catalog.csv"
	}

	cfg.PayPal.Environment = strings.ToUpper(os.Getenv("PAYPAL_ENVIRONMENT"))
	if cfg.PayPal.Environment != EnvProduction {
		cfg.PayPal.Environment = EnvSandbox
	}

	cfg.PayPal.ClientID = os.Getenv("PAYPAL_CLIENT_ID")
	cfg.PayPal.ClientSecret = os.Getenv("PAYPAL_CLIENT_SECRET")
	cfg.PayPal.JWTStrict = os.Getenv("PAYPAL_JWT_STRICT") == "true"

	return cfg, nil
}
