package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix namespaces every environment variable the client reads.
const EnvPrefix = "TIENDAFACIL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	POS     POSConfig
	Session SessionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.POS.TaxRate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TIENDAFACIL_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"TIENDAFACIL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIENDAFACIL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL string        `envconfig:"TIENDAFACIL_API_BASE_URL" default:"http://localhost:8101/api"`
	Timeout time.Duration `envconfig:"TIENDAFACIL_API_TIMEOUT" default:"10s"`
}

type POSConfig struct {
	// RawTaxRate is the IVA fraction applied to every sale, e.g. "0.12".
	RawTaxRate              string `envconfig:"TIENDAFACIL_POS_TAX_RATE" default:"0.12"`
	DefaultCustomerName     string `envconfig:"TIENDAFACIL_POS_DEFAULT_CUSTOMER_NAME" default:"Consumidor Final"`
	DefaultCustomerDocument string `envconfig:"TIENDAFACIL_POS_DEFAULT_CUSTOMER_DOCUMENT" default:"9999999999"`
	SellerID                int64  `envconfig:"TIENDAFACIL_POS_SELLER_ID" default:"1"`
	SaleNotes               string `envconfig:"TIENDAFACIL_POS_SALE_NOTES" default:"Venta desde POS"`
}

// TaxRate parses the configured IVA fraction without float rounding.
func (p POSConfig) TaxRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.RawTaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", p.RawTaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate cannot be negative: %s", rate)
	}
	return rate, nil
}

type SessionConfig struct {
	DBPath string `envconfig:"TIENDAFACIL_SESSION_DB_PATH" default:"tiendafacil.db"`
}
