package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/service"
	"ecommerce/pkg/infrastructure/mail"
	"ecommerce/pkg/infrastructure/mysql"
	"ecommerce/pkg/infrastructure/payment"
)

const appID = "ecommerce"

type config struct {
	HTTPAddress string `envconfig:"http_address" default:":8080"`
	GRPCAddress string `envconfig:"grpc_address" default:":9090"`
	LogLevel    string `envconfig:"log_level" default:"info"`

	DBUser            string        `envconfig:"db_user" default:"ecommerce"`
	DBPassword        string        `envconfig:"db_password"`
	DBAddress         string        `envconfig:"db_address" default:"localhost:3306"`
	DBName            string        `envconfig:"db_name" default:"ecommerce"`
	DBMaxConns        int           `envconfig:"db_max_conns" default:"10"`
	DBConnMaxLifetime time.Duration `envconfig:"db_conn_max_lifetime" default:"5m"`

	SessionTTL time.Duration `envconfig:"session_ttl" default:"24h"`
	BcryptCost int           `envconfig:"bcrypt_cost" default:"10"`

	FreeShippingThreshold decimal.Decimal `envconfig:"free_shipping_threshold" default:"500"`
	ShippingFee           decimal.Decimal `envconfig:"shipping_fee" default:"50"`
	DefaultTaxRate        decimal.Decimal `envconfig:"default_tax_rate" default:"10"`
	DeliveryDays          int             `envconfig:"delivery_days" default:"5"`
	Currency              string          `envconfig:"currency" default:"INR"`

	PaymentURL       string        `envconfig:"payment_url" default:"https://api.razorpay.com/v1"`
	PaymentKeyID     string        `envconfig:"payment_key_id"`
	PaymentKeySecret string        `envconfig:"payment_key_secret"`
	PaymentTimeout   time.Duration `envconfig:"payment_timeout" default:"10s"`

	StorageDir    string `envconfig:"storage_dir" default:"./data/files"`
	PublicFileURL string `envconfig:"public_file_url" default:"http://localhost:8080/files/"`
	StoreName     string `envconfig:"store_name" default:"E-Commerce Store"`
	StoreAddress  string `envconfig:"store_address"`

	SMTPHost     string `envconfig:"smtp_host"`
	SMTPPort     int    `envconfig:"smtp_port" default:"587"`
	SMTPUser     string `envconfig:"smtp_user"`
	SMTPPassword string `envconfig:"smtp_password"`
	SMTPFrom     string `envconfig:"smtp_from" default:"no-reply@example.com"`
}

func parseEnv() (*config, error) {
	c := new(config)
	if err := envconfig.Process(appID, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *config) validate() error {
	for name, value := range map[string]decimal.Decimal{
		"free shipping threshold": c.FreeShippingThreshold,
		"shipping fee":            c.ShippingFee,
		"default tax rate":        c.DefaultTaxRate,
	} {
		if value.IsNegative() {
			return errors.Errorf("%s must not be negative, got %s", name, value)
		}
	}
	if c.DeliveryDays < 1 {
		return errors.Errorf("delivery days must be positive, got %d", c.DeliveryDays)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}

func (c *config) mysqlConfig() mysql.Config {
	return mysql.Config{
		User:            c.DBUser,
		Password:        c.DBPassword,
		Address:         c.DBAddress,
		Database:        c.DBName,
		MaxOpenConns:    c.DBMaxConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}

func (c *config) pricingConfig() service.PricingConfig {
	return service.PricingConfig{
		FreeShippingThreshold: c.FreeShippingThreshold,
		ShippingFee:           c.ShippingFee,
	}
}

func (c *config) paymentConfig() payment.Config {
	return payment.Config{
		BaseURL:   c.PaymentURL,
		KeyID:     c.PaymentKeyID,
		KeySecret: c.PaymentKeySecret,
		Timeout:   c.PaymentTimeout,
	}
}

func (c *config) smtpConfig() mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}
}
