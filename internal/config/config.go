package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database     Database     `envPrefix:"DATABASE_"`
	Auth         Auth         `envPrefix:"AUTH_"`
	Admin        Admin        `envPrefix:"ADMIN_"`
	Payment      Payment      `envPrefix:"PAYMENT_"`
	Paypal       Paypal       `envPrefix:"PAYPAL_"`
	BrainTree    Braintree    `envPrefix:"BRAINTREE_"`
	Notification Notification `envPrefix:"NOTIFICATION_"`
	Order        Order        `envPrefix:"ORDER_"`
	RateLimit    RateLimit    `envPrefix:"RATE_LIMIT_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql, postgres
	URL    string `env:"URL" envDefault:"brimasouk.db"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Admin is the account seeded at boot when both fields are set.
type Admin struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
	FullName string `env:"FULL_NAME" envDefault:"Brimasouk Admin"`
}

type Payment struct {
	Provider string `env:"PROVIDER" envDefault:"dev"` // dev, paypal, braintree
	Currency string `env:"CURRENCY" envDefault:"TND"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Notification struct {
	WebhookURL string        `env:"WEBHOOK_URL"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

type Order struct {
	ReserveStockOnCreate bool `env:"RESERVE_STOCK_ON_CREATE" envDefault:"false"`
	ReleasePromoOnCancel bool `env:"RELEASE_PROMO_ON_CANCEL" envDefault:"false"`
}

type RateLimit struct {
	AuthPerSecond float64 `env:"AUTH_PER_SECOND" envDefault:"5"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
