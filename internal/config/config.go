package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	API              APIHTTPConfig           `env:",prefix=API_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	YooKassa         YooKassaConfig          `env:",prefix=YOOKASSA_"`
	Tmetr            TmetrConfig             `env:",prefix=TMETR_"`
	PaymentCheck     PaymentCheckConfig      `env:",prefix=PAYMENT_CHECK_"`
}

type YooKassaConfig struct {
	// Fallback shop credentials, used when a merchant has no credentials row.
	ShopID      string `env:"SHOP_ID"`
	SecretKey   string `env:"SECRET_KEY"`
	ReturnURL   string `env:"RETURN_URL,default=https://example.com/v1/order-status-page"`
	MockPayment bool   `env:"MOCK_PAYMENT,default=false"`
}

type TmetrConfig struct {
	Host      string        `env:"HOST,required"`
	Token     string        `env:"TOKEN,required"`
	Timeout   time.Duration `env:"TIMEOUT,default=5s"`
	RateLimit struct {
		Burst int     `env:"BURST,default=1"`
		RPS   float64 `env:"RPS,default=10.0"`
	} `env:",prefix=RATE_LIMIT_"`
}

// PaymentCheckConfig drives the background payment reconciliation loop.
// Fast track covers the window when the customer is plausibly still standing
// at the machine; after FastLimit the order drops to the slow cadence.
type PaymentCheckConfig struct {
	Interval        time.Duration `env:"INTERVAL,default=5s"`
	FastLimit       time.Duration `env:"FAST_LIMIT,default=300s"`
	FastInterval    time.Duration `env:"FAST_INTERVAL,default=5s"`
	SlowInterval    time.Duration `env:"SLOW_INTERVAL,default=60s"`
	AttemptLimit    int           `env:"ATTEMPT_LIMIT,default=50"`
	APITimeout      time.Duration `env:"API_TIMEOUT,default=3s"`
	OrderExpiration time.Duration `env:"ORDER_EXPIRATION,default=30m"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type APIHTTPConfig struct {
	Host         string        `env:"HOST,default=0.0.0.0"`
	Port         uint16        `env:"PORT,default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a APIHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/coffee.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
